// Package rating consumes the external text-scoring service. Scoring is
// advisory: when the service is down, slow, or answers nonsense, callers get
// the neutral default instead of an error, so automated grading is never
// blocked by the service's availability.
package rating

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NeutralScore substitutes for any failed or out-of-range rating.
const NeutralScore = 3

// Rater scores a piece of proof text from 1 to 5.
type Rater interface {
	Rate(ctx context.Context, text string) int
}

// Client calls the scoring function over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

func NewClient(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type rateRequest struct {
	Prompt string `json:"prompt"`
}

type rateResponse struct {
	Text string `json:"text"`
}

// Rate never fails: every error path collapses to NeutralScore.
func (c *Client) Rate(ctx context.Context, text string) int {
	if c.endpoint == "" {
		return NeutralScore
	}

	payload, err := json.Marshal(rateRequest{
		Prompt: "Rate the following proof from 1 to 5. Return only the digit.\n" + text,
	})
	if err != nil {
		return NeutralScore
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return NeutralScore
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.fallback(ctx, err)
		return NeutralScore
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.fallback(ctx, nil)
		return NeutralScore
	}

	var out rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.fallback(ctx, err)
		return NeutralScore
	}
	return Parse(out.Text)
}

func (c *Client) fallback(ctx context.Context, err error) {
	if c.logger != nil {
		c.logger.DebugContext(ctx, "rating service unavailable, using neutral score", "error", err)
	}
}

// Parse turns a model reply into a 1-5 score. Non-numeric and out-of-range
// replies both collapse to the neutral default.
func Parse(reply string) int {
	n, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil || n < 1 || n > 5 {
		return NeutralScore
	}
	return n
}

// Fixed always answers the same score; demo mode and tests use it.
type Fixed struct {
	Score int
}

func (f Fixed) Rate(context.Context, string) int {
	if f.Score < 1 || f.Score > 5 {
		return NeutralScore
	}
	return f.Score
}
