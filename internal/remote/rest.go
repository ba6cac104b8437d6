package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"axis/internal/domain"
	"axis/internal/reputation"
	"axis/pkg/platform/sentinel"
)

// RESTStore talks to a PostgREST-compatible API: one resource per collection,
// horizontal filtering via query parameters, and Prefer: return=representation
// so every write returns the server-confirmed row.
type RESTStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewREST builds a REST-backed store. The timeout bounds every call at this
// boundary; a hung remote surfaces as an error instead of a pending caller.
func NewREST(baseURL, apiKey string, timeout time.Duration) *RESTStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RESTStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *RESTStore) endpoint(table string, params url.Values) string {
	u := s.baseURL + "/rest/v1/" + table
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (s *RESTStore) do(ctx context.Context, method, rawURL string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		// Without this the API answers 204 and the confirmed row is lost.
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: remote status %d", sentinel.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote status %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// one unwraps PostgREST's array representation of a single affected row.
func one[T any](rows []T) (T, error) {
	if len(rows) == 0 {
		var zero T
		return zero, sentinel.ErrNotFound
	}
	return rows[0], nil
}

func eq(field, value string) url.Values {
	p := url.Values{}
	p.Set(field, "eq."+value)
	return p
}

func (s *RESTStore) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	p := url.Values{}
	p.Set("select", "*,proofs(*)")
	var profiles []domain.Profile
	if err := s.do(ctx, http.MethodGet, s.endpoint("profiles", p), nil, &profiles); err != nil {
		return nil, err
	}
	normalizeProfiles(profiles)
	return profiles, nil
}

func (s *RESTStore) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	p := eq("id", id)
	p.Set("select", "*,proofs(*)")
	var profiles []domain.Profile
	if err := s.do(ctx, http.MethodGet, s.endpoint("profiles", p), nil, &profiles); err != nil {
		return domain.Profile{}, err
	}
	profile, err := one(profiles)
	if err != nil {
		return domain.Profile{}, err
	}
	reputation.Normalize(&profile)
	return profile, nil
}

func (s *RESTStore) UpdateProfile(ctx context.Context, id string, patch Patch) (domain.Profile, error) {
	var profiles []domain.Profile
	if err := s.do(ctx, http.MethodPatch, s.endpoint("profiles", eq("id", id)), patch, &profiles); err != nil {
		return domain.Profile{}, err
	}
	profile, err := one(profiles)
	if err != nil {
		return domain.Profile{}, err
	}
	reputation.Normalize(&profile)
	return profile, nil
}

func (s *RESTStore) DeleteProfile(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.endpoint("profiles", eq("id", id)), nil, nil)
}

func (s *RESTStore) InsertProof(ctx context.Context, proof domain.Proof) (domain.Proof, error) {
	var proofs []domain.Proof
	if err := s.do(ctx, http.MethodPost, s.endpoint("proofs", nil), proof, &proofs); err != nil {
		return domain.Proof{}, err
	}
	return one(proofs)
}

func (s *RESTStore) UpdateProof(ctx context.Context, id string, patch Patch) (domain.Proof, error) {
	var proofs []domain.Proof
	if err := s.do(ctx, http.MethodPatch, s.endpoint("proofs", eq("id", id)), patch, &proofs); err != nil {
		return domain.Proof{}, err
	}
	return one(proofs)
}

func (s *RESTStore) DeleteProof(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.endpoint("proofs", eq("id", id)), nil, nil)
}

func (s *RESTStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	p := url.Values{}
	p.Set("order", "created_at.desc")
	var projects []domain.Project
	if err := s.do(ctx, http.MethodGet, s.endpoint("projects", p), nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *RESTStore) InsertProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	var projects []domain.Project
	if err := s.do(ctx, http.MethodPost, s.endpoint("projects", nil), project, &projects); err != nil {
		return domain.Project{}, err
	}
	return one(projects)
}

func (s *RESTStore) UpdateProject(ctx context.Context, id string, patch Patch) (domain.Project, error) {
	var projects []domain.Project
	if err := s.do(ctx, http.MethodPatch, s.endpoint("projects", eq("id", id)), patch, &projects); err != nil {
		return domain.Project{}, err
	}
	return one(projects)
}

func (s *RESTStore) DeleteProject(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.endpoint("projects", eq("id", id)), nil, nil)
}

func (s *RESTStore) ListBroadcasts(ctx context.Context) ([]domain.Broadcast, error) {
	p := url.Values{}
	p.Set("order", "created_at.desc")
	var broadcasts []domain.Broadcast
	if err := s.do(ctx, http.MethodGet, s.endpoint("broadcasts", p), nil, &broadcasts); err != nil {
		return nil, err
	}
	return broadcasts, nil
}

func (s *RESTStore) InsertBroadcast(ctx context.Context, broadcast domain.Broadcast) (domain.Broadcast, error) {
	var broadcasts []domain.Broadcast
	if err := s.do(ctx, http.MethodPost, s.endpoint("broadcasts", nil), broadcast, &broadcasts); err != nil {
		return domain.Broadcast{}, err
	}
	return one(broadcasts)
}

func (s *RESTStore) DeleteBroadcast(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.endpoint("broadcasts", eq("id", id)), nil, nil)
}

func (s *RESTStore) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	p := eq("user_id", userID)
	p.Set("order", "created_at.desc")
	var notifications []domain.Notification
	if err := s.do(ctx, http.MethodGet, s.endpoint("notifications", p), nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *RESTStore) MarkNotificationsRead(ctx context.Context, userID string) error {
	patch := Patch{"is_read": true}
	return s.do(ctx, http.MethodPatch, s.endpoint("notifications", eq("user_id", userID)), patch, nil)
}

func (s *RESTStore) DeleteNotification(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.endpoint("notifications", eq("id", id)), nil, nil)
}

func (s *RESTStore) ClearNotifications(ctx context.Context, userID string) error {
	return s.do(ctx, http.MethodDelete, s.endpoint("notifications", eq("user_id", userID)), nil, nil)
}

func (s *RESTStore) ListEvents(ctx context.Context) ([]domain.SystemEvent, error) {
	p := url.Values{}
	p.Set("order", "created_at.desc")
	p.Set("limit", strconv.Itoa(domain.EventReadLimit))
	var events []domain.SystemEvent
	if err := s.do(ctx, http.MethodGet, s.endpoint("events", p), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *RESTStore) InsertEvent(ctx context.Context, event domain.SystemEvent) (domain.SystemEvent, error) {
	var events []domain.SystemEvent
	if err := s.do(ctx, http.MethodPost, s.endpoint("events", nil), event, &events); err != nil {
		return domain.SystemEvent{}, err
	}
	return one(events)
}

func (s *RESTStore) DeleteEvent(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.endpoint("events", eq("id", id)), nil, nil)
}
