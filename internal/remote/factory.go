package remote

import (
	"fmt"

	"axis/internal/platform/config"
)

// NewFromConfig selects the store driver. Memory is the demo-mode fallback
// when no remote is configured, seeded so the dashboard is not empty.
func NewFromConfig(cfg config.Remote) (Store, error) {
	switch cfg.Driver {
	case "rest":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("rest driver requires AXIS_REMOTE_URL")
		}
		return NewREST(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres driver requires AXIS_POSTGRES_DSN")
		}
		return NewPostgres(cfg.PostgresDSN)
	case "memory", "":
		store := NewMemory()
		SeedDemo(store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown remote driver %q", cfg.Driver)
	}
}
