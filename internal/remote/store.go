// Package remote is the typed CRUD facade over the authoritative backend.
// Implementations hold no local state; every call returns a confirmed payload
// or an error. Nothing here retries automatically; retries are the caller's
// choice and are idempotent-safe by identifier.
package remote

import (
	"context"

	"axis/internal/domain"
)

// Patch is a partial update keyed by remote column name. Callers build it
// from validated input; implementations apply it verbatim.
type Patch map[string]any

// Store is the per-collection CRUD contract. List orders are the mirror's
// orders: newest first, events capped at domain.EventReadLimit by the read
// path. Profile reads embed the profile's proofs.
type Store interface {
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	GetProfile(ctx context.Context, id string) (domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, patch Patch) (domain.Profile, error)
	DeleteProfile(ctx context.Context, id string) error

	InsertProof(ctx context.Context, proof domain.Proof) (domain.Proof, error)
	UpdateProof(ctx context.Context, id string, patch Patch) (domain.Proof, error)
	DeleteProof(ctx context.Context, id string) error

	ListProjects(ctx context.Context) ([]domain.Project, error)
	InsertProject(ctx context.Context, project domain.Project) (domain.Project, error)
	UpdateProject(ctx context.Context, id string, patch Patch) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListBroadcasts(ctx context.Context) ([]domain.Broadcast, error)
	InsertBroadcast(ctx context.Context, broadcast domain.Broadcast) (domain.Broadcast, error)
	DeleteBroadcast(ctx context.Context, id string) error

	ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context, userID string) error

	ListEvents(ctx context.Context) ([]domain.SystemEvent, error)
	InsertEvent(ctx context.Context, event domain.SystemEvent) (domain.SystemEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}
