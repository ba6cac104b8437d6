// Package datasync is the mutation coordinator: every write follows
// validate -> remote write -> confirm -> reconcile mirror -> audit. The
// mirror is only ever touched after the remote store confirms, so a resync
// racing ahead of read-after-write consistency can never make a local patch
// "flicker back".
package datasync

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"axis/internal/audit"
	"axis/internal/cache"
	"axis/internal/domain"
	"axis/internal/identity"
	"axis/internal/platform/metrics"
	"axis/internal/remote"
	pkgerrors "axis/pkg/errors"
)

// Service coordinates single logical writes against the remote store and the
// local mirror. It is safe for concurrent use; cross-call ordering is left to
// the remote store's own isolation.
type Service struct {
	store    remote.Store
	mirror   *cache.Mirror
	log      *audit.Publisher
	identity identity.Provider
	logger   *slog.Logger
	metrics  *metrics.Metrics

	fetchTimeout time.Duration
}

func NewService(
	store remote.Store,
	mirror *cache.Mirror,
	log *audit.Publisher,
	provider identity.Provider,
	logger *slog.Logger,
	m *metrics.Metrics,
	fetchTimeout time.Duration,
) *Service {
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &Service{
		store:        store,
		mirror:       mirror,
		log:          log,
		identity:     provider,
		logger:       logger,
		metrics:      m,
		fetchTimeout: fetchTimeout,
	}
}

// Mirror exposes the read side for the transport layer.
func (s *Service) Mirror() *cache.Mirror { return s.mirror }

// Resync refetches every collection concurrently and replaces each one that
// fetched successfully. Failures are absorbed per collection: readers keep
// the last-known-good snapshot, the rest still update. Resyncs are
// idempotent; a newer resync simply wins.
func (s *Service) Resync(ctx context.Context) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		profiles, err := s.store.ListProfiles(ctx)
		if err != nil {
			s.fetchFailed(ctx, cache.CollectionProfiles, err)
			return nil
		}
		s.mirror.Profiles.ReplaceAll(profiles)
		return nil
	})
	g.Go(func() error {
		projects, err := s.store.ListProjects(ctx)
		if err != nil {
			s.fetchFailed(ctx, cache.CollectionProjects, err)
			return nil
		}
		s.mirror.Projects.ReplaceAll(projects)
		return nil
	})
	g.Go(func() error {
		broadcasts, err := s.store.ListBroadcasts(ctx)
		if err != nil {
			s.fetchFailed(ctx, cache.CollectionBroadcasts, err)
			return nil
		}
		s.mirror.Broadcasts.ReplaceAll(broadcasts)
		return nil
	})
	g.Go(func() error {
		events, err := s.store.ListEvents(ctx)
		if err != nil {
			s.fetchFailed(ctx, cache.CollectionEvents, err)
			return nil
		}
		s.mirror.Events.ReplaceAll(events)
		return nil
	})
	g.Go(func() error {
		// Notifications are per-user. Scheduler-driven resyncs run without a
		// principal and keep the previous notification snapshot; the read
		// path filters by principal, so a stale row never crosses users.
		user, err := s.identity.Current(ctx)
		if err != nil {
			return nil
		}
		notifications, err := s.store.ListNotifications(ctx, user.ID)
		if err != nil {
			s.fetchFailed(ctx, cache.CollectionNotifications, err)
			return nil
		}
		s.mirror.Notifications.ReplaceAll(notifications)
		return nil
	})

	_ = g.Wait()

	if s.metrics != nil {
		s.metrics.ResyncsTotal.Inc()
		s.metrics.ResyncDuration.Observe(time.Since(start).Seconds())
	}
}

func (s *Service) fetchFailed(ctx context.Context, collection string, err error) {
	if s.metrics != nil {
		s.metrics.ResyncFetchFailed.WithLabelValues(collection).Inc()
	}
	s.logger.WarnContext(ctx, "resync fetch failed, keeping previous snapshot",
		"collection", collection,
		"error", err,
	)
}

// RefreshProfile reloads one profile (with embedded proofs) from the remote
// store into the mirror.
func (s *Service) RefreshProfile(ctx context.Context, id string) error {
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteRead, "refresh profile", err)
	}
	if patched := s.mirror.Profiles.PatchOne(id, func(domain.Profile) domain.Profile {
		return profile
	}); !patched {
		s.mirror.Profiles.InsertTop(profile)
	}
	return nil
}
