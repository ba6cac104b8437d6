package realtime

import (
	"context"
	"log/slog"
	"strings"

	"axis/internal/cache"
	"axis/internal/platform/metrics"
	platformredis "axis/internal/platform/redis"
)

// WatchedCollections are the remote tables whose change notifications
// invalidate the mirror. Notifications are per-user and refresh on the same
// trigger, so they carry no channel of their own.
var WatchedCollections = []string{
	cache.CollectionProfiles,
	cache.CollectionProjects,
	cache.CollectionBroadcasts,
	cache.CollectionEvents,
}

// Subscriber holds the push-channel subscription. Any message on a watched
// channel kicks the scheduler; per-record patching is deliberately not
// attempted.
type Subscriber struct {
	client    *platformredis.Client
	prefix    string
	scheduler *Scheduler
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewSubscriber(client *platformredis.Client, prefix string, scheduler *Scheduler, logger *slog.Logger, m *metrics.Metrics) *Subscriber {
	return &Subscriber{
		client:    client,
		prefix:    prefix,
		scheduler: scheduler,
		logger:    logger,
		metrics:   m,
	}
}

// Run consumes invalidation messages until ctx is cancelled. go-redis
// resubscribes internally on connection loss; a closed channel means the
// subscription is gone for good.
func (s *Subscriber) Run(ctx context.Context) error {
	channels := make([]string, len(WatchedCollections))
	for i, collection := range WatchedCollections {
		channels[i] = s.prefix + collection
	}

	sub := s.client.Subscribe(ctx, channels...)
	defer sub.Close()

	s.logger.InfoContext(ctx, "invalidation subscription established", "channels", channels)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			collection := strings.TrimPrefix(msg.Channel, s.prefix)
			if s.metrics != nil {
				s.metrics.InvalidationsTotal.WithLabelValues(collection).Inc()
			}
			s.logger.DebugContext(ctx, "collection invalidated", "collection", collection)
			s.scheduler.Trigger()
		}
	}
}
