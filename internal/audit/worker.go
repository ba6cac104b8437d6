package audit

import (
	"context"
	"log/slog"
	"time"

	"axis/internal/cache"
	"axis/internal/domain"
	"axis/internal/platform/metrics"
	"axis/internal/remote"
)

// Sink receives a copy of every persisted event, e.g. a Kafka mirror.
type Sink interface {
	Publish(ctx context.Context, event domain.SystemEvent) error
}

const appendTimeout = 5 * time.Second

// Worker drains the publisher queue independently of the callers'
// continuations: it appends each entry to the remote events collection,
// merges the confirmed row into the mirror, and fans out to the sink.
// Failures land in the diagnostics sink only; nothing is retried.
type Worker struct {
	store   remote.Store
	mirror  *cache.Mirror
	inbox   <-chan Entry
	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewWorker(store remote.Store, mirror *cache.Mirror, inbox <-chan Entry, sink Sink, logger *slog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		store:   store,
		mirror:  mirror,
		inbox:   inbox,
		sink:    sink,
		logger:  logger,
		metrics: m,
	}
}

// Run drains until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-w.inbox:
			w.append(ctx, entry)
		}
	}
}

func (w *Worker) append(ctx context.Context, entry Entry) {
	appendCtx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	confirmed, err := w.store.InsertEvent(appendCtx, entry.toEvent())
	if err != nil {
		if w.metrics != nil {
			w.metrics.AuditAppendFailed.Inc()
		}
		w.logger.WarnContext(ctx, "audit append failed",
			"type", entry.Type,
			"error", err,
		)
		return
	}

	// The confirmed row, not the local construction, lands in the mirror.
	w.mirror.Events.InsertTop(confirmed)

	if w.sink != nil {
		if err := w.sink.Publish(appendCtx, confirmed); err != nil {
			w.logger.WarnContext(ctx, "audit sink publish failed",
				"event_id", confirmed.ID,
				"error", err,
			)
		}
	}
}
