package audit

import (
	"sync/atomic"

	"axis/internal/platform/metrics"
)

const defaultQueueSize = 1024

// Publisher accepts log entries on a bounded queue. Emit never blocks; when
// the queue is full the entry is dropped and counted, because observability
// must not slow the mutation path.
type Publisher struct {
	queue   chan Entry
	dropped atomic.Int64
	metrics *metrics.Metrics
}

func NewPublisher(size int, m *metrics.Metrics) *Publisher {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Publisher{
		queue:   make(chan Entry, size),
		metrics: m,
	}
}

// Emit enqueues an entry without blocking the caller.
func (p *Publisher) Emit(entry Entry) {
	select {
	case p.queue <- entry:
	default:
		p.dropped.Add(1)
		if p.metrics != nil {
			p.metrics.AuditDropped.Inc()
		}
	}
}

// Inbox is the drain side, consumed by the Worker.
func (p *Publisher) Inbox() <-chan Entry { return p.queue }

// Dropped reports how many entries were discarded under pressure.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }
