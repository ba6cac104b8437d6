// Package realtime turns coarse push-channel invalidations into full
// resynchronizations of the mirror. No payload diff arrives on the channel,
// only "something changed"; the answer is always a refetch.
package realtime

import (
	"context"
	"time"
)

// Resyncer runs one full refetch-and-replace cycle.
type Resyncer interface {
	Resync(ctx context.Context)
}

// Scheduler serializes resyncs: at most one cycle is in flight, triggers
// during a cycle coalesce into a single trailing rerun, and a debounce
// window soaks up bursts from a single batched remote change.
type Scheduler struct {
	resyncer Resyncer
	debounce time.Duration
	kick     chan struct{}
}

func NewScheduler(resyncer Resyncer, debounce time.Duration) *Scheduler {
	return &Scheduler{
		resyncer: resyncer,
		debounce: debounce,
		kick:     make(chan struct{}, 1),
	}
}

// Trigger requests a resync. Never blocks; a pending request absorbs any
// number of further triggers.
func (s *Scheduler) Trigger() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run owns the resync loop until ctx is cancelled. Because cycles execute on
// this single goroutine, "at most one concurrent resync" holds by
// construction.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.kick:
		}

		if s.debounce > 0 {
			timer := time.NewTimer(s.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			// Triggers that landed during the window ride this cycle.
			select {
			case <-s.kick:
			default:
			}
		}

		s.resyncer.Resync(ctx)
	}
}
