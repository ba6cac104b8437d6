package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axis/internal/cache"
	"axis/internal/domain"
	"axis/internal/remote"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitNeverBlocksWhenQueueFull(t *testing.T) {
	p := NewPublisher(2, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			p.Emit(Entry{Type: domain.EventAlert, Message: "overflow"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full queue")
	}
	assert.EqualValues(t, 8, p.Dropped())
}

func TestWorkerAppendsConfirmedRowToMirror(t *testing.T) {
	store := remote.NewMemory()
	mirror := cache.NewMirror()
	p := NewPublisher(8, nil)
	w := NewWorker(store, mirror, p.Inbox(), nil, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	p.Emit(Entry{
		Type:            domain.EventSubmission,
		Message:         "Proof submitted: Outreach batch",
		Severity:        domain.SeverityLow,
		RelatedJobberID: "node-7",
	})

	require.Eventually(t, func() bool {
		return mirror.Events.Len() == 1
	}, time.Second, 5*time.Millisecond)

	events := mirror.Events.Snapshot()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID, "mirror holds the confirmed row, ids and all")
	assert.Equal(t, domain.EventSubmission, events[0].Type)
	assert.Equal(t, "node-7", events[0].RelatedJobberID)

	stored, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, events[0].ID, stored[0].ID)
}

type failingEventStore struct {
	remote.Store
}

func (failingEventStore) InsertEvent(context.Context, domain.SystemEvent) (domain.SystemEvent, error) {
	return domain.SystemEvent{}, errors.New("events table unavailable")
}

func TestWorkerAbsorbsAppendFailure(t *testing.T) {
	mirror := cache.NewMirror()
	p := NewPublisher(8, nil)
	w := NewWorker(failingEventStore{Store: remote.NewMemory()}, mirror, p.Inbox(), nil, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	p.Emit(Entry{Type: domain.EventAlert, Message: "doomed"})

	// The failed append leaves no trace in the mirror and kills nothing.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, mirror.Events.Len())

	// A later healthy entry would still need a healthy store; the worker loop
	// itself must survive to pick it up.
	p.Emit(Entry{Type: domain.EventAlert, Message: "also doomed"})
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, mirror.Events.Len())
}

type recordingSink struct {
	ch chan domain.SystemEvent
}

func (r *recordingSink) Publish(_ context.Context, event domain.SystemEvent) error {
	r.ch <- event
	return nil
}

func TestWorkerFansOutToSink(t *testing.T) {
	store := remote.NewMemory()
	mirror := cache.NewMirror()
	p := NewPublisher(8, nil)
	sink := &recordingSink{ch: make(chan domain.SystemEvent, 1)}
	w := NewWorker(store, mirror, p.Inbox(), sink, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	p.Emit(Entry{Type: domain.EventGradeChange, Message: "Manual grade 4/5 applied"})

	select {
	case event := <-sink.ch:
		assert.Equal(t, domain.EventGradeChange, event.Type)
		assert.NotEmpty(t, event.ID)
	case <-time.After(time.Second):
		t.Fatal("sink never received the confirmed event")
	}
}
