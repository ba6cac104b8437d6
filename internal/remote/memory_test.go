package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axis/internal/domain"
	"axis/pkg/platform/sentinel"
)

func TestMemoryProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	p := s.AddProfile(domain.Profile{Handle: "node-7", ATISScore: 120})

	got, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "node-7", got.Handle)
	assert.Equal(t, domain.RankBronze, got.Rank, "rank derives from score on every read")
	assert.Equal(t, domain.RoleJobber, got.Role)
	assert.Equal(t, domain.StatusActive, got.Status)

	updated, err := s.UpdateProfile(ctx, p.ID, Patch{"name": "Node Seven", "trust_modifier": 5})
	require.NoError(t, err)
	assert.Equal(t, "Node Seven", updated.Name)
	assert.Equal(t, 5, updated.TrustModifier)
	assert.Equal(t, "node-7", updated.Handle, "unpatched columns survive")

	require.NoError(t, s.DeleteProfile(ctx, p.ID))
	_, err = s.GetProfile(ctx, p.ID)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestMemoryMissingRowsReturnNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.UpdateProfile(ctx, "nope", Patch{"name": "x"})
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	_, err = s.UpdateProject(ctx, "nope", Patch{"title": "x"})
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	assert.True(t, errors.Is(s.DeleteProof(ctx, "nope"), sentinel.ErrNotFound))
	assert.True(t, errors.Is(s.DeleteEvent(ctx, "nope"), sentinel.ErrNotFound))
}

func TestMemoryEmbedsProofsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Now()
	s.clock = func() time.Time { now = now.Add(time.Second); return now }

	p := s.AddProfile(domain.Profile{Handle: "node-7"})
	_, err := s.InsertProof(ctx, domain.Proof{JobberID: p.ID, Title: "older"})
	require.NoError(t, err)
	_, err = s.InsertProof(ctx, domain.Proof{JobberID: p.ID, Title: "newer"})
	require.NoError(t, err)

	got, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Proofs, 2)
	assert.Equal(t, "newer", got.Proofs[0].Title)
	assert.Equal(t, domain.ProofPending, got.Proofs[0].Status)
}

func TestMemoryDeleteProfileCascadesProofs(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	p := s.AddProfile(domain.Profile{Handle: "node-7"})
	proof, err := s.InsertProof(ctx, domain.Proof{JobberID: p.ID, Title: "orphan-to-be"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProfile(ctx, p.ID))
	assert.True(t, errors.Is(s.DeleteProof(ctx, proof.ID), sentinel.ErrNotFound))
}

func TestMemoryNotificationsScopedByUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	s.AddNotification(domain.Notification{UserID: "u1", Message: "mine"})
	s.AddNotification(domain.Notification{UserID: "u2", Message: "theirs"})

	mine, err := s.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Message)

	require.NoError(t, s.MarkNotificationsRead(ctx, "u1"))
	mine, _ = s.ListNotifications(ctx, "u1")
	assert.True(t, mine[0].IsRead)
	theirs, _ := s.ListNotifications(ctx, "u2")
	assert.False(t, theirs[0].IsRead)

	require.NoError(t, s.ClearNotifications(ctx, "u1"))
	mine, _ = s.ListNotifications(ctx, "u1")
	assert.Empty(t, mine)
	theirs, _ = s.ListNotifications(ctx, "u2")
	assert.Len(t, theirs, 1)
}

func TestMemoryEventsNewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Now()
	s.clock = func() time.Time { now = now.Add(time.Millisecond); return now }

	for i := 0; i < domain.EventReadLimit+10; i++ {
		_, err := s.InsertEvent(ctx, domain.SystemEvent{Type: domain.EventAlert, Message: "tick"})
		require.NoError(t, err)
	}
	last, err := s.InsertEvent(ctx, domain.SystemEvent{Type: domain.EventAlert, Message: "latest"})
	require.NoError(t, err)

	events, err := s.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, domain.EventReadLimit)
	assert.Equal(t, last.ID, events[0].ID)
}
