package datasync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/suite"

	"axis/internal/audit"
	"axis/internal/cache"
	"axis/internal/domain"
	"axis/internal/identity"
	"axis/internal/remote"
	pkgerrors "axis/pkg/errors"
)

var errRemoteDown = errors.New("remote store unavailable")

// flakyStore wraps the memory store and fails selected operations so the
// coordinator's failure paths can be exercised precisely.
type flakyStore struct {
	remote.Store
	failUpdateProject  bool
	failUpdateProfile  bool
	failListProjects   bool
	updateProfileCalls int
}

func (f *flakyStore) UpdateProject(ctx context.Context, id string, patch remote.Patch) (domain.Project, error) {
	if f.failUpdateProject {
		return domain.Project{}, errRemoteDown
	}
	return f.Store.UpdateProject(ctx, id, patch)
}

func (f *flakyStore) UpdateProfile(ctx context.Context, id string, patch remote.Patch) (domain.Profile, error) {
	f.updateProfileCalls++
	if f.failUpdateProfile {
		return domain.Profile{}, errRemoteDown
	}
	return f.Store.UpdateProfile(ctx, id, patch)
}

func (f *flakyStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	if f.failListProjects {
		return nil, errRemoteDown
	}
	return f.Store.ListProjects(ctx)
}

type ServiceSuite struct {
	suite.Suite
	memory  *remote.MemoryStore
	store   *flakyStore
	mirror  *cache.Mirror
	log     *audit.Publisher
	service *Service
	user    identity.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.memory = remote.NewMemory()
	s.store = &flakyStore{Store: s.memory}
	s.mirror = cache.NewMirror()
	s.log = audit.NewPublisher(16, nil)
	s.user = identity.User{ID: "admin-1", Role: domain.RoleAdmin}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.store, s.mirror, s.log, identity.Static{User: s.user}, logger, nil, 0)
}

func (s *ServiceSuite) seedProfile(score int) domain.Profile {
	return s.memory.AddProfile(domain.Profile{
		Handle:    "node-7",
		Name:      "Node Seven",
		ATISScore: score,
	})
}

func strPtr(v string) *string { return &v }

// =============================================================================
// Mutation failure semantics
// =============================================================================

func (s *ServiceSuite) TestUpdateProjectFailureLeavesMirrorUnchanged() {
	ctx := context.Background()
	project, err := s.memory.InsertProject(ctx, domain.Project{Title: "Initial Sweep"})
	s.Require().NoError(err)
	s.service.Resync(ctx)

	before := s.mirror.Projects.Snapshot()
	s.Require().Len(before, 1)

	s.store.failUpdateProject = true
	err = s.service.UpdateProject(ctx, project.ID, ProjectUpdate{Title: strPtr("Renamed")})

	s.Require().Error(err)
	s.Equal(pkgerrors.CodeRemoteWrite, pkgerrors.CodeOf(err))
	s.True(errors.Is(err, errRemoteDown))

	after := s.mirror.Projects.Snapshot()
	s.Equal(before, after, "a failed remote write must not touch the mirror")
}

func (s *ServiceSuite) TestUpdateProfileValidationSkipsRemote() {
	ctx := context.Background()
	p := s.seedProfile(100)

	badRole := domain.Role("OVERLORD")
	err := s.service.UpdateProfile(ctx, p.ID, ProfileUpdate{Role: &badRole})

	s.Require().Error(err)
	s.Equal(pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	s.Zero(s.store.updateProfileCalls, "validation failures must not reach the remote store")
}

func (s *ServiceSuite) TestUpdateProfileMirrorsConfirmedRow() {
	ctx := context.Background()
	p := s.seedProfile(100)
	s.service.Resync(ctx)

	err := s.service.UpdateProfile(ctx, p.ID, ProfileUpdate{Name: strPtr("Renamed Operator")})
	s.Require().NoError(err)

	cached, ok := s.mirror.Profiles.Get(p.ID)
	s.Require().True(ok)
	s.Equal("Renamed Operator", cached.Name)
}

// =============================================================================
// Grading
// =============================================================================

func (s *ServiceSuite) TestGradeProofPromotesAcrossRankBoundary() {
	ctx := context.Background()

	cases := []struct {
		name      string
		start     int
		grade     int
		wantScore int
		wantRank  domain.Rank
	}{
		{"well inside bronze", 80, 4, 120, domain.RankBronze},
		{"exact silver boundary", 290, 1, 300, domain.RankSilver},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			p := s.seedProfile(tc.start)
			proof, err := s.memory.InsertProof(ctx, domain.Proof{JobberID: p.ID, Title: "Outreach batch"})
			s.Require().NoError(err)

			s.Require().NoError(s.service.GradeProof(ctx, p.ID, proof.ID, tc.grade))

			stored, err := s.memory.GetProfile(ctx, p.ID)
			s.Require().NoError(err)
			s.Equal(tc.wantScore, stored.ATISScore)
			s.Equal(tc.wantRank, stored.Rank)

			cached, ok := s.mirror.Profiles.Get(p.ID)
			s.Require().True(ok, "graded profile must land in the mirror")
			s.Equal(tc.wantScore, cached.ATISScore)
			s.Equal(tc.wantRank, cached.Rank)

			s.Require().NotEmpty(cached.Proofs)
			s.Equal(domain.ProofScored, cached.Proofs[0].Status)
			s.Equal(tc.grade, cached.Proofs[0].AdminScore)
		})
	}
}

func (s *ServiceSuite) TestGradeProofRejectsOutOfRangeGrade() {
	ctx := context.Background()
	p := s.seedProfile(100)

	for _, grade := range []int{0, 6, -1} {
		err := s.service.GradeProof(ctx, p.ID, "proof-x", grade)
		s.Require().Error(err)
		s.Equal(pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	}
}

func (s *ServiceSuite) TestGradeProofEmitsGradeChangeEvent() {
	ctx := context.Background()
	p := s.seedProfile(80)
	proof, err := s.memory.InsertProof(ctx, domain.Proof{JobberID: p.ID, Title: "Outreach batch"})
	s.Require().NoError(err)

	s.Require().NoError(s.service.GradeProof(ctx, p.ID, proof.ID, 4))

	select {
	case entry := <-s.log.Inbox():
		s.Equal(domain.EventGradeChange, entry.Type)
		s.Equal(p.ID, entry.RelatedJobberID)
	default:
		s.Fail("expected a grade_change entry on the audit queue")
	}
}

func (s *ServiceSuite) TestBroadcastAuditMessageTruncatesOnRunes() {
	ctx := context.Background()
	message := strings.Repeat("директива", 3) // 27 runes, all multibyte
	s.Require().NoError(s.service.CreateBroadcast(ctx, message, domain.PriorityUrgent))

	select {
	case entry := <-s.log.Inbox():
		s.True(utf8.ValidString(entry.Message), "truncation must not split a rune")
		s.Equal("Global directive issued: "+string([]rune(message)[:20])+"...", entry.Message)
	default:
		s.Fail("expected a broadcast entry on the audit queue")
	}
}

// =============================================================================
// Resync
// =============================================================================

func (s *ServiceSuite) TestResyncPartialFailureKeepsPreviousSnapshot() {
	ctx := context.Background()
	s.seedProfile(100)
	stale, err := s.memory.InsertProject(ctx, domain.Project{Title: "Old Campaign"})
	s.Require().NoError(err)
	s.service.Resync(ctx)
	s.Require().Equal(1, s.mirror.Projects.Len())

	_, err = s.memory.InsertProject(ctx, domain.Project{Title: "New Campaign"})
	s.Require().NoError(err)
	s.store.failListProjects = true
	s.service.Resync(ctx)

	// Projects keep the last good snapshot; profiles still refreshed.
	projects := s.mirror.Projects.Snapshot()
	s.Require().Len(projects, 1)
	s.Equal(stale.ID, projects[0].ID)
	s.Equal(1, s.mirror.Profiles.Len())
}

func (s *ServiceSuite) TestResyncScopesNotificationsToCurrentUser() {
	ctx := context.Background()
	s.memory.AddNotification(domain.Notification{UserID: s.user.ID, Message: "for you"})
	s.memory.AddNotification(domain.Notification{UserID: "someone-else", Message: "not for you"})

	s.service.Resync(ctx)

	notifications := s.mirror.Notifications.Snapshot()
	s.Require().Len(notifications, 1)
	s.Equal("for you", notifications[0].Message)
}

func (s *ServiceSuite) TestResyncDerivesRankFromScore() {
	ctx := context.Background()
	p := s.memory.AddProfile(domain.Profile{Handle: "stale", ATISScore: 520, Rank: domain.RankIron})

	s.service.Resync(ctx)

	cached, ok := s.mirror.Profiles.Get(p.ID)
	s.Require().True(ok)
	s.Equal(domain.RankGold, cached.Rank, "stored rank is a cache, the score is truth")
}

// =============================================================================
// Notifications
// =============================================================================

func (s *ServiceSuite) TestMarkAllNotificationsRead() {
	ctx := context.Background()
	s.memory.AddNotification(domain.Notification{UserID: s.user.ID, Message: "one"})
	s.memory.AddNotification(domain.Notification{UserID: s.user.ID, Message: "two"})
	s.service.Resync(ctx)

	s.Require().NoError(s.service.MarkAllNotificationsRead(ctx))

	for _, n := range s.mirror.Notifications.Snapshot() {
		s.True(n.IsRead)
	}
	stored, err := s.memory.ListNotifications(ctx, s.user.ID)
	s.Require().NoError(err)
	for _, n := range stored {
		s.True(n.IsRead)
	}
}

func (s *ServiceSuite) TestNotificationMutationsScopedToPrincipal() {
	ctx := context.Background()
	s.memory.AddNotification(domain.Notification{UserID: s.user.ID, Message: "mine"})
	s.memory.AddNotification(domain.Notification{UserID: "someone-else", Message: "theirs"})

	// The mirror can hold another user's rows, e.g. after a session handoff.
	s.mirror.Notifications.ReplaceAll([]domain.Notification{
		{ID: "n1", UserID: s.user.ID, Message: "mine"},
		{ID: "n2", UserID: "someone-else", Message: "theirs"},
	})

	s.Require().NoError(s.service.MarkAllNotificationsRead(ctx))
	for _, n := range s.mirror.Notifications.Snapshot() {
		if n.UserID == s.user.ID {
			s.True(n.IsRead)
		} else {
			s.False(n.IsRead, "another user's cached rows must not be flipped")
		}
	}

	s.Require().NoError(s.service.ClearNotifications(ctx))
	remaining := s.mirror.Notifications.Snapshot()
	s.Require().Len(remaining, 1)
	s.Equal("someone-else", remaining[0].UserID)
}

func (s *ServiceSuite) TestClearNotificationsEmptiesMirror() {
	ctx := context.Background()
	s.memory.AddNotification(domain.Notification{UserID: s.user.ID, Message: "one"})
	s.service.Resync(ctx)
	s.Require().Equal(1, s.mirror.Notifications.Len())

	s.Require().NoError(s.service.ClearNotifications(ctx))
	s.Zero(s.mirror.Notifications.Len())
}

// =============================================================================
// Proof lifecycle
// =============================================================================

func (s *ServiceSuite) TestSubmitProofRefreshesOwningProfile() {
	ctx := context.Background()
	p := s.seedProfile(100)
	s.service.Resync(ctx)

	err := s.service.SubmitProof(ctx, p.ID, ProofInput{Title: "Cold call log", Type: "outreach"})
	s.Require().NoError(err)

	cached, ok := s.mirror.Profiles.Get(p.ID)
	s.Require().True(ok)
	s.Require().Len(cached.Proofs, 1)
	s.Equal(domain.ProofPending, cached.Proofs[0].Status)
}

func (s *ServiceSuite) TestDeleteProofLeavesEarlierSnapshotsIntact() {
	ctx := context.Background()
	p := s.seedProfile(100)
	first, err := s.memory.InsertProof(ctx, domain.Proof{JobberID: p.ID, Title: "first"})
	s.Require().NoError(err)
	_, err = s.memory.InsertProof(ctx, domain.Proof{JobberID: p.ID, Title: "second"})
	s.Require().NoError(err)
	s.service.Resync(ctx)

	before := s.mirror.Profiles.Snapshot()
	s.Require().Len(before, 1)
	s.Require().Len(before[0].Proofs, 2)

	s.Require().NoError(s.service.DeleteProof(ctx, first.ID))

	// The earlier snapshot must be untouched: its backing array is shared
	// with the reader that took it, not with the mirror's writers.
	s.Require().Len(before[0].Proofs, 2)
	ids := map[string]bool{}
	for _, pr := range before[0].Proofs {
		ids[pr.ID] = true
	}
	s.Len(ids, 2)
	s.True(ids[first.ID], "deleted proof must survive in the pre-delete snapshot")

	cached, ok := s.mirror.Profiles.Get(p.ID)
	s.Require().True(ok)
	s.Len(cached.Proofs, 1)
}

func (s *ServiceSuite) TestDeleteProofStripsEmbeddedCopy() {
	ctx := context.Background()
	p := s.seedProfile(100)
	proof, err := s.memory.InsertProof(ctx, domain.Proof{JobberID: p.ID, Title: "Outreach batch"})
	s.Require().NoError(err)
	s.service.Resync(ctx)

	s.Require().NoError(s.service.DeleteProof(ctx, proof.ID))

	cached, ok := s.mirror.Profiles.Get(p.ID)
	s.Require().True(ok)
	s.Empty(cached.Proofs)
}
