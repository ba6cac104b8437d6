package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axis/internal/audit"
	"axis/internal/cache"
	"axis/internal/datasync"
	"axis/internal/domain"
	"axis/internal/identity"
	"axis/internal/rating"
	"axis/internal/remote"
	"axis/pkg/testutil"
)

// passthroughAuth leaves authentication to the test, which decorates each
// request with the principal it wants.
func passthroughAuth(next http.Handler) http.Handler { return next }

func newFlowRouter(t *testing.T) (chi.Router, *remote.MemoryStore, *cache.Mirror) {
	t.Helper()
	store := remote.NewMemory()
	mirror := cache.NewMirror()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := datasync.NewService(
		store, mirror, audit.NewPublisher(16, nil),
		identity.ContextProvider{}, logger, nil, 0,
	)
	router := chi.NewRouter()
	New(service, rating.Fixed{Score: 3}, passthroughAuth, logger).Register(router)
	return router, store, mirror
}

func TestBroadcastFlow(t *testing.T) {
	router, store, mirror := newFlowRouter(t)

	var broadcastID string

	testutil.Given(t, "an administrator issues a directive", func(t *testing.T) {
		req := testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/dashboard/broadcasts",
			map[string]string{"message": "All units report in", "priority": "urgent"}), "admin-1")
		rr := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rr.Code)
	})

	testutil.Then(t, "the directive is confirmed remotely and mirrored", func(t *testing.T) {
		broadcasts := mirror.Broadcasts.Snapshot()
		require.Len(t, broadcasts, 1)
		assert.Equal(t, "All units report in", broadcasts[0].Message)
		assert.Equal(t, domain.PriorityUrgent, broadcasts[0].Priority)
		assert.Equal(t, "admin-1", broadcasts[0].AuthorID)
		broadcastID = broadcasts[0].ID

		stored, err := store.ListBroadcasts(context.Background())
		require.NoError(t, err)
		require.Len(t, stored, 1)
	})

	testutil.When(t, "a jobber tries to withdraw it", func(t *testing.T) {
		req := testutil.WithJobber(testutil.NewJSONRequest(t, http.MethodDelete, "/dashboard/broadcasts/"+broadcastID, nil), "jobber-1")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	testutil.When(t, "the administrator withdraws it", func(t *testing.T) {
		req := testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodDelete, "/dashboard/broadcasts/"+broadcastID, nil), "admin-1")
		rr := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Zero(t, mirror.Broadcasts.Len())
	})
}

func TestAnonymousMutationIsRejected(t *testing.T) {
	router, _, mirror := newFlowRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/dashboard/projects",
		map[string]string{"title": "Ghost Campaign"}))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	assert.Zero(t, mirror.Projects.Len())
}

func TestNotificationsServedOnlyToTheirOwner(t *testing.T) {
	router, store, mirror := newFlowRouter(t)

	store.AddNotification(domain.Notification{UserID: "admin-1", Message: "private to admin-1"})
	store.AddNotification(domain.Notification{UserID: "jobber-2", Message: "private to jobber-2"})

	// admin-1 resyncs, filling the shared mirror with their rows.
	req := testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/dashboard/resync", nil), "admin-1")
	require.Equal(t, http.StatusOK, testutil.DoRequest(router, req).Code)
	require.Equal(t, 1, mirror.Notifications.Len())

	// jobber-2 must not see what the mirror happens to hold.
	req = testutil.WithJobber(testutil.NewJSONRequest(t, http.MethodGet, "/dashboard/notifications", nil), "jobber-2")
	rr := testutil.DoRequest(router, req)
	require.Equal(t, http.StatusOK, rr.Code)
	theirs := testutil.UnmarshalResponse[[]domain.Notification](t, rr)
	assert.Empty(t, *theirs)

	req = testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodGet, "/dashboard/notifications", nil), "admin-1")
	rr = testutil.DoRequest(router, req)
	mine := testutil.UnmarshalResponse[[]domain.Notification](t, rr)
	require.Len(t, *mine, 1)
	assert.Equal(t, "private to admin-1", (*mine)[0].Message)
}

func TestUpdateProjectFailureSurfacesRemoteWriteCode(t *testing.T) {
	router, store, mirror := newFlowRouter(t)

	req := testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/dashboard/projects",
		map[string]string{"title": "Night Shift"}), "admin-1")
	require.Equal(t, http.StatusOK, testutil.DoRequest(router, req).Code)

	projects := mirror.Projects.Snapshot()
	require.Len(t, projects, 1)

	// Delete the row behind the coordinator's back so the next write fails.
	require.NoError(t, store.DeleteProject(context.Background(), projects[0].ID))

	req = testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodPatch, "/dashboard/projects/"+projects[0].ID,
		map[string]string{"title": "Renamed"}), "admin-1")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusBadGateway, "remote_write_failure")

	resp := testutil.UnmarshalResponse[map[string]string](t, rr)
	assert.NotEmpty(t, (*resp)["error_description"])
	assert.Equal(t, "Night Shift", mirror.Projects.Snapshot()[0].Title, "mirror keeps the pre-failure row")
}
