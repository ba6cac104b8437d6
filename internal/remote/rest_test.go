package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axis/internal/domain"
	"axis/pkg/platform/sentinel"
)

func newRESTServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *RESTStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewREST(srv.URL, "service-key", time.Second)
}

func TestRESTRequestShape(t *testing.T) {
	_, store := newRESTServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/projects", r.URL.Path)
		assert.Equal(t, "eq.p1", r.URL.Query().Get("id"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var patch map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.Equal(t, "Renamed", patch["title"])

		json.NewEncoder(w).Encode([]domain.Project{{ID: "p1", Title: "Renamed"}})
	})

	got, err := store.UpdateProject(context.Background(), "p1", Patch{"title": "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestRESTListProfilesEmbedsProofsAndDerivesRank(t *testing.T) {
	_, store := newRESTServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "*,proofs(*)", r.URL.Query().Get("select"))
		json.NewEncoder(w).Encode([]domain.Profile{
			{ID: "u1", ATISScore: 520, Rank: domain.RankIron, Proofs: []domain.Proof{{ID: "pr1"}}},
		})
	})

	profiles, err := store.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, domain.RankGold, profiles[0].Rank)
	assert.Len(t, profiles[0].Proofs, 1)
}

func TestRESTEmptyWriteResultIsNotFound(t *testing.T) {
	// PostgREST answers 200 with an empty array when the filter matched no row.
	_, store := newRESTServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("[]"))
	})

	_, err := store.UpdateProfile(context.Background(), "ghost", Patch{"name": "x"})
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestRESTServerErrorIsUnavailable(t *testing.T) {
	_, store := newRESTServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := store.ListProjects(context.Background())
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
}

func TestRESTTransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	store := NewREST(srv.URL, "k", time.Second)
	srv.Close()

	_, err := store.ListEvents(context.Background())
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
}

func TestRESTEventListRequestsNewestFirstCapped(t *testing.T) {
	_, store := newRESTServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		w.Write([]byte("[]"))
	})

	_, err := store.ListEvents(context.Background())
	require.NoError(t, err)
}
