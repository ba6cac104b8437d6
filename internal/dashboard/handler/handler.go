// Package handler is the HTTP face of the dashboard. Reads serve mirror
// snapshots without touching the remote store; writes delegate to the
// mutation coordinator and answer with the coordinator's verdict.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"axis/internal/cache"
	"axis/internal/datasync"
	"axis/internal/domain"
	"axis/internal/identity"
	"axis/internal/platform/middleware"
	"axis/internal/rating"
	pkgerrors "axis/pkg/errors"
	"axis/pkg/platform/httputil"
)

// Service is the slice of the mutation coordinator the transport needs.
type Service interface {
	Mirror() *cache.Mirror
	UpdateProfile(ctx context.Context, id string, update datasync.ProfileUpdate) error
	DeleteProfile(ctx context.Context, id string) error
	SubmitProof(ctx context.Context, profileID string, input datasync.ProofInput) error
	GradeProof(ctx context.Context, profileID, proofID string, grade int) error
	DeleteProof(ctx context.Context, proofID string) error
	CreateProject(ctx context.Context, input datasync.ProjectInput) error
	UpdateProject(ctx context.Context, id string, update datasync.ProjectUpdate) error
	DeleteProject(ctx context.Context, id string) error
	CreateBroadcast(ctx context.Context, message string, priority domain.BroadcastPriority) error
	DeleteBroadcast(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) error
	AddEvent(eventType domain.EventType, message string, severity domain.Severity, relatedJobberID string) error
	DeleteEvent(ctx context.Context, id string) error
	Resync(ctx context.Context)
}

// Handler wires dashboard endpoints to the coordinator and the mirror.
type Handler struct {
	service Service
	rater   rating.Rater
	logger  *slog.Logger
	auth    func(http.Handler) http.Handler
}

func New(service Service, rater rating.Rater, auth func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		rater:   rater,
		logger:  logger,
		auth:    auth,
	}
}

// Register mounts all dashboard routes.
func (h *Handler) Register(r chi.Router) {
	dash := chi.NewRouter()
	dash.Use(middleware.RequestID)
	dash.Use(middleware.Recovery(h.logger))
	dash.Use(middleware.Logger(h.logger))
	dash.Use(h.auth)

	dash.Get("/profiles", h.handleListProfiles)
	dash.Get("/profiles/{id}", h.handleGetProfile)
	dash.Patch("/profiles/{id}", h.handleUpdateProfile)
	dash.Delete("/profiles/{id}", h.handleDeleteProfile)

	dash.Post("/profiles/{id}/proofs", h.handleSubmitProof)
	dash.Post("/profiles/{id}/proofs/{proofID}/grade", h.handleGradeProof)
	dash.Post("/profiles/{id}/proofs/{proofID}/autograde", h.handleAutogradeProof)
	dash.Delete("/proofs/{id}", h.handleDeleteProof)

	dash.Get("/projects", h.handleListProjects)
	dash.Post("/projects", h.handleCreateProject)
	dash.Patch("/projects/{id}", h.handleUpdateProject)
	dash.Delete("/projects/{id}", h.handleDeleteProject)

	dash.Get("/broadcasts", h.handleListBroadcasts)
	dash.Post("/broadcasts", h.handleCreateBroadcast)
	dash.Delete("/broadcasts/{id}", h.handleDeleteBroadcast)

	dash.Get("/notifications", h.handleListNotifications)
	dash.Post("/notifications/read-all", h.handleMarkNotificationsRead)
	dash.Delete("/notifications/{id}", h.handleDeleteNotification)
	dash.Delete("/notifications", h.handleClearNotifications)

	dash.Get("/events", h.handleListEvents)
	dash.Post("/events", h.handleAddEvent)
	dash.Delete("/events/{id}", h.handleDeleteEvent)

	dash.Post("/resync", h.handleResync)

	r.Mount("/dashboard", dash)
}

// requireAdmin gates the operator-only mutations.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user, err := identity.ContextProvider{}.Current(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return false
	}
	if user.Role != domain.RoleAdmin && user.Role != domain.RoleSuperAdmin {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "administrator role required"))
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Reads: mirror snapshots only, never the remote store.
// ---------------------------------------------------------------------------

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Mirror().Profiles.Snapshot())
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.service.Mirror().Profiles.Get(chi.URLParam(r, "id"))
	if !ok {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeNotFound, "profile not in mirror"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Mirror().Projects.Snapshot())
}

func (h *Handler) handleListBroadcasts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Mirror().Broadcasts.Snapshot())
}

// handleListNotifications serves only the requesting principal's rows. The
// collection is shared and is refilled by whichever user last resynced, so
// the scoping happens here, not at fetch time.
func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	user, err := identity.ContextProvider{}.Current(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	all := h.service.Mirror().Notifications.Snapshot()
	mine := make([]domain.Notification, 0, len(all))
	for _, n := range all {
		if n.UserID == user.ID {
			mine = append(mine, n)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, mine)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Mirror().Events.Snapshot())
}

// ---------------------------------------------------------------------------
// Profile and proof mutations
// ---------------------------------------------------------------------------

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	req, ok := httputil.Decode[updateProfileRequest](w, r)
	if !ok {
		return
	}
	h.respond(w, h.service.UpdateProfile(r.Context(), chi.URLParam(r, "id"), req.toUpdate()))
}

func (h *Handler) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	h.respond(w, h.service.DeleteProfile(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[proofRequest](w, r)
	if !ok {
		return
	}
	h.respond(w, h.service.SubmitProof(r.Context(), chi.URLParam(r, "id"), req.toInput()))
}

func (h *Handler) handleGradeProof(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	req, ok := httputil.Decode[gradeRequest](w, r)
	if !ok {
		return
	}
	h.respond(w, h.service.GradeProof(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "proofID"), req.Grade))
}

// handleAutogradeProof scores the proof text with the external rater, then
// runs the same grading path as a manual grade. A dead rating service still
// grades, at the neutral score.
func (h *Handler) handleAutogradeProof(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	profileID := chi.URLParam(r, "id")
	proofID := chi.URLParam(r, "proofID")

	profile, ok := h.service.Mirror().Profiles.Get(profileID)
	if !ok {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeNotFound, "profile not in mirror"))
		return
	}
	var text string
	for _, proof := range profile.Proofs {
		if proof.ID == proofID {
			text = proof.Title + "\n" + proof.Description
			break
		}
	}
	if text == "" {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeNotFound, "proof not in mirror"))
		return
	}

	grade := h.rater.Rate(r.Context(), text)
	if err := h.service.GradeProof(r.Context(), profileID, proofID, grade); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"grade": grade})
}

func (h *Handler) handleDeleteProof(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	h.respond(w, h.service.DeleteProof(r.Context(), chi.URLParam(r, "id")))
}

// ---------------------------------------------------------------------------
// Projects, broadcasts
// ---------------------------------------------------------------------------

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	req, ok := httputil.Decode[projectRequest](w, r)
	if !ok {
		return
	}
	h.respond(w, h.service.CreateProject(r.Context(), req.toInput()))
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	req, ok := httputil.Decode[updateProjectRequest](w, r)
	if !ok {
		return
	}
	h.respond(w, h.service.UpdateProject(r.Context(), chi.URLParam(r, "id"), req.toUpdate()))
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	h.respond(w, h.service.DeleteProject(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) handleCreateBroadcast(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	req, ok := httputil.Decode[broadcastRequest](w, r)
	if !ok {
		return
	}
	h.respond(w, h.service.CreateBroadcast(r.Context(), req.Message, domain.BroadcastPriority(req.Priority)))
}

func (h *Handler) handleDeleteBroadcast(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	h.respond(w, h.service.DeleteBroadcast(r.Context(), chi.URLParam(r, "id")))
}

// ---------------------------------------------------------------------------
// Notifications, events, resync
// ---------------------------------------------------------------------------

func (h *Handler) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.service.MarkAllNotificationsRead(r.Context()))
}

func (h *Handler) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.service.DeleteNotification(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.service.ClearNotifications(r.Context()))
}

func (h *Handler) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	req, ok := httputil.Decode[eventRequest](w, r)
	if !ok {
		return
	}
	err := h.service.AddEvent(domain.EventType(req.Type), req.Message,
		domain.Severity(req.Severity), req.RelatedJobberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	// The append is fire-and-forget; accepted is all there is to say.
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	h.respond(w, h.service.DeleteEvent(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) handleResync(w http.ResponseWriter, r *http.Request) {
	h.service.Resync(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func (h *Handler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
