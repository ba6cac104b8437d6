package datasync

import (
	"context"
	"fmt"

	"axis/internal/audit"
	"axis/internal/domain"
	"axis/internal/remote"
	"axis/internal/reputation"
	pkgerrors "axis/pkg/errors"
)

// writeErr classifies a failed remote write. The mirror is untouched by then;
// the caller owns user-facing retry/abort.
func writeErr(op string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeRemoteWrite, op, err)
}

// UpdateProfile applies a partial update and mirrors the confirmed row.
func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (err error) {
	defer func() { s.metrics.ObserveMutation("update_profile", err) }()

	patch, err := update.patch()
	if err != nil {
		return err
	}
	confirmed, err := s.store.UpdateProfile(ctx, id, patch)
	if err != nil {
		return writeErr("update profile", err)
	}
	s.mirror.Profiles.PatchOne(id, func(domain.Profile) domain.Profile { return confirmed })
	return nil
}

// DeleteProfile purges a profile from the remote store and the mirror.
func (s *Service) DeleteProfile(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.ObserveMutation("delete_profile", err) }()

	if err := s.store.DeleteProfile(ctx, id); err != nil {
		return writeErr("delete profile", err)
	}
	s.mirror.Profiles.RemoveOne(id)
	return nil
}

// GradeProof applies a manual 1-5 grade: the proof is marked scored, then the
// profile's cumulative score and derived rank are written in one update.
func (s *Service) GradeProof(ctx context.Context, profileID, proofID string, grade int) (err error) {
	defer func() { s.metrics.ObserveMutation("grade_proof", err) }()

	if !reputation.ValidGrade(grade) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("grade %d outside [%d,%d]", grade, reputation.GradeMin, reputation.GradeMax))
	}

	if _, err := s.store.UpdateProof(ctx, proofID, remote.Patch{
		"admin_score": grade,
		"status":      domain.ProofScored,
	}); err != nil {
		return writeErr("score proof", err)
	}

	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteRead, "load profile for grading", err)
	}

	newScore, newRank := reputation.ApplyGrade(profile.ATISScore, grade)
	if _, err := s.store.UpdateProfile(ctx, profileID, remote.Patch{
		"atis_score": newScore,
		"rank":       newRank,
	}); err != nil {
		return writeErr("apply grade to profile", err)
	}

	s.log.Emit(audit.Entry{
		Type:            domain.EventGradeChange,
		Message:         fmt.Sprintf("Manual grade %d/5 applied", grade),
		Severity:        domain.SeverityMedium,
		RelatedJobberID: profileID,
	})

	return s.RefreshProfile(ctx, profileID)
}

// SubmitProof records a new evidence-of-work item under a profile.
func (s *Service) SubmitProof(ctx context.Context, profileID string, input ProofInput) (err error) {
	defer func() { s.metrics.ObserveMutation("submit_proof", err) }()

	if err := input.validate(); err != nil {
		return err
	}
	if _, err := s.store.InsertProof(ctx, domain.Proof{
		JobberID:    profileID,
		Title:       input.Title,
		Type:        input.Type,
		URL:         input.URL,
		Company:     input.Company,
		Description: input.Description,
		Niche:       input.Niche,
		Status:      domain.ProofPending,
	}); err != nil {
		return writeErr("submit proof", err)
	}

	s.log.Emit(audit.Entry{
		Type:            domain.EventSubmission,
		Message:         "Proof submitted: " + input.Title,
		Severity:        domain.SeverityLow,
		RelatedJobberID: profileID,
	})

	return s.RefreshProfile(ctx, profileID)
}

// DeleteProof removes a proof everywhere it is embedded.
func (s *Service) DeleteProof(ctx context.Context, proofID string) (err error) {
	defer func() { s.metrics.ObserveMutation("delete_proof", err) }()

	if err := s.store.DeleteProof(ctx, proofID); err != nil {
		return writeErr("delete proof", err)
	}
	s.mirror.Profiles.PatchAll(func(p domain.Profile) domain.Profile {
		// Fresh slice: the cached one's backing array is shared with every
		// snapshot already handed to readers.
		kept := make([]domain.Proof, 0, len(p.Proofs))
		for _, pr := range p.Proofs {
			if pr.ID != proofID {
				kept = append(kept, pr)
			}
		}
		p.Proofs = kept
		return p
	})

	s.log.Emit(audit.Entry{
		Type:     domain.EventAlert,
		Message:  "Proof record expunged",
		Severity: domain.SeverityHigh,
	})
	return nil
}

// CreateProject starts a campaign attributed to the current user.
func (s *Service) CreateProject(ctx context.Context, input ProjectInput) (err error) {
	defer func() { s.metrics.ObserveMutation("create_project", err) }()

	if err := input.validate(); err != nil {
		return err
	}
	project := domain.Project{
		Title:       input.Title,
		Link:        input.Link,
		Price:       input.Price,
		Niche:       input.Niche,
		Description: input.Description,
	}
	if user, err := s.identity.Current(ctx); err == nil {
		project.CreatedBy = user.ID
	}

	confirmed, err := s.store.InsertProject(ctx, project)
	if err != nil {
		return writeErr("create project", err)
	}
	s.mirror.Projects.InsertTop(confirmed)

	s.log.Emit(audit.Entry{
		Type:     domain.EventAlert,
		Message:  "New campaign initialized: " + confirmed.Title,
		Severity: domain.SeverityMedium,
	})
	return nil
}

// UpdateProject applies a partial update and mirrors the confirmed row.
func (s *Service) UpdateProject(ctx context.Context, id string, update ProjectUpdate) (err error) {
	defer func() { s.metrics.ObserveMutation("update_project", err) }()

	patch, err := update.patch()
	if err != nil {
		return err
	}
	confirmed, err := s.store.UpdateProject(ctx, id, patch)
	if err != nil {
		return writeErr("update project", err)
	}
	s.mirror.Projects.PatchOne(id, func(domain.Project) domain.Project { return confirmed })

	s.log.Emit(audit.Entry{
		Type:     domain.EventAlert,
		Message:  "Campaign modified: " + confirmed.Title,
		Severity: domain.SeverityLow,
	})
	return nil
}

// DeleteProject purges a campaign.
func (s *Service) DeleteProject(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.ObserveMutation("delete_project", err) }()

	title := id
	if cached, ok := s.mirror.Projects.Get(id); ok {
		title = cached.Title
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return writeErr("delete project", err)
	}
	s.mirror.Projects.RemoveOne(id)

	s.log.Emit(audit.Entry{
		Type:     domain.EventAlert,
		Message:  "Campaign purged: " + title,
		Severity: domain.SeverityHigh,
	})
	return nil
}

// CreateBroadcast issues a directive to all users.
func (s *Service) CreateBroadcast(ctx context.Context, message string, priority domain.BroadcastPriority) (err error) {
	defer func() { s.metrics.ObserveMutation("create_broadcast", err) }()

	if message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "broadcast message is required")
	}
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !validPriorities[priority] {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid priority %q", priority))
	}

	broadcast := domain.Broadcast{Message: message, Priority: priority}
	if user, err := s.identity.Current(ctx); err == nil {
		broadcast.AuthorID = user.ID
	}

	confirmed, err := s.store.InsertBroadcast(ctx, broadcast)
	if err != nil {
		return writeErr("create broadcast", err)
	}
	s.mirror.Broadcasts.InsertTop(confirmed)

	s.log.Emit(audit.Entry{
		Type:     domain.EventAlert,
		Message:  "Global directive issued: " + truncate(message, 20),
		Severity: domain.SeverityHigh,
	})
	return nil
}

// DeleteBroadcast withdraws a directive.
func (s *Service) DeleteBroadcast(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.ObserveMutation("delete_broadcast", err) }()

	if err := s.store.DeleteBroadcast(ctx, id); err != nil {
		return writeErr("delete broadcast", err)
	}
	s.mirror.Broadcasts.RemoveOne(id)
	return nil
}

// MarkAllNotificationsRead flips the current user's notifications to read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context) (err error) {
	defer func() { s.metrics.ObserveMutation("mark_notifications_read", err) }()

	user, err := s.identity.Current(ctx)
	if err != nil {
		return err
	}
	if err := s.store.MarkNotificationsRead(ctx, user.ID); err != nil {
		return writeErr("mark notifications read", err)
	}
	s.mirror.Notifications.PatchAll(func(n domain.Notification) domain.Notification {
		if n.UserID == user.ID {
			n.IsRead = true
		}
		return n
	})
	return nil
}

// DeleteNotification removes a single notification.
func (s *Service) DeleteNotification(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.ObserveMutation("delete_notification", err) }()

	if err := s.store.DeleteNotification(ctx, id); err != nil {
		return writeErr("delete notification", err)
	}
	s.mirror.Notifications.RemoveOne(id)
	return nil
}

// ClearNotifications removes all of the current user's notifications.
func (s *Service) ClearNotifications(ctx context.Context) (err error) {
	defer func() { s.metrics.ObserveMutation("clear_notifications", err) }()

	user, err := s.identity.Current(ctx)
	if err != nil {
		return err
	}
	if err := s.store.ClearNotifications(ctx, user.ID); err != nil {
		return writeErr("clear notifications", err)
	}
	s.mirror.Notifications.Filter(func(n domain.Notification) bool {
		return n.UserID != user.ID
	})
	return nil
}

// AddEvent enqueues a log entry without blocking. The append happens in the
// background worker; its failure never reaches this caller.
func (s *Service) AddEvent(eventType domain.EventType, message string, severity domain.Severity, relatedJobberID string) error {
	if !validEventTypes[eventType] {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid event type %q", eventType))
	}
	if !validSeverities[severity] {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid severity %q", severity))
	}
	s.log.Emit(audit.Entry{
		Type:            eventType,
		Message:         message,
		Severity:        severity,
		RelatedJobberID: relatedJobberID,
	})
	return nil
}

// DeleteEvent removes an event from the trail.
func (s *Service) DeleteEvent(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.ObserveMutation("delete_event", err) }()

	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return writeErr("delete event", err)
	}
	s.mirror.Events.RemoveOne(id)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
