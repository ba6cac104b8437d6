package datasync

import (
	"fmt"

	"axis/internal/domain"
	"axis/internal/remote"
	pkgerrors "axis/pkg/errors"
)

// Inputs validate structural constraints before any I/O. A violating input
// fails the operation without contacting the remote store.

// ProfileUpdate is a partial profile mutation. Nil fields are untouched.
// Score and rank are deliberately absent: they only change through grading.
type ProfileUpdate struct {
	Handle        *string
	Name          *string
	AvatarURL     *string
	Role          *domain.Role
	Status        *domain.ProfileStatus
	TrustModifier *int
	Justification *string
	DynamicData   map[string]any
}

var validRoles = map[domain.Role]bool{
	domain.RoleSuperAdmin: true,
	domain.RoleAdmin:      true,
	domain.RoleJobber:     true,
}

var validStatuses = map[domain.ProfileStatus]bool{
	domain.StatusActive:    true,
	domain.StatusProbation: true,
	domain.StatusSuspended: true,
}

func (u ProfileUpdate) patch() (remote.Patch, error) {
	patch := remote.Patch{}
	if u.Handle != nil {
		patch["handle"] = *u.Handle
	}
	if u.Name != nil {
		patch["name"] = *u.Name
	}
	if u.AvatarURL != nil {
		patch["avatar_url"] = *u.AvatarURL
	}
	if u.Role != nil {
		if !validRoles[*u.Role] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", *u.Role))
		}
		patch["role"] = *u.Role
	}
	if u.Status != nil {
		if !validStatuses[*u.Status] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", *u.Status))
		}
		patch["status"] = *u.Status
	}
	if u.TrustModifier != nil {
		if *u.TrustModifier < domain.TrustModifierMin || *u.TrustModifier > domain.TrustModifierMax {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("trust_modifier %d outside [%d,%d]", *u.TrustModifier, domain.TrustModifierMin, domain.TrustModifierMax))
		}
		patch["trust_modifier"] = *u.TrustModifier
	}
	if u.Justification != nil {
		patch["justification"] = *u.Justification
	}
	if u.DynamicData != nil {
		patch["dynamic_data"] = u.DynamicData
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty profile update")
	}
	return patch, nil
}

// ProofInput describes a new proof submission.
type ProofInput struct {
	Title       string
	Type        string
	URL         string
	Company     string
	Description string
	Niche       string
}

func (in ProofInput) validate() error {
	if in.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "proof title is required")
	}
	return nil
}

// ProjectInput describes a new campaign.
type ProjectInput struct {
	Title       string
	Link        string
	Price       string
	Niche       string
	Description string
}

func (in ProjectInput) validate() error {
	if in.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "project title is required")
	}
	return nil
}

// ProjectUpdate is a partial project mutation.
type ProjectUpdate struct {
	Title       *string
	Link        *string
	Price       *string
	Niche       *string
	Description *string
}

func (u ProjectUpdate) patch() (remote.Patch, error) {
	patch := remote.Patch{}
	if u.Title != nil {
		if *u.Title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "project title must not be empty")
		}
		patch["title"] = *u.Title
	}
	if u.Link != nil {
		patch["link"] = *u.Link
	}
	if u.Price != nil {
		patch["price"] = *u.Price
	}
	if u.Niche != nil {
		patch["niche"] = *u.Niche
	}
	if u.Description != nil {
		patch["description"] = *u.Description
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty project update")
	}
	return patch, nil
}

var validPriorities = map[domain.BroadcastPriority]bool{
	domain.PriorityNormal: true,
	domain.PriorityUrgent: true,
}

var validEventTypes = map[domain.EventType]bool{
	domain.EventSubmission:  true,
	domain.EventAlert:       true,
	domain.EventGradeChange: true,
}

var validSeverities = map[domain.Severity]bool{
	domain.SeverityLow:    true,
	domain.SeverityMedium: true,
	domain.SeverityHigh:   true,
}
