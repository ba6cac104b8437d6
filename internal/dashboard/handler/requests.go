package handler

import (
	"axis/internal/datasync"
	"axis/internal/domain"
)

type updateProfileRequest struct {
	Handle        *string        `json:"handle"`
	Name          *string        `json:"name"`
	AvatarURL     *string        `json:"avatar_url"`
	Role          *string        `json:"role"`
	Status        *string        `json:"status"`
	TrustModifier *int           `json:"trust_modifier"`
	Justification *string        `json:"justification"`
	DynamicData   map[string]any `json:"dynamic_data"`
}

func (r updateProfileRequest) toUpdate() datasync.ProfileUpdate {
	u := datasync.ProfileUpdate{
		Handle:        r.Handle,
		Name:          r.Name,
		AvatarURL:     r.AvatarURL,
		TrustModifier: r.TrustModifier,
		Justification: r.Justification,
		DynamicData:   r.DynamicData,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		u.Role = &role
	}
	if r.Status != nil {
		status := domain.ProfileStatus(*r.Status)
		u.Status = &status
	}
	return u
}

type proofRequest struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Company     string `json:"company"`
	Description string `json:"description"`
	Niche       string `json:"niche"`
}

func (r proofRequest) toInput() datasync.ProofInput {
	return datasync.ProofInput{
		Title:       r.Title,
		Type:        r.Type,
		URL:         r.URL,
		Company:     r.Company,
		Description: r.Description,
		Niche:       r.Niche,
	}
}

type gradeRequest struct {
	Grade int `json:"grade"`
}

type projectRequest struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Price       string `json:"price"`
	Niche       string `json:"niche"`
	Description string `json:"description"`
}

func (r projectRequest) toInput() datasync.ProjectInput {
	return datasync.ProjectInput{
		Title:       r.Title,
		Link:        r.Link,
		Price:       r.Price,
		Niche:       r.Niche,
		Description: r.Description,
	}
}

type updateProjectRequest struct {
	Title       *string `json:"title"`
	Link        *string `json:"link"`
	Price       *string `json:"price"`
	Niche       *string `json:"niche"`
	Description *string `json:"description"`
}

func (r updateProjectRequest) toUpdate() datasync.ProjectUpdate {
	return datasync.ProjectUpdate{
		Title:       r.Title,
		Link:        r.Link,
		Price:       r.Price,
		Niche:       r.Niche,
		Description: r.Description,
	}
}

type broadcastRequest struct {
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

type eventRequest struct {
	Type            string `json:"type"`
	Message         string `json:"message"`
	Severity        string `json:"severity"`
	RelatedJobberID string `json:"related_jobber_id"`
}
