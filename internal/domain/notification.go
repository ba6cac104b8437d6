package domain

import "time"

// Notification is a per-user in-app message. The mirror only ever holds the
// current user's notifications.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Message   string         `json:"message"`
	Type      string         `json:"type,omitempty"`
	IsRead    bool           `json:"is_read"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
