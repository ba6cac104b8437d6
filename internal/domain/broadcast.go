package domain

import "time"

// BroadcastPriority controls how prominently a directive is surfaced.
type BroadcastPriority string

const (
	PriorityNormal BroadcastPriority = "normal"
	PriorityUrgent BroadcastPriority = "urgent"
)

// Broadcast is an administrator-authored directive pushed to all users.
type Broadcast struct {
	ID        string            `json:"id"`
	Message   string            `json:"message"`
	Priority  BroadcastPriority `json:"priority"`
	AuthorID  string            `json:"author_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
