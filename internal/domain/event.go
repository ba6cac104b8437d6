package domain

import "time"

// EventType classifies system events by the action that produced them.
type EventType string

const (
	EventSubmission  EventType = "submission"
	EventAlert       EventType = "alert"
	EventGradeChange EventType = "grade_change"
)

// Severity grades how urgently an event needs operator attention.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// EventReadLimit caps how many events the read path returns, newest first.
const EventReadLimit = 500

// SystemEvent is an append-only audit trail entry. Events are created by the
// audit pipeline and removed only by explicit delete.
type SystemEvent struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	Message         string    `json:"message"`
	Severity        Severity  `json:"severity"`
	RelatedJobberID string    `json:"related_jobber_id,omitempty"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}
