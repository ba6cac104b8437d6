// Package audit is the append-only, best-effort event log. Appends never
// block the mutation that triggered them and their failures are diagnostics,
// not errors: the triggering operation's outcome is independent of the log
// write's outcome.
package audit

import "axis/internal/domain"

// Entry is emitted from the mutation coordinator to capture a key action.
// Keep it transport-agnostic so stores and sinks can fan out.
type Entry struct {
	Type            domain.EventType
	Message         string
	Severity        domain.Severity
	RelatedJobberID string
}

func (e Entry) toEvent() domain.SystemEvent {
	return domain.SystemEvent{
		Type:            e.Type,
		Message:         e.Message,
		Severity:        e.Severity,
		RelatedJobberID: e.RelatedJobberID,
	}
}
