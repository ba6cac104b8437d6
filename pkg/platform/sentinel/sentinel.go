package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Remote store implementations
// return these (optionally wrapped) so the sync layer can translate them into
// coded errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the remote store
// - ErrConflict: write rejected because of concurrent modification
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: remote store or push channel temporarily unreachable
//
// For validation errors (bad input, out-of-range scores), use pkg/errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
