// Package errors defines the code-carrying error envelope shared by the sync
// layer and the HTTP transport. Codes classify failures by what the caller can
// do about them, not by where they happened.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	// CodeValidation marks malformed input rejected before any I/O. Always
	// recoverable by the caller correcting the input.
	CodeValidation Code = "validation_failure"
	// CodeRemoteWrite marks a write the remote store rejected or timed out.
	// The local cache is untouched; the caller decides retry/abort.
	CodeRemoteWrite Code = "remote_write_failure"
	// CodeRemoteRead marks a failed read or resync fetch. The previous cache
	// snapshot for the affected collection is retained.
	CodeRemoteRead Code = "remote_read_failure"
	// CodeLogWrite marks a failed audit append. Diagnostic only, never
	// surfaced to mutation callers.
	CodeLogWrite Code = "log_write_failure"

	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal"
)

// Error couples a Code with a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the Code from err, unwrapping as needed. Unclassified
// errors report CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// ToHTTPStatus maps error codes to HTTP statuses for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRemoteWrite, CodeRemoteRead:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
