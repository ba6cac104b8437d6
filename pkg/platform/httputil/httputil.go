// Package httputil holds the JSON response helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "axis/pkg/errors"
)

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status. Encoding failures are ignored;
// by the time they can happen the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a classified error into its HTTP shape. Internal
// errors keep their description out of the response body.
func WriteError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != pkgerrors.CodeInternal {
		var e *pkgerrors.Error
		if errors.As(err, &e) {
			body.ErrorDescription = e.Message
		}
	}
	WriteJSON(w, pkgerrors.ToHTTPStatus(code), body)
}

// Decode reads a JSON request body into T, answering a validation error on
// malformed input.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		WriteError(w, pkgerrors.New(pkgerrors.CodeValidation, "invalid request body"))
		return v, false
	}
	return v, true
}
