package testutil

import (
	"net/http"

	"axis/internal/domain"
	"axis/internal/identity"
)

// WithUser installs a principal on the request context, simulating what the
// auth middleware does for authenticated requests.
func WithUser(req *http.Request, user identity.User) *http.Request {
	return req.WithContext(identity.WithUser(req.Context(), user))
}

// WithAdmin installs an administrator principal with the given ID.
func WithAdmin(req *http.Request, userID string) *http.Request {
	return WithUser(req, identity.User{ID: userID, Role: domain.RoleAdmin})
}

// WithJobber installs a jobber principal with the given ID.
func WithJobber(req *http.Request, userID string) *http.Request {
	return WithUser(req, identity.User{ID: userID, Role: domain.RoleJobber})
}
