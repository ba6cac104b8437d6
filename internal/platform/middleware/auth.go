package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"axis/internal/identity"
	pkgerrors "axis/pkg/errors"
	"axis/pkg/platform/httputil"
)

// TokenValidator turns a bearer token into an authenticated principal.
type TokenValidator interface {
	ValidateToken(tokenString string) (identity.User, error)
}

// RequireAuth rejects requests without a valid bearer token and installs the
// principal into the request context for the layers below.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			user, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUser(ctx, user)))
		})
	}
}

// StaticAuth installs a fixed principal; demo mode runs without a token
// issuer.
func StaticAuth(user identity.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
		})
	}
}
