// Package identity supplies the current user synchronously for cache scoping
// (notification filtering) and for attributing authored entities. Session
// issuance lives outside this system; only verification happens here.
package identity

import (
	"context"

	"axis/internal/domain"
	pkgerrors "axis/pkg/errors"
)

// User is the authenticated principal as the sync layer sees it.
type User struct {
	ID   string
	Role domain.Role
}

// Provider yields the current user for the given context.
type Provider interface {
	Current(ctx context.Context) (User, error)
}

type contextKeyUser struct{}

// ContextKeyUser is where the auth middleware installs the principal.
var ContextKeyUser = contextKeyUser{}

// WithUser returns a context carrying the principal.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, ContextKeyUser, user)
}

// ContextProvider reads the principal the auth middleware installed.
type ContextProvider struct{}

func (ContextProvider) Current(ctx context.Context) (User, error) {
	user, ok := ctx.Value(ContextKeyUser).(User)
	if !ok || user.ID == "" {
		return User{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "no authenticated user")
	}
	return user, nil
}

// Static always answers with a fixed user. Demo mode and tests use it.
type Static struct {
	User User
}

func (s Static) Current(context.Context) (User, error) {
	return s.User, nil
}
