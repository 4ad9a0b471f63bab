package auth

import (
	"context"

	"github.com/listenupapp/catalog-server/internal/domain"
)

type contextKey struct{}

// WithUser returns a context carrying the authenticated user.
// A nil user marks the request as anonymous.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(contextKey{}).(*domain.User)
	return user
}
