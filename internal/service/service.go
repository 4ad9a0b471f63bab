// Package service holds the catalog's use cases: account creation, login, the
// authorization gate and the book and author operations behind the GraphQL API.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/listenupapp/catalog-server/internal/auth"
	"github.com/listenupapp/catalog-server/internal/domain"
	domainerrors "github.com/listenupapp/catalog-server/internal/errors"
	"github.com/listenupapp/catalog-server/internal/store"
)

// requireUser returns the authenticated user or a NotAuthenticated error.
func requireUser(ctx context.Context) (*domain.User, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, domainerrors.NotAuthenticated("not authenticated")
	}
	return user, nil
}

// rejected converts a store rejection into InvalidInput carrying args. Any other
// failure is wrapped as Internal so the resolver logs it and hides the cause.
func rejected(err error, msg string, args map[string]any) error {
	if errors.Is(err, store.ErrAlreadyExists) || errors.Is(err, store.ErrInvalidInput) {
		return domainerrors.InvalidInput(msg, args).WithCause(err)
	}
	return internal(err, msg)
}

func internal(err error, msg string) error {
	return domainerrors.Wrap(err, domainerrors.CodeInternal, msg)
}

func internalf(err error, format string, args ...any) error {
	return internal(err, fmt.Sprintf(format, args...))
}
