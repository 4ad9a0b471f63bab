package graph

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "github.com/listenupapp/catalog-server/internal/errors"
)

// gqlError is what a resolver hands back to graphql-go: the domain message
// without its cause, plus the extensions object.
type gqlError struct {
	message    string
	extensions map[string]interface{}
}

func (e *gqlError) Error() string { return e.message }

// Extensions is picked up by graphql-go and rendered under "extensions".
func (e *gqlError) Extensions() map[string]interface{} { return e.extensions }

// present maps err to a client-facing error. Domain errors keep their message
// and code; anything else is logged and reported as an internal error.
func (r *Resolver) present(ctx context.Context, err error) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) && domainErr.Code != domainerrors.CodeInternal {
		return &gqlError{message: domainErr.Message, extensions: domainErr.Extensions()}
	}

	r.logger.ErrorContext(ctx, "GraphQL resolver failed", slog.String("error", err.Error()))
	return &gqlError{
		message:    "internal server error",
		extensions: map[string]interface{}{"code": string(domainerrors.CodeInternal)},
	}
}
