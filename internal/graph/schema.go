// Package graph exposes the catalog over GraphQL: the embedded SDL, its
// resolvers and the mapping of domain errors onto GraphQL errors.
package graph

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	graphql "github.com/graph-gophers/graphql-go"
)

// SDL is the schema served at /graphql.
//
//go:embed schema.graphqls
var SDL string

// Options tune schema execution.
type Options struct {
	// MaxDepth rejects queries nested deeper than this. Zero disables the check.
	MaxDepth int
}

// NewSchema parses SDL and binds it to root.
func NewSchema(root *Resolver, opts Options) (*graphql.Schema, error) {
	schemaOpts := []graphql.SchemaOpt{
		graphql.UseStringDescriptions(),
		graphql.Logger(&panicLogger{logger: root.logger}),
	}
	if opts.MaxDepth > 0 {
		schemaOpts = append(schemaOpts, graphql.MaxDepth(opts.MaxDepth))
	}

	schema, err := graphql.ParseSchema(SDL, root, schemaOpts...)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return schema, nil
}

// panicLogger records resolver panics; graphql-go turns them into field errors.
type panicLogger struct {
	logger *slog.Logger
}

func (l *panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.logger.ErrorContext(ctx, "panic while resolving GraphQL field", slog.Any("panic", value))
}
