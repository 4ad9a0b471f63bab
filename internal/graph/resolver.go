package graph

import (
	"log/slog"

	"github.com/listenupapp/catalog-server/internal/service"
)

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	auth    *service.AuthService
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewResolver creates the root resolver.
func NewResolver(auth *service.AuthService, catalog *service.CatalogService, logger *slog.Logger) *Resolver {
	return &Resolver{
		auth:    auth,
		catalog: catalog,
		logger:  logger,
	}
}
