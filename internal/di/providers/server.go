package providers

import (
	"context"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/listenupapp/catalog-server/internal/api"
	"github.com/listenupapp/catalog-server/internal/config"
	"github.com/listenupapp/catalog-server/internal/graph"
	"github.com/listenupapp/catalog-server/internal/logger"
	"github.com/listenupapp/catalog-server/internal/ratelimit"
	"github.com/listenupapp/catalog-server/internal/service"
)

// RateLimiterHandle wraps the per-client limiter so its cleanup goroutine stops on shutdown.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the /graphql rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}, nil
}

// ProvideGraphQLSchema parses the SDL and binds it to the resolvers.
func ProvideGraphQLSchema(i do.Injector) (*graphql.Schema, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authService := do.MustInvoke[*service.AuthService](i)
	catalogHandle := do.MustInvoke[*CatalogServiceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	resolver := graph.NewResolver(authService, catalogHandle.CatalogService, log.Logger)
	return graph.NewSchema(resolver, graph.Options{MaxDepth: cfg.GraphQL.MaxDepth})
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	authService := do.MustInvoke[*service.AuthService](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)
	schema := do.MustInvoke[*graphql.Schema](i)
	log := do.MustInvoke[*logger.Logger](i)

	handler := api.NewServer(schema, authService, storeHandle, limiterHandle.KeyedRateLimiter, api.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Playground:     cfg.GraphQL.Playground,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running",
		"addr", srv.Addr,
		"graphql", "/graphql",
		"playground", cfg.GraphQL.Playground,
	)

	return &HTTPServerHandle{Server: srv}, nil
}
