// Package api provides the HTTP server for the catalog: GraphQL over HTTP,
// the Playground, the SDL download and a health check.
package api

import (
	"log/slog"
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"github.com/listenupapp/catalog-server/internal/graph"
	"github.com/listenupapp/catalog-server/internal/ratelimit"
	"github.com/listenupapp/catalog-server/internal/service"
)

const (
	apiVersion     = "1.0.0"
	maxRequestSize = 1 << 20
)

// Config holds the HTTP-facing options.
type Config struct {
	AllowedOrigins []string
	Playground     bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	schema      *graphql.Schema
	authService *service.AuthService
	store       Pinger
	limiter     *ratelimit.KeyedRateLimiter
	router      *chi.Mux
	api         huma.API
	config      Config
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	schema *graphql.Schema,
	authService *service.AuthService,
	store Pinger,
	limiter *ratelimit.KeyedRateLimiter,
	cfg Config,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	s := &Server{
		schema:      schema,
		authService: authService,
		store:       store,
		limiter:     limiter,
		router:      router,
		config:      cfg,
		logger:      logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Catalog API", apiVersion)
	humaConfig.Info.Description = "REST companion to the GraphQL endpoint"
	s.api = humachi.New(router, humaConfig)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()

	s.router.Route("/graphql", func(r chi.Router) {
		r.With(
			s.rateLimit,
			middleware.RequestSize(maxRequestSize),
			s.authContext,
		).Post("/", (&relay.Handler{Schema: s.schema}).ServeHTTP)

		if s.config.Playground {
			r.Get("/", playground.Handler("Catalog", "/graphql"))
		}

		r.Get("/schema", s.handleSchema)
	})
}

// handleSchema serves the SDL.
func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/graphql; charset=utf-8")
	if _, err := w.Write([]byte(graph.SDL)); err != nil {
		s.logger.Error("Failed to write schema", "error", err)
	}
}
