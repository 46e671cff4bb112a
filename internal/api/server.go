// Package api provides the HTTP API server and handlers for the Pagewise service.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagewise/pagewise-server/internal/http/response"
	"github.com/pagewise/pagewise-server/internal/ratelimit"
	"github.com/pagewise/pagewise-server/internal/recommend"
	"github.com/pagewise/pagewise-server/internal/service"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Services holds the request-level services behind the handlers.
type Services struct {
	Search    *service.SearchService
	Book      *service.BookService
	History   *service.HistoryService
	Login     *service.LoginService
	Recommend *recommend.Engine
}

// Pinger is a dependency whose liveness is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	LoginLimiter   *ratelimit.KeyedRateLimiter // nil disables login rate limiting
	Health         map[string]Pinger           // component name to check
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	opts     Options
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		services: services,
		opts:     opts,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Pagewise API", Version)
	// Response bodies are consumed by existing clients; no $schema links.
	humaConfig.CreateHooks = nil
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(requestID)
	s.router.Use(s.recoverer)
	s.router.Use(s.accessLog)
	s.router.Use(instrument)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if s.opts.LoginLimiter != nil {
		s.router.Use(limitRoute(http.MethodPost, "/login", RateLimitMiddleware(s.opts.LoginLimiter, s.logger)))
	}

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not found", s.logger)
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.registerHealthRoutes()
	s.registerSearchRoutes()
	s.registerBookRoutes()
	s.registerHistoryRoutes()
	s.registerRecommendationRoutes()
	s.registerLoginRoutes()
}
