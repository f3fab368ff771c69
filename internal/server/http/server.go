// Package httpserver provides the HTTP REST API server for the scientist search service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/scientist-search-service/internal/domain"
	"github.com/helixir/scientist-search-service/internal/observability"
)

// Searcher runs searches on behalf of the HTTP handlers.
type Searcher interface {
	SearchScientists(ctx context.Context, req domain.SearchRequest) (*domain.PaginatedResponse[domain.ScientistSearchResult], error)
	SearchArticlesPage(ctx context.Context, req domain.SearchRequest) (*domain.PaginatedResponse[domain.Document], error)
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	searcher   Searcher
	validate   *validator.Validate
	limits     searchLimits
	logger     zerolog.Logger
	metrics    *observability.Metrics
	draining   atomic.Bool

	shutdownTimeout time.Duration
}

// Config holds HTTP server configuration.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ShutdownTimeout bounds how long Shutdown waits for in-flight requests.
	// Zero leaves the bound to the caller's context.
	ShutdownTimeout time.Duration

	// DefaultLimit is the page size used when a request gives none.
	DefaultLimit int
	// MaxLimit is the largest page size a request may ask for.
	MaxLimit int
}

type searchLimits struct {
	defaultLimit int
	maxLimit     int
}

// NewServer creates a new HTTP server with all dependencies.
// The metrics parameter may be nil.
func NewServer(cfg Config, searcher Searcher, logger zerolog.Logger, metrics *observability.Metrics) *Server {
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = min(10, cfg.MaxLimit)
	}

	s := &Server{
		searcher: searcher,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		limits: searchLimits{
			defaultLimit: cfg.DefaultLimit,
			maxLimit:     cfg.MaxLimit,
		},
		logger:          logger.With().Str("component", "http-server").Logger(),
		metrics:         metrics,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Get("/scientists/search", s.searchScientists)
	r.Get("/articles/search", s.searchArticles)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server. Readiness reports not ready
// from the moment shutdown begins.
func (s *Server) Shutdown(ctx context.Context) error {
	s.draining.Store(true)
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports whether the server accepts new searches.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
