// Package httpserver provides the HTTP API of the research timeline service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/observability"
)

// TimelineBuilder produces a timeline for a query.
type TimelineBuilder interface {
	Run(ctx context.Context, query string) (*domain.Timeline, error)
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	builder    TimelineBuilder
	validate   *validator.Validate
	origins    []string
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, builder TimelineBuilder, logger zerolog.Logger) *Server {
	s := &Server{
		builder:  builder,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		origins:  cfg.AllowedOrigins,
		logger:   observability.WithComponent(logger, "http-server"),
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
	r.Use(requestLoggerMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(corsMiddleware(s.origins))
	r.Use(jsonContentTypeMiddleware)

	r.Get("/healthz", s.healthzHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.healthHandler)
		r.Get("/query", s.queryTimeline)
	})

	return r
}

// Handler returns the root handler.
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

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthzHandler returns basic liveness status.
func (s *Server) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
