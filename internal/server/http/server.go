// Package httpserver provides the HTTP transport for the PubMed MCP server:
// a liveness probe, the MCP streamable HTTP endpoint and Prometheus metrics.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HealthPath is the liveness endpoint.
const HealthPath = "/health"

// Server is the HTTP server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	mcpHandler http.Handler
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MCPPath is where the MCP handler is mounted.
	MCPPath string

	// MetricsEnabled exposes promhttp.Handler at MetricsPath.
	MetricsEnabled bool
	MetricsPath    string
}

// NewServer creates a new HTTP server. mcpHandler may be nil, in which case
// only the health and metrics endpoints are served.
func NewServer(cfg Config, mcpHandler http.Handler, logger zerolog.Logger) *Server {
	if cfg.MCPPath == "" {
		cfg.MCPPath = "/mcp"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		config:     cfg,
		mcpHandler: mcpHandler,
		logger:     logger.With().Str("component", "http-server").Logger(),
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
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(requestLogMiddleware(s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Liveness
	r.Get(HealthPath, healthHandler)
	r.Head(HealthPath, healthHandler)

	if s.config.MetricsEnabled {
		r.Handle(s.config.MetricsPath, promhttp.Handler())
	}

	if s.mcpHandler != nil {
		r.Handle(s.config.MCPPath, s.mcpHandler)
	}

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server. In-flight requests get at
// most ShutdownTimeout to finish when it is set.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler reports liveness. It does not probe E-utilities.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeText(w, r, http.StatusOK, "ok")
}
