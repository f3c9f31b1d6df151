// Package api serves the maintenance workflow over HTTP/JSON.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/identity"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application"
	"github.com/felixgeelhaar/upkeep/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
)

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *MaintenanceHandler
	health  *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Coordinator *application.Coordinator
	Resolver    identity.Resolver
	// Limiter is optional. Without it requests are not rate limited.
	Limiter  *limiter.Limiter
	Health   *observability.HealthRegistry
	Gatherer prometheus.Gatherer
	// Location interprets the from/to dates of availability queries.
	Location *time.Location
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Resolver == nil {
		deps.Resolver = identity.NewHeaderResolver()
	}
	if deps.Health == nil {
		deps.Health = observability.NewHealthRegistry()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		handler: NewMaintenanceHandler(deps.Coordinator, deps.Location, logger),
		health:  deps.Health,
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	s.mux.Handle("/api/", chain(s.apiRoutes(),
		authenticate(deps.Resolver),
		rateLimit(deps.Limiter, logger),
	))

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      chain(s.mux, correlate, logRequests(logger)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) apiRoutes() http.Handler {
	mux := http.NewServeMux()
	h := s.handler

	mux.HandleFunc("POST /api/v1/maintenance-requests", h.Create)
	mux.HandleFunc("GET /api/v1/maintenance-requests", h.ListAll)
	mux.HandleFunc("GET /api/v1/maintenance-requests/mine", h.ListMine)
	mux.HandleFunc("GET /api/v1/maintenance-requests/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/maintenance-requests/{id}/changes", h.ChangeLog)
	mux.HandleFunc("PATCH /api/v1/maintenance-requests/{id}/review", h.FactoryReview)
	mux.HandleFunc("POST /api/v1/maintenance-requests/{id}/approve", h.UserApprove)
	mux.HandleFunc("POST /api/v1/maintenance-requests/{id}/reschedule", h.Reschedule)
	mux.HandleFunc("DELETE /api/v1/maintenance-requests/{id}", h.Cancel)

	mux.HandleFunc("GET /api/v1/availability", h.Availability)
	return mux
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.health.Check(r.Context())
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting upkeep API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down upkeep API server")
	return s.server.Shutdown(ctx)
}
