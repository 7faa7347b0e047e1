// Package core provides the API chassis for the skylog service.
// It creates a chi router and enforces cross-cutting concerns -- security,
// logging, and error handling -- before requests reach domain-specific
// handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skylog/internal/config"
)

// RouteRegistrar registers a group of domain handler routes on a chi router.
// Registrars are populated by the application entry point (main.go); this
// indirection avoids import cycles between core and handler packages.
type RouteRegistrar func(chi.Router)

// Server encapsulates all dependencies for the skylog API, allowing for easy
// injection during testing and distinct configuration for different
// environments.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator

	// HealthProbes are the critical subsystems checked by GET /health.
	HealthProbes []HealthProbe

	// APIRouteRegistrars register domain handler routes under /api.
	APIRouteRegistrars []RouteRegistrar

	// Internal router
	router *chi.Mux
}

// NewServer initializes dependencies, sets up the router, and prepares the
// server for route mounting. It performs a "fail-fast" check on critical
// configuration.
//
// The caller is responsible for mounting routes (via MountRoutes) after
// construction. This separation allows tests to customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}

	return s, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
// This is used internally by route-mounting methods and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server resources. Database
// pools are owned and closed by the entry point, so this currently only
// records the lifecycle event.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")
	s.Logger.Info("server shutdown complete")
	return nil
}
