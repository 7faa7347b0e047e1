package core

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"skylog/internal/types"
)

// defaultRequestTimeout is the soft timeout applied to request contexts when
// no explicit RequestTimeout is configured.
const defaultRequestTimeout = 29 * time.Second

// defaultRedactedHeaders lists header names whose values are masked in request
// logs to prevent accidental leakage of credentials or session tokens.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
}

// MountRoutes defines the top-level routing hierarchy.
// It registers the global middleware chain, the /api route group, and the
// top-level routes (service index, health check).
func (s *Server) MountRoutes() {
	// Global Middleware Registration (strict order matters).
	s.registerGlobalMiddleware()

	// Domain handler routes live under /api.
	s.router.Route("/api", s.mountAPI)

	// Top-Level Routes (outside /api namespace)
	s.router.Get("/", s.HandleIndex)
	s.router.Get("/health", s.HandleHealth)

	// Unknown routes get a JSON envelope instead of the default text body.
	s.router.NotFound(s.HandleNotFound)
}

// registerGlobalMiddleware applies middleware in strict order.
//
// Ordering Rationale:
//  1. Recoverer          - Catches panics; outermost to catch all failures.
//  2. ContextTimeout     - Sets soft deadline on every request.
//  3. RequestID          - Generates/propagates correlation ID for tracing.
//  4. SecurityHeaders    - Ensures all responses include security headers.
//  5. RequestLogger      - Structured logging (redacted headers).
//  6. CORS               - Browser security headers.
func (s *Server) registerGlobalMiddleware() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.requestTimeout()))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(NewCORSMiddleware(s.corsAllowedOrigins()))
}

// mountAPI registers all /api endpoints. Domain handler routes are registered
// via APIRouteRegistrars, which are populated by the application entry point.
func (s *Server) mountAPI(r chi.Router) {
	for _, registrar := range s.APIRouteRegistrars {
		registrar(r)
	}
}

// requestTimeout returns the configured request timeout, falling back to the
// default when the config does not specify one.
func (s *Server) requestTimeout() time.Duration {
	if s.Config != nil && s.Config.Server.RequestTimeout > 0 {
		return s.Config.Server.RequestTimeout
	}
	return defaultRequestTimeout
}

// corsAllowedOrigins returns the CORS allowed origins from configuration.
func (s *Server) corsAllowedOrigins() []string {
	if s.Config != nil && len(s.Config.Security.CorsAllowedOrigins) > 0 {
		return s.Config.Security.CorsAllowedOrigins
	}
	return []string{"*"}
}

// HandleIndex serves a small service descriptor at GET / so that a browser
// pointed at the root sees the available endpoint groups.
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	version := ""
	if s.Config != nil {
		version = s.Config.Build.Version
	}
	JSON(w, r, http.StatusOK, map[string]interface{}{
		"service": "skylog",
		"version": version,
		"endpoints": map[string]string{
			"weather":    "/api/weather",
			"queries":    "/api/weather/queries",
			"additional": "/api/additional",
			"export":     "/api/export/{format}",
			"health":     "/health",
		},
	})
}

// HandleNotFound writes the standard error envelope for unknown routes.
func (s *Server) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, types.NewAppError(types.ErrCodeNotFoundRoute,
		"route not found: "+r.URL.Path, nil))
}
