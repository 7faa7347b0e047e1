// Package config defines the global configuration structure for the service.
// Configuration is loaded once at process initialization and is immutable
// thereafter. It follows 12-Factor App principles by strictly separating
// code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// Any missing required value or invalid format causes the application to
// fail immediately on startup (fail fast).
package config

import "time"

// Config is the top-level configuration struct for the service.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server    ServerConfig
	Database  DatabaseConfig
	Providers ProvidersConfig
	Security  SecurityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// IsDevelopment reports whether the process runs in a non-production
// environment. Error responses include wrapped failure detail only then.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "local" || c.Environment == "dev"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"5000"`
	// RequestTimeout is the soft deadline applied to each request context.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL" validate:"required"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`     // Fail fast when pool exhausted
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"` // Detect dead connections during failover
}

// ProvidersConfig holds third-party API credentials and client tuning.
// The weather key is required; the enrichment keys are optional and, when
// absent, degrade only the corresponding /additional endpoints to 503.
type ProvidersConfig struct {
	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY" validate:"required"`
	YouTubeAPIKey     string `envconfig:"YOUTUBE_API_KEY"`
	GoogleMapsAPIKey  string `envconfig:"GOOGLE_MAPS_API_KEY"`

	// UpstreamTimeout bounds every outbound HTTP call.
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	UserAgent       string        `envconfig:"UPSTREAM_USER_AGENT" default:"skylog/1.0"`
}

// SecurityConfig holds CORS settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrParsing indicates envconfig failed to parse an environment variable.
	ErrParsing ConfigErrorType = "parsing"
	// ErrValidation indicates the populated Config struct failed validation.
	ErrValidation ConfigErrorType = "validation"
)
