// Package main is the entry point for the skylog API server.
//
// It loads configuration, connects the PostgreSQL pool, wires the weather
// provider and enrichment clients, builds the HTTP server with the core
// chassis (middleware, routing, health checks), and starts listening for
// requests.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skylog/internal/api/handlers"
	"skylog/internal/config"
	"skylog/internal/core"
	"skylog/internal/db"
	"skylog/internal/export"
	"skylog/internal/external"
	"skylog/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("skylog API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	// Wrapped error detail is exposed in responses only outside production.
	core.SetErrorDetail(cfg.IsDevelopment())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.Bootstrap(ctx, pool); err != nil {
		return fmt.Errorf("bootstrapping database: %w", err)
	}

	queryRepo := db.NewWeatherQueryRepository(pool)

	// Outbound HTTP clients. Each provider gets its own circuit breaker so
	// a failing upstream does not take down the others.
	httpClient := &http.Client{Timeout: cfg.Providers.UpstreamTimeout}
	retryPolicy := external.DefaultRetryPolicy()

	owmClient := external.NewOpenWeatherClient(
		external.NewBaseClient(httpClient, "openweather", retryPolicy, cfg.Providers.UserAgent),
		external.OpenWeatherClientConfig{APIKey: cfg.Providers.OpenWeatherAPIKey},
	)
	weatherSvc := weather.NewService(owmClient, logger)

	// Enrichment clients are wired only when their keys are configured;
	// missing ones degrade the matching endpoints to 503.
	var videoClient handlers.VideoSearcher
	if cfg.Providers.YouTubeAPIKey != "" {
		videoClient = external.NewYouTubeClient(
			external.NewBaseClient(httpClient, "youtube", retryPolicy, cfg.Providers.UserAgent),
			cfg.Providers.YouTubeAPIKey, "")
	}
	var tzClient handlers.TimeZoneResolver
	if cfg.Providers.GoogleMapsAPIKey != "" {
		tzClient = external.NewTimeZoneClient(
			external.NewBaseClient(httpClient, "google-timezone", retryPolicy, cfg.Providers.UserAgent),
			cfg.Providers.GoogleMapsAPIKey, "")
	}
	mapClient := external.NewNominatimClient(
		external.NewBaseClient(httpClient, "nominatim", retryPolicy, cfg.Providers.UserAgent), "")

	// Build the server and register domain handlers.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = append(srv.HealthProbes, db.PoolProbe{Pool: pool})

	weatherHandler := handlers.NewWeatherHandler(weatherSvc, queryRepo, srv.Validator, logger)
	exportHandler := handlers.NewExportHandler(queryRepo, export.NewExporter(), logger)
	enrichmentHandler := handlers.NewEnrichmentHandler(videoClient, mapClient, tzClient, logger)

	srv.APIRouteRegistrars = append(srv.APIRouteRegistrars,
		weatherHandler.RegisterRoutes,
		exportHandler.RegisterRoutes,
		enrichmentHandler.RegisterRoutes,
	)

	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// runHTTPServer starts the server in standard HTTP mode with graceful
// shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}
