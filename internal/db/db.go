// Package db provides PostgreSQL-backed repository implementations for the
// skylog service. All repositories accept a DBTX interface that is satisfied
// by both *pgxpool.Pool (for normal queries) and pgx.Tx (for transactional
// execution), enabling clean transaction support.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"skylog/internal/config"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool creates a pgx connection pool from the database configuration,
// applying the pool tuning parameters, and verifies connectivity with a ping.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// schema is the idempotent bootstrap DDL for the weather_queries table.
// Running it on startup keeps local and test environments in sync without a
// separate migration tool.
const schema = `
CREATE TABLE IF NOT EXISTS weather_queries (
    id               CHAR(24) PRIMARY KEY,
    location         TEXT NOT NULL,
    date_range_start DATE NOT NULL,
    date_range_end   DATE NOT NULL,
    weather_data     JSONB NOT NULL DEFAULT '{}'::jsonb,
    lat              DOUBLE PRECISION NOT NULL DEFAULT 0,
    lon              DOUBLE PRECISION NOT NULL DEFAULT 0,
    country          TEXT NOT NULL DEFAULT '',
    timezone         INTEGER NOT NULL DEFAULT 0,
    notes            TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_weather_queries_created_at
    ON weather_queries (created_at DESC);

CREATE INDEX IF NOT EXISTS idx_weather_queries_location_created
    ON weather_queries (location, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_weather_queries_coords
    ON weather_queries (lat, lon);
`

// Bootstrap applies the schema DDL. It is safe to call on every startup.
func Bootstrap(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("bootstrapping schema: %w", err)
	}
	return nil
}

// PoolProbe adapts a *pgxpool.Pool to the health check interface used by the
// API chassis.
type PoolProbe struct {
	Pool *pgxpool.Pool
}

// Name identifies the probe in the health response.
func (p PoolProbe) Name() string { return "database" }

// Check pings the pool, respecting the context deadline.
func (p PoolProbe) Check(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}
