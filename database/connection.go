package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool limits sized for a single kiosk: a handful of HTTP workers plus the
// nightly jobs, all issuing short single-statement queries against the
// activity log.
const (
	maxConns        = 8
	maxConnIdleTime = 5 * time.Minute
)

// DB is the pgx pool handed to the repository layer. Repositories see it
// through their queryable interface, so tests can swap in a transaction.
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens the activity-log pool and verifies the database is
// reachable before any repository gets hold of it.
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases every pooled connection.
func (db *DB) Close() {
	db.Pool.Close()
}
