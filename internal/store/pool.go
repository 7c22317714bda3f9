// Package store is the Postgres persistence layer: butchers-list snapshots,
// the product catalog, and report rows. All access goes through plain
// parameterized SQL over a pgx connection pool.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"butcherdesk/internal/logger"
)

// NewPool connects to the database at databaseURL and verifies the
// connection with a ping.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("store: database URL is not configured")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: pinging database: %w", err)
	}
	return pool, nil
}

// Store provides CRUD access over the application's tables.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		log:  logger.WithComponent("store"),
	}
}
