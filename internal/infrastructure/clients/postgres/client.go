package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/ruralhealth/pharmacy-discovery/pkg/config"
	"github.com/ruralhealth/pharmacy-discovery/pkg/retry"
)

const (
	pingTimeout     = 3 * time.Second
	connMaxLifetime = 5 * time.Minute
)

// Client owns the connection pool behind the medicine catalog and order tables
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and waits up to cfg.ConnectTimeout for the database to answer.
// Callers treat an error as "run without Postgres".
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	configurePool(db, cfg)

	policy := retry.DefaultConfig()
	if cfg.ConnectTimeout > 0 {
		policy.MaxTotalTimeout = cfg.ConnectTimeout
	}
	policy.OnRetry = func(attempt int, err error, next time.Duration) {
		log.Warn().Err(err).
			Int("attempt", attempt).
			Dur("next_delay", next).
			Str("host", cfg.Host).
			Msg("PostgreSQL not ready")
	}

	err = retry.Do(ctx, policy, "PostgreSQL", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("connected to PostgreSQL")
	return &Client{db: db}, nil
}

func configurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(connMaxLifetime)
}

// NewClientFromDB wraps an existing pool, e.g. a sqlmock connection in tests
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// DB returns the pool
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the pool
func (c *Client) Close() error {
	return c.db.Close()
}

// BeginTx starts a transaction; orders are written header and lines together
func (c *Client) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}
