package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ruralhealth/pharmacy-discovery/pkg/config"
	"github.com/ruralhealth/pharmacy-discovery/pkg/retry"
)

const (
	dialTimeout = 2 * time.Second
	ioTimeout   = time.Second
)

// Client owns the Redis connection shared by the response cache and the event bus
type Client struct {
	client *redis.Client
}

// NewClient connects and waits up to cfg.ConnectTimeout for PING to succeed.
// Callers treat an error as "run without cache and events".
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	policy := retry.DefaultConfig()
	policy.MaxAttempts = 5
	if cfg.ConnectTimeout > 0 {
		policy.MaxTotalTimeout = cfg.ConnectTimeout
	}
	policy.OnRetry = func(attempt int, err error, next time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", next).Msg("Redis not ready")
	}

	err := retry.Do(ctx, policy, "Redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info().Str("addr", cfg.RedisAddr()).Msg("connected to Redis")
	return &Client{client: client}, nil
}

// Client returns the go-redis handle for adapters
func (c *Client) Client() *redis.Client {
	return c.client
}

// Close closes the connection
func (c *Client) Close() error {
	return c.client.Close()
}
