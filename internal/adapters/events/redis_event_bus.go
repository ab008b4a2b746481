package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub
type RedisEventBus struct {
	client redis.Cmdable
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client redis.Cmdable) *RedisEventBus {
	return &RedisEventBus{client: client}
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// Publish publishes an event to all subscribers of channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.AggregationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := b.client.Publish(ctx, channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Int64("receivers", receivers).
		Msg("published aggregation event")
	return nil
}

// Close is a no-op; the Redis client is owned by the caller
func (b *RedisEventBus) Close() error {
	return nil
}

// NoopEventBus discards events. It is used when Redis is not configured.
type NoopEventBus struct{}

var _ providers.EventBus = NoopEventBus{}

// Publish discards the event
func (NoopEventBus) Publish(context.Context, string, *entities.AggregationEvent) error { return nil }

// Close does nothing
func (NoopEventBus) Close() error { return nil }
