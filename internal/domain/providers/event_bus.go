package providers

import (
	"context"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

// EventBus publishes aggregation events for dashboards and alerting
type EventBus interface {
	// Publish publishes an event on the given channel
	Publish(ctx context.Context, channel string, event *entities.AggregationEvent) error

	// Close releases the bus
	Close() error
}

const (
	// EventChannelAggregation carries one event per degraded aggregation run
	EventChannelAggregation = "pharmacy:aggregation"
)
