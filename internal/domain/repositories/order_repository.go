package repositories

import (
	"context"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

// OrderRepository persists placed orders
type OrderRepository interface {
	// Create stores the order and its lines atomically
	Create(ctx context.Context, order *entities.Order) error

	// GetByID retrieves an order with its lines
	GetByID(ctx context.Context, id string) (*entities.Order, error)
}
