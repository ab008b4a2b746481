package providers

import (
	"context"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

// GeolocationProvider resolves a free-text location into a coordinate fix
type GeolocationProvider interface {
	// Geocode converts an address to coordinates
	Geocode(ctx context.Context, address string) (*entities.Coordinate, error)
}
