package services

import (
	"context"
	"strings"
	"time"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
)

// LocationOrigin says where a resolved coordinate came from
type LocationOrigin string

const (
	LocationFromCoordinates LocationOrigin = "coordinates"
	LocationFromAddress     LocationOrigin = "address"
	LocationFromDefault     LocationOrigin = "default"
)

// LocationQuery is what the caller told us about their position
type LocationQuery struct {
	Latitude  *float64
	Longitude *float64
	Address   string
}

// LocationResolver turns a LocationQuery into a coordinate. It never fails: anything it cannot
// resolve is replaced by the configured default coordinate.
type LocationResolver struct {
	geocoder    providers.GeolocationProvider
	fallback    entities.Coordinate
	callTimeout time.Duration
}

// NewLocationResolver creates a resolver. geocoder may be nil.
func NewLocationResolver(geocoder providers.GeolocationProvider, fallback entities.Coordinate, callTimeout time.Duration) *LocationResolver {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &LocationResolver{
		geocoder:    geocoder,
		fallback:    fallback,
		callTimeout: callTimeout,
	}
}

// Resolve prefers explicit coordinates, then the address, then the default coordinate.
func (r *LocationResolver) Resolve(ctx context.Context, q LocationQuery) (entities.Coordinate, LocationOrigin) {
	logger := observability.LoggerFromContext(ctx)

	if q.Latitude != nil && q.Longitude != nil {
		c := entities.Coordinate{Latitude: *q.Latitude, Longitude: *q.Longitude}
		err := c.Validate()
		if err == nil {
			return c, LocationFromCoordinates
		}
		logger.Warn().Err(err).Msg("ignoring invalid coordinates")
	}

	if address := strings.TrimSpace(q.Address); address != "" && r.geocoder != nil {
		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
		c, err := r.geocoder.Geocode(callCtx, address)
		if err == nil && c != nil && c.Validate() == nil {
			return *c, LocationFromAddress
		}
		logger.Warn().Err(err).Str("address", address).Msg("address could not be geocoded")
	}

	logger.Info().
		Float64("latitude", r.fallback.Latitude).
		Float64("longitude", r.fallback.Longitude).
		Msg("using default location")
	return r.fallback, LocationFromDefault
}
