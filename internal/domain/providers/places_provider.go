package providers

import (
	"context"
	"errors"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

// ErrSourceSkipped is returned by a PlacesSource that declined to call its upstream,
// for example while a circuit breaker is open.
var ErrSourceSkipped = errors.New("source skipped")

// DefaultCategories is the category set searched when the caller does not narrow it.
var DefaultCategories = []string{"pharmacy", "hospital", "doctor"}

// PlacesSource is a real-world facility source (commercial places API or open map database).
// A nil error with zero results and a non-nil error are treated the same by the aggregation
// service: both advance to the next source.
type PlacesSource interface {
	// Name identifies the source in logs, metrics and results
	Name() entities.SourceKind

	// Search finds facilities of the given categories within radiusMeters of center
	Search(ctx context.Context, center entities.Coordinate, radiusMeters int, categories []string) ([]entities.RawFacility, error)
}

// DistanceMatrixProvider computes travel distance and time from one origin to many destinations.
// The result is index-aligned with destinations.
type DistanceMatrixProvider interface {
	GetDistances(ctx context.Context, origin entities.Coordinate, destinations []entities.Coordinate) ([]entities.TravelEstimate, error)
}

// FacilitySynthesizer produces a deterministic, location-flavoured facility list. It cannot fail.
type FacilitySynthesizer interface {
	Synthesize(center entities.Coordinate) []entities.RawFacility
}
