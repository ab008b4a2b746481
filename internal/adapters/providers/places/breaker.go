package places

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
)

// BreakerSource guards a PlacesSource with a circuit breaker. While open, searches fail
// fast with providers.ErrSourceSkipped.
type BreakerSource struct {
	inner providers.PlacesSource
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerSource wraps inner. The breaker opens after consecutiveFailures failed searches
// and probes again after cooldown.
func NewBreakerSource(inner providers.PlacesSource, consecutiveFailures int, cooldown time.Duration) *BreakerSource {
	if consecutiveFailures <= 0 {
		consecutiveFailures = 5
	}
	threshold := uint32(consecutiveFailures)
	settings := gobreaker.Settings{
		Name:        string(inner.Name()),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("places source breaker state changed")
		},
	}
	return &BreakerSource{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

var _ providers.PlacesSource = (*BreakerSource)(nil)

// Name identifies the wrapped source
func (b *BreakerSource) Name() entities.SourceKind {
	return b.inner.Name()
}

// Search delegates to the wrapped source unless the breaker is open. Empty answers count as
// successes; only errors trip the breaker.
func (b *BreakerSource) Search(ctx context.Context, center entities.Coordinate, radiusMeters int, categories []string) ([]entities.RawFacility, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Search(ctx, center, radiusMeters, categories)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s breaker %s: %w", b.inner.Name(), b.cb.State(), providers.ErrSourceSkipped)
	}
	if err != nil {
		return nil, err
	}
	facilities, _ := out.([]entities.RawFacility)
	return facilities, nil
}

// State reports the breaker state
func (b *BreakerSource) State() string {
	return b.cb.State().String()
}
