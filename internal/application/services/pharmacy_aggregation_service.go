package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	"github.com/ruralhealth/pharmacy-discovery/pkg/geo"
)

const (
	defaultRadiusMeters = 7000
	defaultMaxResults   = 8
	defaultCallTimeout  = 6 * time.Second
	eventPublishTimeout = 3 * time.Second
)

// AggregationOptions are the pipeline knobs, usually taken from config.AggregationConfig.
type AggregationOptions struct {
	RadiusMeters int
	MaxResults   int
	CallTimeout  time.Duration
	Categories   []string
	// MockFallback enables the synthetic list when every real source came back empty.
	MockFallback bool
}

// PharmacyAggregationService resolves a coordinate into a capped, deduplicated list of nearby
// pharmacies with travel estimates and inventory. Real sources are tried in order; the first
// one to return facilities wins.
type PharmacyAggregationService struct {
	sources   []providers.PlacesSource
	distances providers.DistanceMatrixProvider
	mock      providers.FacilitySynthesizer
	inventory *InventoryResolver
	events    providers.EventBus
	opts      AggregationOptions
	now       func() time.Time
}

// NewPharmacyAggregationService creates the service. distances, mock and events may be nil.
func NewPharmacyAggregationService(
	sources []providers.PlacesSource,
	distances providers.DistanceMatrixProvider,
	mock providers.FacilitySynthesizer,
	inventory *InventoryResolver,
	events providers.EventBus,
	opts AggregationOptions,
) *PharmacyAggregationService {
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = defaultRadiusMeters
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if len(opts.Categories) == 0 {
		opts.Categories = providers.DefaultCategories
	}
	return &PharmacyAggregationService{
		sources:   sources,
		distances: distances,
		mock:      mock,
		inventory: inventory,
		events:    events,
		opts:      opts,
		now:       time.Now,
	}
}

// ResolveNearbyPharmacies runs the fallback chain for center. It never returns an error:
// failures are recorded in Attempts and the next source is tried.
func (s *PharmacyAggregationService) ResolveNearbyPharmacies(ctx context.Context, center entities.Coordinate) *entities.AggregationResult {
	ctx, span := observability.StartSpan(ctx, "PharmacyAggregationService.ResolveNearbyPharmacies")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	result := &entities.AggregationResult{
		Pharmacies: []entities.Pharmacy{},
		Attempts:   make([]entities.SourceAttempt, 0, len(s.sources)+1),
		Origin:     center,
	}

	var facilities []entities.RawFacility
	for _, src := range s.sources {
		found, attempt := s.trySource(ctx, src, center)
		result.Attempts = append(result.Attempts, attempt)
		if attempt.Outcome == entities.OutcomeOK {
			facilities = found
			result.Source = src.Name()
			break
		}
	}

	if len(facilities) == 0 {
		if s.opts.MockFallback && s.mock != nil {
			facilities = s.mock.Synthesize(center)
			result.Source = entities.SourceMock
			result.MockData = true
			result.Attempts = append(result.Attempts, entities.SourceAttempt{
				Source:  entities.SourceMock,
				Outcome: entities.OutcomeOK,
				Count:   len(facilities),
			})
		} else {
			logger.Warn().Msg("no facility source produced results and mock fallback is disabled")
		}
	}

	facilities = dedupeAndCap(facilities, s.opts.MaxResults)
	pharmacies := make([]entities.Pharmacy, len(facilities))
	for i, f := range facilities {
		pharmacies[i] = normalizeFacility(f)
	}

	if result.Source != entities.SourceMock && len(facilities) > 0 {
		s.enrichTravel(ctx, center, facilities, pharmacies)
	}

	var snapshot *InventorySnapshot
	if s.inventory != nil {
		snapshot = s.inventory.Snapshot(ctx)
	}
	for i, f := range facilities {
		p := &pharmacies[i]
		p.Inventory = []entities.Medicine{}
		if snapshot != nil {
			p.Inventory = snapshot.AttachInventory(f)
		}
		p.DeliveryTime = geo.DeliveryTime(p.DistanceKm)
		p.DeliveryFee = geo.DeliveryFee(p.DistanceKm)
	}

	result.Pharmacies = pharmacies
	result.Degraded = result.Source != entities.SourcePrimary
	result.ResolvedAt = s.now().UTC()

	observability.SetSpanAttributes(span,
		attribute.String("pharmacy.source", string(result.Source)),
		attribute.Bool("pharmacy.degraded", result.Degraded),
		attribute.Int("pharmacy.count", len(pharmacies)),
	)

	if result.Source != entities.SourcePrimary && result.Source != "" {
		observability.RecordAggregationFallback(ctx, string(result.Source))
	}
	if result.Degraded {
		observability.RecordAggregationDegraded(ctx, string(result.Source), result.MockData)
		logger.Warn().
			Str("source", string(result.Source)).
			Bool("mock_data", result.MockData).
			Int("count", len(pharmacies)).
			Msg("nearby pharmacies resolved in degraded mode")
		s.publishDegraded(ctx, result)
	}

	return result
}

// trySource calls one source under its own deadline and classifies the outcome.
func (s *PharmacyAggregationService) trySource(ctx context.Context, src providers.PlacesSource, center entities.Coordinate) ([]entities.RawFacility, entities.SourceAttempt) {
	name := src.Name()
	ctx, span := observability.StartSpan(ctx, fmt.Sprintf("PlacesSource.%s.Search", name))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	facilities, err := src.Search(callCtx, center, s.opts.RadiusMeters, s.opts.Categories)
	elapsed := time.Since(start)

	attempt := entities.SourceAttempt{
		Source:     name,
		Count:      len(facilities),
		DurationMs: elapsed.Milliseconds(),
	}
	switch {
	case errors.Is(err, providers.ErrSourceSkipped):
		attempt.Outcome = entities.OutcomeSkipped
		attempt.Error = err.Error()
		attempt.Count = 0
	case err != nil:
		attempt.Outcome = entities.OutcomeFailed
		attempt.Error = err.Error()
		attempt.Count = 0
		observability.RecordError(span, err)
	case len(facilities) == 0:
		attempt.Outcome = entities.OutcomeEmpty
	default:
		attempt.Outcome = entities.OutcomeOK
	}

	observability.RecordSourceCall(ctx, string(name), string(attempt.Outcome), elapsed)
	observability.SetSpanAttributes(span,
		attribute.String("pharmacy.outcome", string(attempt.Outcome)),
		attribute.Int("pharmacy.count", attempt.Count),
	)

	evt := observability.LoggerFromContext(ctx).Debug()
	if attempt.Outcome == entities.OutcomeFailed {
		evt = observability.LoggerFromContext(ctx).Warn().Err(err)
	}
	evt.Str("source", string(name)).
		Str("outcome", string(attempt.Outcome)).
		Int("count", attempt.Count).
		Dur("elapsed", elapsed).
		Msg("facility source consulted")

	if attempt.Outcome != entities.OutcomeOK {
		return nil, attempt
	}
	return facilities, attempt
}

// enrichTravel fills distance and duration from the distance matrix. Any cell the matrix could
// not provide, or every cell when the call fails, falls back to the haversine estimate.
func (s *PharmacyAggregationService) enrichTravel(ctx context.Context, center entities.Coordinate, facilities []entities.RawFacility, pharmacies []entities.Pharmacy) {
	var estimates []entities.TravelEstimate
	if s.distances != nil {
		destinations := make([]entities.Coordinate, len(facilities))
		for i, f := range facilities {
			destinations[i] = f.Location()
		}

		callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		var err error
		estimates, err = s.distances.GetDistances(callCtx, center, destinations)
		cancel()
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("distance matrix failed, using haversine estimates")
			estimates = nil
		}
	}

	for i := range pharmacies {
		p := &pharmacies[i]
		if i < len(estimates) && estimates[i].OK {
			p.DistanceText = estimates[i].DistanceText
			p.DurationText = estimates[i].DurationText
			p.DistanceKm = float64(estimates[i].DistanceMeters) / 1000
			continue
		}
		dest := facilities[i].Location()
		p.DistanceText, p.DurationText, p.DistanceKm = geo.Estimate(center.Latitude, center.Longitude, dest.Latitude, dest.Longitude)
	}
}

func (s *PharmacyAggregationService) publishDegraded(ctx context.Context, result *entities.AggregationResult) {
	if s.events == nil {
		return
	}
	event := &entities.AggregationEvent{
		ID:         uuid.NewString(),
		Source:     result.Source,
		MockData:   result.MockData,
		Count:      len(result.Pharmacies),
		Origin:     result.Origin,
		Attempts:   result.Attempts,
		OccurredAt: result.ResolvedAt,
	}
	logger := observability.LoggerFromContext(ctx)

	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
		defer cancel()
		if err := s.events.Publish(pubCtx, providers.EventChannelAggregation, event); err != nil {
			logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to publish aggregation event")
		}
	}()
}

// dedupeAndCap keeps the first facility per source id, preserving order, and truncates to limit.
func dedupeAndCap(facilities []entities.RawFacility, limit int) []entities.RawFacility {
	seen := make(map[string]struct{}, len(facilities))
	out := make([]entities.RawFacility, 0, min(len(facilities), limit))
	for _, f := range facilities {
		if len(out) == limit {
			break
		}
		key := string(f.Source()) + ":" + f.SourceID()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
