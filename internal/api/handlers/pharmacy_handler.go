package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ruralhealth/pharmacy-discovery/internal/application/services"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

const (
	headerPharmacySource   = "X-Pharmacy-Source"
	headerPharmacyDegraded = "X-Pharmacy-Degraded"
)

// PharmacyAggregator resolves nearby pharmacies for a coordinate
type PharmacyAggregator interface {
	ResolveNearbyPharmacies(ctx context.Context, center entities.Coordinate) *entities.AggregationResult
}

// LocationResolver turns query parameters into a coordinate
type LocationResolver interface {
	Resolve(ctx context.Context, q services.LocationQuery) (entities.Coordinate, services.LocationOrigin)
}

// PharmacyHandler handles pharmacy discovery endpoints
type PharmacyHandler struct {
	aggregator PharmacyAggregator
	locations  LocationResolver
}

// NewPharmacyHandler creates a new pharmacy handler
func NewPharmacyHandler(aggregator PharmacyAggregator, locations LocationResolver) *PharmacyHandler {
	return &PharmacyHandler{
		aggregator: aggregator,
		locations:  locations,
	}
}

type nearbyLocation struct {
	entities.Coordinate
	Origin services.LocationOrigin `json:"origin"`
}

type nearbyResponse struct {
	Pharmacies []entities.Pharmacy      `json:"pharmacies"`
	Count      int                      `json:"count"`
	Source     entities.SourceKind      `json:"source"`
	Degraded   bool                     `json:"degraded"`
	MockData   bool                     `json:"mock_data"`
	Attempts   []entities.SourceAttempt `json:"attempts"`
	ResolvedAt time.Time                `json:"resolved_at"`
	Location   nearbyLocation           `json:"location"`
}

// GetNearbyPharmacies handles GET /api/pharmacies/nearby?lat=...&lng=...&address=...
// The endpoint always answers 200; degraded answers are flagged in headers and body.
func (h *PharmacyHandler) GetNearbyPharmacies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := services.LocationQuery{
		Latitude:  parseFloatParam(query.Get("lat")),
		Longitude: parseFloatParam(firstNonEmpty(query.Get("lng"), query.Get("lon"))),
		Address:   strings.TrimSpace(query.Get("address")),
	}

	center, origin := h.locations.Resolve(r.Context(), q)
	result := h.aggregator.ResolveNearbyPharmacies(r.Context(), center)

	w.Header().Set(headerPharmacySource, string(result.Source))
	w.Header().Set(headerPharmacyDegraded, strconv.FormatBool(result.Degraded))

	respondWithJSON(w, http.StatusOK, nearbyResponse{
		Pharmacies: result.Pharmacies,
		Count:      len(result.Pharmacies),
		Source:     result.Source,
		Degraded:   result.Degraded,
		MockData:   result.MockData,
		Attempts:   result.Attempts,
		ResolvedAt: result.ResolvedAt,
		Location:   nearbyLocation{Coordinate: center, Origin: origin},
	})
}

func parseFloatParam(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
