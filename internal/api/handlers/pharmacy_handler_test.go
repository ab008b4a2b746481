package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralhealth/pharmacy-discovery/internal/api/handlers"
	"github.com/ruralhealth/pharmacy-discovery/internal/application/services"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

type stubAggregator struct {
	result *entities.AggregationResult
	got    entities.Coordinate
}

func (s *stubAggregator) ResolveNearbyPharmacies(ctx context.Context, center entities.Coordinate) *entities.AggregationResult {
	s.got = center
	return s.result
}

type stubLocations struct {
	query  services.LocationQuery
	coord  entities.Coordinate
	origin services.LocationOrigin
}

func (s *stubLocations) Resolve(ctx context.Context, q services.LocationQuery) (entities.Coordinate, services.LocationOrigin) {
	s.query = q
	return s.coord, s.origin
}

func TestPharmacyHandler_GetNearbyPharmacies(t *testing.T) {
	center := entities.Coordinate{Latitude: 12.9716, Longitude: 77.5946}
	aggregator := &stubAggregator{result: &entities.AggregationResult{
		Pharmacies: []entities.Pharmacy{
			{ID: "gp_1", Name: "Apollo Pharmacy", Source: entities.SourcePrimary, Inventory: []entities.Medicine{}},
		},
		Source:     entities.SourcePrimary,
		Attempts:   []entities.SourceAttempt{{Source: entities.SourcePrimary, Outcome: entities.OutcomeOK, Count: 1}},
		ResolvedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}}
	locations := &stubLocations{coord: center, origin: services.LocationFromCoordinates}
	handler := handlers.NewPharmacyHandler(aggregator, locations)

	req := httptest.NewRequest(http.MethodGet, "/api/pharmacies/nearby?lat=12.9716&lng=77.5946", nil)
	w := httptest.NewRecorder()

	handler.GetNearbyPharmacies(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Primary", w.Header().Get("X-Pharmacy-Source"))
	assert.Equal(t, "false", w.Header().Get("X-Pharmacy-Degraded"))
	require.NotNil(t, locations.query.Latitude)
	assert.Equal(t, 12.9716, *locations.query.Latitude)
	assert.Equal(t, center, aggregator.got)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, "Primary", body["source"])
	assert.Equal(t, false, body["mock_data"])
	location := body["location"].(map[string]interface{})
	assert.Equal(t, "coordinates", location["origin"])
	assert.Equal(t, 12.9716, location["latitude"])
}

func TestPharmacyHandler_GetNearbyPharmacies_Degraded(t *testing.T) {
	aggregator := &stubAggregator{result: &entities.AggregationResult{
		Pharmacies: []entities.Pharmacy{{ID: "mock_1"}, {ID: "mock_2"}},
		Source:     entities.SourceMock,
		Degraded:   true,
		MockData:   true,
	}}
	locations := &stubLocations{coord: entities.Coordinate{Latitude: 28.6139, Longitude: 77.209}, origin: services.LocationFromDefault}
	handler := handlers.NewPharmacyHandler(aggregator, locations)

	req := httptest.NewRequest(http.MethodGet, "/api/pharmacies/nearby?lat=abc&address=%20Lagos%20", nil)
	w := httptest.NewRecorder()

	handler.GetNearbyPharmacies(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Mock", w.Header().Get("X-Pharmacy-Source"))
	assert.Equal(t, "true", w.Header().Get("X-Pharmacy-Degraded"))
	assert.Nil(t, locations.query.Latitude)
	assert.Nil(t, locations.query.Longitude)
	assert.Equal(t, "Lagos", locations.query.Address)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, true, body["mock_data"])
	assert.Equal(t, float64(2), body["count"])
}

func TestPharmacyHandler_GetNearbyPharmacies_NonFiniteCoordinates(t *testing.T) {
	fallback := entities.Coordinate{Latitude: 28.6139, Longitude: 77.209}

	tests := []struct {
		name  string
		query string
	}{
		{name: "NaN", query: "lat=NaN&lng=NaN"},
		{name: "infinity", query: "lat=Inf&lng=-Inf"},
		{name: "mixed", query: "lat=12.97&lon=%2BInf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregator := &stubAggregator{result: &entities.AggregationResult{
				Pharmacies: []entities.Pharmacy{{ID: "mock_1", Name: "Jan Aushadhi Kendra"}},
				Source:     entities.SourceMock,
				Degraded:   true,
				MockData:   true,
			}}
			locations := services.NewLocationResolver(nil, fallback, time.Second)
			handler := handlers.NewPharmacyHandler(aggregator, locations)

			req := httptest.NewRequest(http.MethodGet, "/api/pharmacies/nearby?"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.GetNearbyPharmacies(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			require.NotZero(t, w.Body.Len())
			assert.Equal(t, fallback, aggregator.got)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			location := body["location"].(map[string]interface{})
			assert.Equal(t, "default", location["origin"])
			assert.Equal(t, 28.6139, location["latitude"])
		})
	}
}
