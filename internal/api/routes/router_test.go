package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruralhealth/pharmacy-discovery/internal/api/handlers"
	"github.com/ruralhealth/pharmacy-discovery/internal/api/routes"
	"github.com/ruralhealth/pharmacy-discovery/internal/application/services"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

type fixedAggregator struct{}

func (fixedAggregator) ResolveNearbyPharmacies(ctx context.Context, center entities.Coordinate) *entities.AggregationResult {
	return &entities.AggregationResult{Pharmacies: []entities.Pharmacy{}, Source: entities.SourceMock, Degraded: true, MockData: true}
}

type fixedLocations struct{}

func (fixedLocations) Resolve(ctx context.Context, q services.LocationQuery) (entities.Coordinate, services.LocationOrigin) {
	return entities.Coordinate{Latitude: 28.6139, Longitude: 77.209}, services.LocationFromDefault
}

func TestRouter(t *testing.T) {
	router := routes.NewRouter(handlers.NewPharmacyHandler(fixedAggregator{}, fixedLocations{}), nil, nil, nil)
	handler := router.SetupRoutes()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"nearby", http.MethodGet, "/api/pharmacies/nearby", http.StatusOK},
		{"orders disabled without database", http.MethodPost, "/api/orders", http.StatusNotFound},
		{"wrong method", http.MethodPost, "/api/pharmacies/nearby", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouter_NearbyFlagsDegradedMode(t *testing.T) {
	handler := routes.NewRouter(handlers.NewPharmacyHandler(fixedAggregator{}, fixedLocations{}), nil, nil, nil).SetupRoutes()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/pharmacies/nearby?address=unknown", nil))

	assert.Equal(t, "Mock", w.Header().Get("X-Pharmacy-Source"))
	assert.Equal(t, "true", w.Header().Get("X-Pharmacy-Degraded"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
