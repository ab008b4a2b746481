package geolocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
)

// MockGeolocationProvider resolves a handful of well-known city names offline.
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() *MockGeolocationProvider {
	return &MockGeolocationProvider{}
}

var _ providers.GeolocationProvider = (*MockGeolocationProvider)(nil)

var mockCities = []struct {
	name  string
	coord entities.Coordinate
}{
	{"bengaluru", entities.Coordinate{Latitude: 12.9716, Longitude: 77.5946}},
	{"bangalore", entities.Coordinate{Latitude: 12.9716, Longitude: 77.5946}},
	{"new delhi", entities.Coordinate{Latitude: 28.6139, Longitude: 77.2090}},
	{"mumbai", entities.Coordinate{Latitude: 19.0760, Longitude: 72.8777}},
	{"chennai", entities.Coordinate{Latitude: 13.0827, Longitude: 80.2707}},
	{"new york", entities.Coordinate{Latitude: 40.7128, Longitude: -74.0060}},
	{"los angeles", entities.Coordinate{Latitude: 34.0522, Longitude: -118.2437}},
	{"chicago", entities.Coordinate{Latitude: 41.8781, Longitude: -87.6298}},
}

// Geocode matches the address against the city table; unknown addresses are an error so
// callers apply their own default.
func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*entities.Coordinate, error) {
	needle := strings.ToLower(strings.TrimSpace(address))
	if needle == "" {
		return nil, fmt.Errorf("address is required")
	}
	for _, city := range mockCities {
		if strings.Contains(needle, city.name) {
			coord := city.coord
			return &coord, nil
		}
	}
	return nil, fmt.Errorf("no results for address %q", address)
}
