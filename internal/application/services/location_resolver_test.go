package services_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ruralhealth/pharmacy-discovery/internal/application/services"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

var defaultCoordinate = entities.Coordinate{Latitude: 28.6139, Longitude: 77.2090}

func ptr(v float64) *float64 { return &v }

func TestLocationResolver_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		query      services.LocationQuery
		setup      func(g *MockGeocoder)
		wantCoord  entities.Coordinate
		wantOrigin services.LocationOrigin
	}{
		{
			name:       "explicit coordinates win",
			query:      services.LocationQuery{Latitude: ptr(12.9716), Longitude: ptr(77.5946), Address: "Mumbai"},
			wantCoord:  bengaluru,
			wantOrigin: services.LocationFromCoordinates,
		},
		{
			name:  "address is geocoded",
			query: services.LocationQuery{Address: "Chennai"},
			setup: func(g *MockGeocoder) {
				g.On("Geocode", mock.Anything, "Chennai").Return(&entities.Coordinate{Latitude: 13.0827, Longitude: 80.2707}, nil).Once()
			},
			wantCoord:  entities.Coordinate{Latitude: 13.0827, Longitude: 80.2707},
			wantOrigin: services.LocationFromAddress,
		},
		{
			name:  "invalid coordinates fall through to address",
			query: services.LocationQuery{Latitude: ptr(123), Longitude: ptr(77), Address: "Chennai"},
			setup: func(g *MockGeocoder) {
				g.On("Geocode", mock.Anything, "Chennai").Return(&entities.Coordinate{Latitude: 13.0827, Longitude: 80.2707}, nil).Once()
			},
			wantCoord:  entities.Coordinate{Latitude: 13.0827, Longitude: 80.2707},
			wantOrigin: services.LocationFromAddress,
		},
		{
			name:  "geocode failure uses default",
			query: services.LocationQuery{Address: "Nowhere"},
			setup: func(g *MockGeocoder) {
				g.On("Geocode", mock.Anything, "Nowhere").Return(nil, errors.New("ZERO_RESULTS")).Once()
			},
			wantCoord:  defaultCoordinate,
			wantOrigin: services.LocationFromDefault,
		},
		{
			name:       "NaN coordinates use default",
			query:      services.LocationQuery{Latitude: ptr(math.NaN()), Longitude: ptr(math.NaN())},
			wantCoord:  defaultCoordinate,
			wantOrigin: services.LocationFromDefault,
		},
		{
			name:       "infinite coordinates use default",
			query:      services.LocationQuery{Latitude: ptr(math.Inf(1)), Longitude: ptr(math.Inf(-1))},
			wantCoord:  defaultCoordinate,
			wantOrigin: services.LocationFromDefault,
		},
		{
			name:  "NaN coordinates fall through to address",
			query: services.LocationQuery{Latitude: ptr(math.NaN()), Longitude: ptr(77), Address: "Chennai"},
			setup: func(g *MockGeocoder) {
				g.On("Geocode", mock.Anything, "Chennai").Return(&entities.Coordinate{Latitude: 13.0827, Longitude: 80.2707}, nil).Once()
			},
			wantCoord:  entities.Coordinate{Latitude: 13.0827, Longitude: 80.2707},
			wantOrigin: services.LocationFromAddress,
		},
		{
			name:       "nothing given uses default",
			query:      services.LocationQuery{Latitude: ptr(12.9)},
			wantCoord:  defaultCoordinate,
			wantOrigin: services.LocationFromDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geocoder := &MockGeocoder{}
			if tt.setup != nil {
				tt.setup(geocoder)
			}
			resolver := services.NewLocationResolver(geocoder, defaultCoordinate, time.Second)

			coord, origin := resolver.Resolve(context.Background(), tt.query)

			assert.Equal(t, tt.wantCoord, coord)
			assert.Equal(t, tt.wantOrigin, origin)
			geocoder.AssertExpectations(t)
		})
	}
}

func TestLocationResolver_NoGeocoder(t *testing.T) {
	resolver := services.NewLocationResolver(nil, defaultCoordinate, time.Second)

	coord, origin := resolver.Resolve(context.Background(), services.LocationQuery{Address: "Pune"})

	assert.Equal(t, defaultCoordinate, coord)
	assert.Equal(t, services.LocationFromDefault, origin)
}
