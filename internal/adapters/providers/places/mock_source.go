package places

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/pkg/geo"
)

type mockTemplate struct {
	name   string
	street string
}

var urbanTemplates = []mockTemplate{
	{"CVS Pharmacy", "123 Main St"},
	{"Walgreens", "456 Broadway"},
	{"Rite Aid", "789 First Ave"},
	{"Duane Reade", "321 Park Ave"},
	{"Local Pharmacy Plus", "654 Oak St"},
}

var ruralTemplates = []mockTemplate{
	{"Community Pharmacy", "100 Main Street"},
	{"Family Drug Store", "200 Center Ave"},
	{"HealthMart Pharmacy", "300 Elm Street"},
	{"Independent Pharmacy", "400 Pine Road"},
}

const (
	mockFirstKm  = 0.5
	mockStepKm   = 0.7
	mockJitter   = 0.01
	mockOpenRate = 0.8
)

// MockSource synthesizes a plausible pharmacy list when no real source answered.
// Output depends only on the coordinate.
type MockSource struct {
	urban geo.UrbanClassifier
}

// NewMockSource creates the last-resort source.
func NewMockSource(urban geo.UrbanClassifier) *MockSource {
	return &MockSource{urban: urban}
}

var _ providers.FacilitySynthesizer = (*MockSource)(nil)

// Synthesize returns four or five pharmacies at increasing distance from center.
func (m *MockSource) Synthesize(center entities.Coordinate) []entities.RawFacility {
	templates := ruralTemplates
	if m.urban.IsUrban(center.Latitude, center.Longitude) {
		templates = urbanTemplates
	}
	location := geo.LocationName(center.Latitude, center.Longitude)
	rng := coordinateRand(center)

	facilities := make([]entities.RawFacility, 0, len(templates))
	for i, t := range templates {
		km := mockFirstKm + float64(i)*mockStepKm
		facilities = append(facilities, &entities.MockFacility{
			ID:      fmt.Sprintf("mock_%.4f_%.4f_%d", center.Latitude, center.Longitude, i),
			Name:    t.name + " - " + location,
			Address: t.street + ", " + location,
			Coord: entities.Coordinate{
				Latitude:  clamp(center.Latitude+(rng.Float64()-0.5)*2*mockJitter, -90, 90),
				Longitude: clamp(center.Longitude+(rng.Float64()-0.5)*2*mockJitter, -180, 180),
			},
			Rating:       math.Round((3.8+rng.Float64())*10) / 10,
			IsOpen:       rng.Float64() < mockOpenRate,
			Phone:        fmt.Sprintf("+1-555-%04d", 1000+rng.IntN(9000)),
			DistanceKm:   km,
			DistanceText: geo.FormatDistance(km),
			DurationText: geo.FormatDuration(geo.EstimateMinutes(km)),
		})
	}
	return facilities
}

// coordinateRand seeds a PCG stream from the coordinate rounded to 1e-6 degrees.
func coordinateRand(c entities.Coordinate) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.6f,%.6f", c.Latitude, c.Longitude)
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
