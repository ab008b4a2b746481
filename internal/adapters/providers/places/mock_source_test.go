package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/pkg/geo"
)

func TestMockSource_Deterministic(t *testing.T) {
	source := NewMockSource(geo.DefaultUrbanClassifier())

	first := source.Synthesize(center)
	second := source.Synthesize(center)

	assert.Equal(t, first, second)
}

func TestMockSource_UrbanList(t *testing.T) {
	source := NewMockSource(geo.DefaultUrbanClassifier())
	got := source.Synthesize(center)

	require.Len(t, got, 5)
	prev := 0.0
	seen := map[string]bool{}
	for i, raw := range got {
		f, ok := raw.(*entities.MockFacility)
		require.True(t, ok)
		assert.Equal(t, entities.SourceMock, f.Source())
		assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true

		assert.Greater(t, f.DistanceKm, prev, "distance must increase at %d", i)
		prev = f.DistanceKm
		assert.GreaterOrEqual(t, f.Rating, 3.8)
		assert.LessOrEqual(t, f.Rating, 4.8)
		assert.Regexp(t, `^\+1-555-\d{4}$`, f.Phone)
		assert.InDelta(t, center.Latitude, f.Coord.Latitude, 0.01)
		assert.InDelta(t, center.Longitude, f.Coord.Longitude, 0.01)
	}

	cvs := got[0].(*entities.MockFacility)
	assert.Equal(t, "CVS Pharmacy - Bengaluru, KA", cvs.Name)
	assert.Equal(t, "123 Main St, Bengaluru, KA", cvs.Address)
	assert.Equal(t, "0.5 km", cvs.DistanceText)
	assert.Equal(t, "2 mins", cvs.DurationText)

	third := got[2].(*entities.MockFacility)
	assert.Equal(t, "1.9 km", third.DistanceText)
	assert.Equal(t, "6 mins", third.DurationText)
}

func TestMockSource_RuralList(t *testing.T) {
	source := NewMockSource(geo.DefaultUrbanClassifier())
	got := source.Synthesize(entities.Coordinate{Latitude: 6.5244, Longitude: 3.3792})

	require.Len(t, got, 4)
	assert.Equal(t, "Community Pharmacy - Local Area", got[0].DisplayName())
}

func TestMockSource_DifferentCoordinatesDiffer(t *testing.T) {
	source := NewMockSource(geo.DefaultUrbanClassifier())
	a := source.Synthesize(center)
	b := source.Synthesize(entities.Coordinate{Latitude: 12.9816, Longitude: 77.6046})

	assert.NotEqual(t, a[0].SourceID(), b[0].SourceID())
}
