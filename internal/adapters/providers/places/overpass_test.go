package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
)

const overpassFixture = `{
  "elements": [
    {"type": "node", "id": 101, "lat": 12.975, "lon": 77.601, "tags": {"amenity": "pharmacy", "name": "Sri Medicals"}},
    {"type": "way", "id": 202, "center": {"lat": 12.965, "lon": 77.590},
     "tags": {"amenity": "hospital", "name": "Victoria Hospital", "addr:street": "Fort Road", "addr:housenumber": "1", "addr:city": "Bengaluru", "contact:phone": "+91 80 2670 1150"}},
    {"type": "node", "id": 303, "lat": 12.970, "lon": 77.595, "tags": {"amenity": "clinic"}},
    {"type": "node", "id": 404, "lat": 0, "lon": 77.5, "tags": {"healthcare": "clinic", "name": "Nowhere Clinic"}},
    {"type": "node", "id": 505, "lat": 12.972, "lon": 77.596, "tags": {"healthcare": "doctor", "name:en": "Dr. Rao"}}
  ]
}`

func TestOverpassSource_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		query := r.PostForm.Get("data")
		assert.Contains(t, query, "[out:json][timeout:25];")
		assert.Contains(t, query, `node["amenity"="pharmacy"](around:7000,12.971600,77.594600);`)
		assert.Contains(t, query, `way["amenity"="hospital"]`)
		assert.Contains(t, query, `node["healthcare"]`)
		assert.Contains(t, query, "out center;")
		_, _ = w.Write([]byte(overpassFixture))
	}))
	defer server.Close()

	source := NewOverpassSourceWithOptions(server.URL, 0, server.Client())
	got, err := source.Search(context.Background(), center, 7000, providers.DefaultCategories)

	require.NoError(t, err)
	require.Len(t, got, 3)

	sri := got[0].(*entities.FallbackFacility)
	assert.Equal(t, "osm_101", sri.SourceID())
	assert.Equal(t, entities.FacilityPharmacy, sri.Kind)
	assert.Equal(t, "Address not specified", sri.Address)
	assert.Equal(t, entities.SourceFallback, sri.Source())

	victoria := got[1].(*entities.FallbackFacility)
	assert.Equal(t, "osm_202", victoria.ElementID)
	assert.Equal(t, entities.FacilityHospital, victoria.Kind)
	assert.Equal(t, "Fort Road, 1, Bengaluru", victoria.Address)
	assert.Equal(t, "+91 80 2670 1150", victoria.Phone)
	assert.Equal(t, entities.Coordinate{Latitude: 12.965, Longitude: 77.590}, victoria.Location())

	rao := got[2].(*entities.FallbackFacility)
	assert.Equal(t, "Dr. Rao", rao.Name)
	assert.Equal(t, entities.FacilityClinic, rao.Kind)
}

func TestOverpassSource_SearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	source := NewOverpassSourceWithOptions(server.URL, 0, server.Client())
	got, err := source.Search(context.Background(), center, 7000, providers.DefaultCategories)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Nil(t, got)
}

func TestOverpassSource_RateLimitHonoursDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements": []}`))
	}))
	defer server.Close()

	// one request per minute: the second call cannot get a token before its deadline
	source := NewOverpassSourceWithOptions(server.URL, 1, server.Client())
	got, err := source.Search(context.Background(), center, 7000, []string{"pharmacy"})
	require.NoError(t, err)
	assert.Empty(t, got)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = source.Search(ctx, center, 7000, []string{"pharmacy"})
	assert.Error(t, err)
}

func TestFormatOSMAddress(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"no fragments", map[string]string{"name": "x"}, "Address not specified"},
		{"street only", map[string]string{"addr:street": "MG Road"}, "MG Road"},
		{"all fragments", map[string]string{
			"addr:street": "MG Road", "addr:housenumber": "12", "addr:suburb": "Ashok Nagar", "addr:city": "Bengaluru",
		}, "MG Road, 12, Ashok Nagar, Bengaluru"},
		{"blank fragment skipped", map[string]string{"addr:street": " ", "addr:city": "Mysuru"}, "Mysuru"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatOSMAddress(tt.tags))
		})
	}
}
