package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func place(id, name string, lat, lng float64) map[string]any {
	return map[string]any{
		"place_id": id,
		"name":     name,
		"vicinity": name + " street",
		"geometry": map[string]any{"location": map[string]any{"lat": lat, "lng": lng}},
	}
}

var center = entities.Coordinate{Latitude: 12.9716, Longitude: 77.5946}

func TestGooglePlacesSource_SearchMergesAndDeduplicates(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/place/nearbysearch/json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "7000", r.URL.Query().Get("radius"))

		var body map[string]any
		switch r.URL.Query().Get("type") {
		case "pharmacy":
			p1 := place("p1", "Apollo Pharmacy", 12.97, 77.59)
			p1["rating"] = 4.6
			p1["opening_hours"] = map[string]any{"open_now": false}
			body = map[string]any{"status": "OK", "results": []any{p1, place("p2", "MedPlus", 12.98, 77.60)}}
		case "hospital":
			body = map[string]any{"status": "OK", "results": []any{place("p2", "MedPlus", 12.98, 77.60), place("p3", "City Hospital", 12.96, 77.58)}}
		default:
			body = map[string]any{"status": "ZERO_RESULTS", "results": []any{}}
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	source := NewGooglePlacesSourceWithOptions("test-key", nil, server.URL, server.Client())
	got, err := source.Search(context.Background(), center, 7000, providers.DefaultCategories)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int32(3), calls.Load())

	ids := []string{got[0].SourceID(), got[1].SourceID(), got[2].SourceID()}
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids)

	first, ok := got[0].(*entities.PrimaryFacility)
	require.True(t, ok)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.6, *first.Rating)
	require.NotNil(t, first.OpenNow)
	assert.False(t, *first.OpenNow)
	assert.Equal(t, entities.SourcePrimary, first.Source())

	second := got[1].(*entities.PrimaryFacility)
	assert.Nil(t, second.Rating)
	assert.Nil(t, second.OpenNow)
}

func TestGooglePlacesSource_SearchPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") == "pharmacy" {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": []any{place("p1", "Apollo", 12.97, 77.59)}})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := NewGooglePlacesSourceWithOptions("test-key", nil, server.URL, server.Client())
	got, err := source.Search(context.Background(), center, 7000, []string{"pharmacy", "hospital"})

	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestGooglePlacesSource_SearchFailureDoesNotCancelSiblings(t *testing.T) {
	hospitalFailed := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("type") {
		case "hospital":
			defer close(hospitalFailed)
			w.WriteHeader(http.StatusBadGateway)
		case "pharmacy":
			select {
			case <-hospitalFailed:
			case <-time.After(2 * time.Second):
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": []any{place("p9", "Jan Aushadhi", 12.95, 77.57)}})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS", "results": []any{}})
		}
	}))
	defer server.Close()

	source := NewGooglePlacesSourceWithOptions("test-key", nil, server.URL, server.Client())
	got, err := source.Search(context.Background(), center, 7000, []string{"pharmacy", "hospital"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p9", got[0].SourceID())
}

func TestGooglePlacesSource_SearchAllFailNamesEachType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := NewGooglePlacesSourceWithOptions("test-key", nil, server.URL, server.Client())
	_, err := source.Search(context.Background(), center, 7000, []string{"pharmacy", "hospital", "clinic"})

	require.Error(t, err)
	for _, placeType := range []string{"pharmacy:", "hospital:", "doctor:"} {
		assert.Contains(t, err.Error(), placeType)
	}
}

func TestGooglePlacesSource_SearchAllFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "REQUEST_DENIED", "error_message": "bad key"})
	}))
	defer server.Close()

	source := NewGooglePlacesSourceWithOptions("test-key", nil, server.URL, server.Client())
	got, err := source.Search(context.Background(), center, 7000, providers.DefaultCategories)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED - bad key")
	assert.Nil(t, got)
}

func TestGooglePlacesSource_SearchRequiresKeyAndCategories(t *testing.T) {
	source := NewGooglePlacesSourceWithOptions("", nil, "http://127.0.0.1:1", nil)
	_, err := source.Search(context.Background(), center, 7000, providers.DefaultCategories)
	assert.Error(t, err)

	source = NewGooglePlacesSourceWithOptions("k", nil, "http://127.0.0.1:1", nil)
	_, err = source.Search(context.Background(), center, 7000, []string{"bakery"})
	assert.Error(t, err)
}

func TestGooglePlacesSource_SearchUsesCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": []any{place("p1", "Apollo", 12.97, 77.59)}})
	}))
	defer server.Close()

	source := NewGooglePlacesSourceWithOptions("test-key", newMemCache(), server.URL, server.Client())
	for range 2 {
		got, err := source.Search(context.Background(), center, 7000, []string{"pharmacy"})
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGooglePlacesSource_GetDistances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/distancematrix/json", r.URL.Path)
		assert.Equal(t, "driving", r.URL.Query().Get("mode"))
		assert.Equal(t, "12.971600,77.594600", r.URL.Query().Get("origins"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"rows": []any{map[string]any{"elements": []any{
				map[string]any{"status": "OK", "distance": map[string]any{"text": "1.2 km", "value": 1200}, "duration": map[string]any{"text": "5 mins", "value": 300}},
				map[string]any{"status": "NOT_FOUND"},
			}}},
		})
	}))
	defer server.Close()

	source := NewGooglePlacesSourceWithOptions("test-key", nil, server.URL, server.Client())
	got, err := source.GetDistances(context.Background(), center, []entities.Coordinate{
		{Latitude: 12.98, Longitude: 77.60},
		{Latitude: 13.5, Longitude: 78.0},
		{Latitude: 13.6, Longitude: 78.1},
	})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, entities.TravelEstimate{DistanceText: "1.2 km", DurationText: "5 mins", DistanceMeters: 1200, OK: true}, got[0])
	assert.False(t, got[1].OK)
	assert.False(t, got[2].OK)
}

func TestGooglePlacesSource_GetDistancesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OVER_QUERY_LIMIT"})
	}))
	defer server.Close()

	source := NewGooglePlacesSourceWithOptions("test-key", nil, server.URL, server.Client())
	_, err := source.GetDistances(context.Background(), center, []entities.Coordinate{{Latitude: 1, Longitude: 1}})
	assert.Error(t, err)

	empty, err := source.GetDistances(context.Background(), center, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
