package places

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
)

const (
	googleMapsBaseURL     = "https://maps.googleapis.com/maps/api"
	defaultNearbyCacheTTL = 5 * 60
	defaultHTTPTimeout    = 8 * time.Second
	maxDestinationsPerReq = 25
	maxConcurrentNearby   = 4
)

// googlePlaceTypes maps caller categories onto the Places API type vocabulary.
// Clinics have no dedicated type and are searched as doctors.
var googlePlaceTypes = map[string]string{
	"pharmacy": "pharmacy",
	"hospital": "hospital",
	"doctor":   "doctor",
	"clinic":   "doctor",
}

// GooglePlacesSource is the primary facility source backed by the Google Maps web services
// (Places Nearby Search and Distance Matrix).
type GooglePlacesSource struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      providers.CacheProvider
}

// NewGooglePlacesSource creates the primary source against the public Google endpoint.
func NewGooglePlacesSource(apiKey string, cache providers.CacheProvider) *GooglePlacesSource {
	return NewGooglePlacesSourceWithOptions(apiKey, cache, googleMapsBaseURL, nil)
}

// NewGooglePlacesSourceWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGooglePlacesSourceWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) *GooglePlacesSource {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleMapsBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GooglePlacesSource{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cache:      cache,
	}
}

var (
	_ providers.PlacesSource           = (*GooglePlacesSource)(nil)
	_ providers.DistanceMatrixProvider = (*GooglePlacesSource)(nil)
)

// Name identifies the source
func (g *GooglePlacesSource) Name() entities.SourceKind {
	return entities.SourcePrimary
}

// Search issues one Nearby Search per place type concurrently, then merges the answers in
// category order and drops repeated place ids. It fails only when every query fails.
func (g *GooglePlacesSource) Search(ctx context.Context, center entities.Coordinate, radiusMeters int, categories []string) ([]entities.RawFacility, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}

	types := placeTypes(categories)
	if len(types) == 0 {
		return nil, fmt.Errorf("no supported place categories in %v", categories)
	}

	results := make([][]googlePlace, len(types))
	errs := make([]error, len(types))

	// Every query runs to completion; one failed type must not cancel the others.
	var group errgroup.Group
	group.SetLimit(maxConcurrentNearby)
	for i, placeType := range types {
		group.Go(func() error {
			places, err := g.nearby(ctx, center, radiusMeters, placeType)
			if err != nil {
				observability.LoggerFromContext(ctx).Debug().Err(err).Str("type", placeType).Msg("nearby search failed")
				errs[i] = fmt.Errorf("%s: %w", placeType, err)
				return errs[i]
			}
			results[i] = places
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if countErrors(errs) == len(types) {
			return nil, fmt.Errorf("all nearby searches failed: %w", errors.Join(errs...))
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Int("failed", countErrors(errs)).Int("queries", len(types)).Msg("partial nearby search results")
	}

	seen := make(map[string]struct{})
	var facilities []entities.RawFacility
	for _, places := range results {
		for _, p := range places {
			if p.PlaceID == "" {
				continue
			}
			if _, dup := seen[p.PlaceID]; dup {
				continue
			}
			seen[p.PlaceID] = struct{}{}
			facilities = append(facilities, p.toFacility())
		}
	}
	return facilities, nil
}

// GetDistances queries the Distance Matrix API for driving distance from origin to each
// destination, batching destinations to the per-request limit. Cells the API could not
// route come back with OK=false.
func (g *GooglePlacesSource) GetDistances(ctx context.Context, origin entities.Coordinate, destinations []entities.Coordinate) ([]entities.TravelEstimate, error) {
	if len(destinations) == 0 {
		return []entities.TravelEstimate{}, nil
	}
	if g.apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}

	estimates := make([]entities.TravelEstimate, 0, len(destinations))
	for start := 0; start < len(destinations); start += maxDestinationsPerReq {
		end := min(start+maxDestinationsPerReq, len(destinations))
		batch, err := g.distanceBatch(ctx, origin, destinations[start:end])
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, batch...)
	}
	return estimates, nil
}

func (g *GooglePlacesSource) distanceBatch(ctx context.Context, origin entities.Coordinate, destinations []entities.Coordinate) ([]entities.TravelEstimate, error) {
	dests := make([]string, len(destinations))
	for i, d := range destinations {
		dests[i] = latLng(d)
	}

	params := url.Values{}
	params.Set("origins", latLng(origin))
	params.Set("destinations", strings.Join(dests, "|"))
	params.Set("mode", "driving")
	params.Set("units", "metric")

	var payload googleDistanceMatrixResponse
	if err := g.getJSON(ctx, "/distancematrix/json", params, &payload); err != nil {
		return nil, fmt.Errorf("distance matrix request failed: %w", err)
	}
	if payload.Status != "OK" {
		return nil, statusError("distance matrix", payload.Status, payload.ErrorMessage)
	}
	if len(payload.Rows) == 0 {
		return nil, fmt.Errorf("distance matrix returned no rows")
	}

	elements := payload.Rows[0].Elements
	estimates := make([]entities.TravelEstimate, len(destinations))
	for i := range estimates {
		if i >= len(elements) {
			continue
		}
		el := elements[i]
		if el.Status != "OK" || el.Distance.Text == "" || el.Duration.Text == "" {
			continue
		}
		estimates[i] = entities.TravelEstimate{
			DistanceText:   el.Distance.Text,
			DurationText:   el.Duration.Text,
			DistanceMeters: el.Distance.Value,
			OK:             true,
		}
	}
	return estimates, nil
}

func (g *GooglePlacesSource) nearby(ctx context.Context, center entities.Coordinate, radiusMeters int, placeType string) ([]googlePlace, error) {
	cacheKey := "places:v1:nearby:" + hashKey(fmt.Sprintf("%.4f,%.4f|%d|%s", center.Latitude, center.Longitude, radiusMeters, placeType))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var places []googlePlace
			if err := json.Unmarshal(cached, &places); err == nil {
				return places, nil
			}
		}
	}

	params := url.Values{}
	params.Set("location", latLng(center))
	params.Set("radius", strconv.Itoa(radiusMeters))
	params.Set("type", placeType)

	var payload googleNearbyResponse
	if err := g.getJSON(ctx, "/place/nearbysearch/json", params, &payload); err != nil {
		return nil, fmt.Errorf("nearby search request failed: %w", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []googlePlace{}, nil
	default:
		return nil, statusError("nearby search", payload.Status, payload.ErrorMessage)
	}

	if g.cache != nil {
		if data, err := json.Marshal(payload.Results); err == nil {
			_ = g.cache.Set(ctx, cacheKey, data, defaultNearbyCacheTTL)
		}
	}
	return payload.Results, nil
}

func (g *GooglePlacesSource) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", g.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func placeTypes(categories []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range categories {
		t, ok := googlePlaceTypes[strings.ToLower(strings.TrimSpace(c))]
		if !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func statusError(op, status, message string) error {
	if message != "" {
		return fmt.Errorf("%s failed: %s - %s", op, status, message)
	}
	return fmt.Errorf("%s failed: %s", op, status)
}

func latLng(c entities.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func (p googlePlace) toFacility() *entities.PrimaryFacility {
	f := &entities.PrimaryFacility{
		PlaceID:  p.PlaceID,
		Name:     p.Name,
		Vicinity: p.Vicinity,
		Coord: entities.Coordinate{
			Latitude:  p.Geometry.Location.Lat,
			Longitude: p.Geometry.Location.Lng,
		},
		Rating: p.Rating,
		Phone:  p.FormattedPhoneNumber,
		Types:  p.Types,
	}
	if p.OpeningHours != nil {
		f.OpenNow = p.OpeningHours.OpenNow
	}
	return f
}

type googleNearbyResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Results      []googlePlace `json:"results"`
}

type googlePlace struct {
	PlaceID              string              `json:"place_id"`
	Name                 string              `json:"name"`
	Vicinity             string              `json:"vicinity"`
	Geometry             googleGeometry      `json:"geometry"`
	Rating               *float64            `json:"rating,omitempty"`
	OpeningHours         *googleOpeningHours `json:"opening_hours,omitempty"`
	FormattedPhoneNumber string              `json:"formatted_phone_number,omitempty"`
	Types                []string            `json:"types,omitempty"`
}

type googleOpeningHours struct {
	OpenNow *bool `json:"open_now,omitempty"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleDistanceMatrixResponse struct {
	Status       string                    `json:"status"`
	ErrorMessage string                    `json:"error_message,omitempty"`
	Rows         []googleDistanceMatrixRow `json:"rows"`
}

type googleDistanceMatrixRow struct {
	Elements []googleDistanceMatrixElement `json:"elements"`
}

type googleDistanceMatrixElement struct {
	Status   string            `json:"status"`
	Distance googleTextedValue `json:"distance"`
	Duration googleTextedValue `json:"duration"`
}

type googleTextedValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

func countErrors(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}
