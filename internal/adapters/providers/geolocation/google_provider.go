package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	apperrors "github.com/ruralhealth/pharmacy-discovery/pkg/errors"
)

const (
	googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
	geocodeCacheTTL  = 60 * 60 * 24 * 30
	geocodeTimeout   = 8 * time.Second
	geocodeCacheName = "geocode"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// GoogleGeolocationProvider resolves patient-entered addresses with the Google Geocoding API.
// Fixes are cached because patients tend to search the same village or landmark repeatedly.
type GoogleGeolocationProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      providers.CacheProvider
}

// NewGoogleGeolocationProvider creates a provider against the public endpoint. cache may be nil.
func NewGoogleGeolocationProvider(apiKey string, cache providers.CacheProvider) *GoogleGeolocationProvider {
	return NewGoogleGeolocationProviderWithOptions(apiKey, cache, googleGeocodeURL, nil)
}

// NewGoogleGeolocationProviderWithOptions overrides the endpoint and HTTP client
func NewGoogleGeolocationProviderWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) *GoogleGeolocationProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: geocodeTimeout}
	}
	return &GoogleGeolocationProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      cache,
	}
}

var _ providers.GeolocationProvider = (*GoogleGeolocationProvider)(nil)

// Geocode returns the best match for address. A full match is preferred over a partial one.
// ZERO_RESULTS is reported as NOT_FOUND, any other upstream failure as EXTERNAL.
func (g *GoogleGeolocationProvider) Geocode(ctx context.Context, address string) (*entities.Coordinate, error) {
	query := normalizeAddress(address)
	if query == "" {
		return nil, apperrors.NewValidationError("address is required")
	}
	if g.apiKey == "" {
		return nil, apperrors.NewInternalError("google maps api key is required", nil)
	}

	key := "geo:v4:geocode:" + hashKey(strings.ToLower(query))
	if coord, ok := g.cached(ctx, key); ok {
		return coord, nil
	}

	payload, err := g.lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	match := bestMatch(payload.Results)
	coord := entities.Coordinate{Latitude: match.Geometry.Location.Lat, Longitude: match.Geometry.Location.Lng}
	if err := coord.Validate(); err != nil {
		return nil, apperrors.NewExternalError("geocoder returned an invalid coordinate", err)
	}
	if match.PartialMatch {
		observability.LoggerFromContext(ctx).Debug().
			Str("formatted_address", match.FormattedAddress).
			Msg("geocoder returned a partial match")
	}

	g.store(ctx, key, coord)
	return &coord, nil
}

func (g *GoogleGeolocationProvider) cached(ctx context.Context, key string) (*entities.Coordinate, bool) {
	if g.cache == nil {
		return nil, false
	}
	raw, err := g.cache.Get(ctx, key)
	if err != nil || len(raw) == 0 {
		if err != nil && !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("geocode cache read failed")
		}
		observability.RecordCacheMiss(ctx, geocodeCacheName)
		return nil, false
	}
	var coord entities.Coordinate
	if err := json.Unmarshal(raw, &coord); err != nil || coord.IsZero() {
		observability.RecordCacheMiss(ctx, geocodeCacheName)
		return nil, false
	}
	observability.RecordCacheHit(ctx, geocodeCacheName)
	return &coord, true
}

func (g *GoogleGeolocationProvider) store(ctx context.Context, key string, coord entities.Coordinate) {
	if g.cache == nil {
		return
	}
	raw, err := json.Marshal(coord)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, raw, geocodeCacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("geocode cache write failed")
	}
}

func (g *GoogleGeolocationProvider) lookup(ctx context.Context, address string) (*geocodeResponse, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build geocode request", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError("geocode request failed", fmt.Errorf("status %d", resp.StatusCode))
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalError("failed to decode geocode response", err)
	}

	switch {
	case payload.Status == statusZeroResults, payload.Status == statusOK && len(payload.Results) == 0:
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no geocoding match for %q (%s)", address, payload.Status))
	case payload.Status != statusOK:
		detail := payload.Status
		if payload.ErrorMessage != "" {
			detail += " - " + payload.ErrorMessage
		}
		return nil, apperrors.NewExternalError("geocode request rejected", errors.New(detail))
	}
	return &payload, nil
}

func bestMatch(results []geocodeResult) geocodeResult {
	for _, r := range results {
		if !r.PartialMatch {
			return r
		}
	}
	return results[0]
}

// normalizeAddress trims and collapses internal whitespace so cache keys are stable
func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(address), " ")
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	PartialMatch     bool   `json:"partial_match"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}
