package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
)

const (
	overpassDefaultURL    = "https://overpass-api.de/api/interpreter"
	overpassServerTimeout = 25
	noAddress             = "Address not specified"
)

// overpassAmenities maps caller categories onto OSM amenity values.
var overpassAmenities = map[string]string{
	"pharmacy": "pharmacy",
	"hospital": "hospital",
	"clinic":   "clinic",
	"doctor":   "clinic",
}

// OverpassSource is the fallback facility source backed by the OpenStreetMap Overpass API.
// It needs no credentials, so requests are throttled to respect the public instance.
type OverpassSource struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOverpassSource creates the fallback source. requestsPerMinute <= 0 disables throttling.
func NewOverpassSource(endpoint string, requestsPerMinute int) *OverpassSource {
	return NewOverpassSourceWithOptions(endpoint, requestsPerMinute, nil)
}

// NewOverpassSourceWithOptions allows overriding the HTTP client (used for tests).
func NewOverpassSourceWithOptions(endpoint string, requestsPerMinute int, httpClient *http.Client) *OverpassSource {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = overpassDefaultURL
	}
	if httpClient == nil {
		// Overpass declares its own 25s server timeout; the caller's context is the real bound.
		httpClient = &http.Client{Timeout: (overpassServerTimeout + 5) * time.Second}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return &OverpassSource{
		endpoint:   endpoint,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

var _ providers.PlacesSource = (*OverpassSource)(nil)

// Name identifies the source
func (o *OverpassSource) Name() entities.SourceKind {
	return entities.SourceFallback
}

// Search posts one tag-filtered query and returns named elements with a usable location.
func (o *OverpassSource) Search(ctx context.Context, center entities.Coordinate, radiusMeters int, categories []string) ([]entities.RawFacility, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("overpass rate limit: %w", err)
	}

	form := url.Values{}
	form.Set("data", buildOverpassQuery(center, radiusMeters, categories))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("overpass request returned status %d", resp.StatusCode)
	}

	var payload overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	facilities := make([]entities.RawFacility, 0, len(payload.Elements))
	for _, el := range payload.Elements {
		if f, ok := el.toFacility(); ok {
			facilities = append(facilities, f)
		}
	}
	return facilities, nil
}

func buildOverpassQuery(center entities.Coordinate, radiusMeters int, categories []string) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radiusMeters, center.Latitude, center.Longitude)

	seen := make(map[string]struct{})
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", overpassServerTimeout)
	for _, c := range categories {
		amenity, ok := overpassAmenities[strings.ToLower(strings.TrimSpace(c))]
		if !ok {
			continue
		}
		if _, dup := seen[amenity]; dup {
			continue
		}
		seen[amenity] = struct{}{}
		fmt.Fprintf(&b, "  node[\"amenity\"=%q]%s;\n", amenity, around)
		fmt.Fprintf(&b, "  way[\"amenity\"=%q]%s;\n", amenity, around)
	}
	fmt.Fprintf(&b, "  node[\"healthcare\"]%s;\n", around)
	fmt.Fprintf(&b, "  way[\"healthcare\"]%s;\n", around)
	b.WriteString(");\nout center;\n")
	return b.String()
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (el overpassElement) toFacility() (*entities.FallbackFacility, bool) {
	if len(el.Tags) == 0 {
		return nil, false
	}
	name := firstTag(el.Tags, "name", "name:en")
	if name == "" {
		return nil, false
	}

	lat, lon := el.Lat, el.Lon
	if lat == 0 && lon == 0 && el.Center != nil {
		lat, lon = el.Center.Lat, el.Center.Lon
	}
	if lat == 0 || lon == 0 {
		return nil, false
	}

	return &entities.FallbackFacility{
		ElementID: "osm_" + strconv.FormatInt(el.ID, 10),
		Name:      name,
		Kind:      classifyElement(el.Tags),
		Address:   formatOSMAddress(el.Tags),
		Coord:     entities.Coordinate{Latitude: lat, Longitude: lon},
		Phone:     firstTag(el.Tags, "phone", "contact:phone"),
		Website:   firstTag(el.Tags, "website", "contact:website"),
	}, true
}

func classifyElement(tags map[string]string) entities.FacilityKind {
	switch {
	case tags["amenity"] == "pharmacy" || tags["healthcare"] == "pharmacy":
		return entities.FacilityPharmacy
	case tags["amenity"] == "hospital" || tags["healthcare"] == "hospital":
		return entities.FacilityHospital
	default:
		return entities.FacilityClinic
	}
}

func formatOSMAddress(tags map[string]string) string {
	var parts []string
	for _, key := range []string{"addr:street", "addr:housenumber", "addr:suburb", "addr:city"} {
		if v := strings.TrimSpace(tags[key]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return noAddress
	}
	return strings.Join(parts, ", ")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}
