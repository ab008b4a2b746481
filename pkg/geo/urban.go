package geo

import "math"

// UrbanClassifier flags coordinates as urban when both absolute latitude and longitude
// exceed the configured magnitudes. It is a coarse regional heuristic, not a land-use lookup.
type UrbanClassifier struct {
	MinAbsLatitude  float64
	MinAbsLongitude float64
}

// DefaultUrbanClassifier matches the thresholds tuned for the India deployment.
func DefaultUrbanClassifier() UrbanClassifier {
	return UrbanClassifier{MinAbsLatitude: 10, MinAbsLongitude: 60}
}

// IsUrban reports whether the coordinate falls in the urban band.
func (u UrbanClassifier) IsUrban(lat, lng float64) bool {
	return math.Abs(lat) > u.MinAbsLatitude && math.Abs(lng) > u.MinAbsLongitude
}

type cityBox struct {
	name           string
	minLat, maxLat float64
	minLng, maxLng float64
}

var knownCities = []cityBox{
	{"New York, NY", 40.7, 40.8, -74.1, -73.9},
	{"Los Angeles, CA", 34.0, 34.1, -118.3, -118.2},
	{"Chicago, IL", 41.8, 41.9, -87.7, -87.6},
	{"Houston, TX", 29.7, 29.8, -95.4, -95.3},
	{"Phoenix, AZ", 33.4, 33.5, -112.1, -112.0},
	{"Bengaluru, KA", 12.8, 13.1, 77.4, 77.8},
	{"New Delhi, DL", 28.4, 28.9, 76.8, 77.4},
}

// LocationName returns a human label for well-known city boxes, or "Local Area".
func LocationName(lat, lng float64) string {
	for _, c := range knownCities {
		if lat >= c.minLat && lat <= c.maxLat && lng >= c.minLng && lng <= c.maxLng {
			return c.name
		}
	}
	return "Local Area"
}
