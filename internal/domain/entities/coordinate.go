package entities

import (
	"fmt"
	"math"

	"github.com/ruralhealth/pharmacy-discovery/pkg/geo"
)

// Coordinate represents a geographical point in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate is finite and within the WGS84 range.
func (c Coordinate) Validate() error {
	if !isFinite(c.Latitude) || !isFinite(c.Longitude) {
		return fmt.Errorf("coordinate %v,%v is not a finite number", c.Latitude, c.Longitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Longitude)
	}
	return nil
}

// IsZero reports whether the coordinate is the (0,0) placeholder upstream APIs use for "unknown".
func (c Coordinate) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// DistanceKm returns the haversine distance to another coordinate.
func (c Coordinate) DistanceKm(to Coordinate) float64 {
	return geo.HaversineKm(c.Latitude, c.Longitude, to.Latitude, to.Longitude)
}

// String formats the coordinate as "lat,lng" for provider query strings.
func (c Coordinate) String() string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
