// Package geo holds the small geographic helpers the aggregation pipeline leans on when an
// upstream provider leaves out distance data.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// MinutesPerKm converts a straight-line distance into a travel estimate.
const MinutesPerKm = 3.0

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLng := toRadians(lng2 - lng1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// FormatDistance renders a distance as "<N.N> km".
func FormatDistance(km float64) string {
	return fmt.Sprintf("%.1f km", km)
}

// EstimateMinutes approximates travel time as a fixed multiple of distance, rounded up.
// The product is rounded to three decimals first so float noise cannot add a minute.
func EstimateMinutes(km float64) int {
	minutes := math.Round(km*MinutesPerKm*1000) / 1000
	return int(math.Ceil(minutes))
}

// FormatDuration renders minutes as "<N> mins".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%d mins", minutes)
}

// Estimate returns the distance and duration text used when no provider data is available.
func Estimate(lat1, lng1, lat2, lng2 float64) (distanceText, durationText string, km float64) {
	km = HaversineKm(lat1, lng1, lat2, lng2)
	return FormatDistance(km), FormatDuration(EstimateMinutes(km)), km
}

// DeliveryTime returns the delivery window for an order shipped over the given distance.
func DeliveryTime(km float64) string {
	switch {
	case km < 2:
		return "15-25 mins"
	case km < 5:
		return "25-40 mins"
	case km < 10:
		return "45-60 mins"
	default:
		return "Next day"
	}
}

// DeliveryFee returns the delivery fee for the given distance.
func DeliveryFee(km float64) float64 {
	switch {
	case km < 2:
		return 2.99
	case km < 5:
		return 4.99
	case km < 10:
		return 7.99
	default:
		return 12.99
	}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
