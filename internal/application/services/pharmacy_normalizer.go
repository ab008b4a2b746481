package services

import (
	"math"
	"strings"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

const (
	primaryIDPrefix       = "gp_"
	defaultPrimaryRating  = 4.0
	defaultFallbackRating = 4.2
	addressNotSpecified   = "Address not specified"
)

// normalizeFacility maps any RawFacility variant onto the Pharmacy shape. Distance, inventory
// and delivery fields are filled in later by the aggregation service.
func normalizeFacility(f entities.RawFacility) entities.Pharmacy {
	switch v := f.(type) {
	case *entities.PrimaryFacility:
		return normalizePrimary(v)
	case *entities.FallbackFacility:
		return normalizeFallback(v)
	case *entities.MockFacility:
		return normalizeMock(v)
	default:
		// unreachable: RawFacility is sealed
		panic("unknown facility variant")
	}
}

func normalizePrimary(f *entities.PrimaryFacility) entities.Pharmacy {
	rating := defaultPrimaryRating
	if f.Rating != nil {
		rating = *f.Rating
	}
	open := true
	if f.OpenNow != nil {
		open = *f.OpenNow
	}
	return entities.Pharmacy{
		ID:         primaryIDPrefix + f.PlaceID,
		Name:       f.Name,
		Address:    addressOrDefault(f.Vicinity),
		Rating:     clampRating(rating),
		IsOpen:     open,
		Phone:      f.Phone,
		Coordinate: f.Coord,
		Source:     entities.SourcePrimary,
	}
}

// Open-map elements carry no rating or live opening state.
func normalizeFallback(f *entities.FallbackFacility) entities.Pharmacy {
	return entities.Pharmacy{
		ID:         f.ElementID,
		Name:       f.Name,
		Address:    addressOrDefault(f.Address),
		Rating:     defaultFallbackRating,
		IsOpen:     true,
		Phone:      f.Phone,
		Coordinate: f.Coord,
		Source:     entities.SourceFallback,
	}
}

func normalizeMock(f *entities.MockFacility) entities.Pharmacy {
	return entities.Pharmacy{
		ID:           f.ID,
		Name:         f.Name,
		Address:      addressOrDefault(f.Address),
		DistanceText: f.DistanceText,
		DurationText: f.DurationText,
		DistanceKm:   f.DistanceKm,
		Rating:       clampRating(f.Rating),
		IsOpen:       f.IsOpen,
		Phone:        f.Phone,
		Coordinate:   f.Coord,
		Source:       entities.SourceMock,
	}
}

func addressOrDefault(address string) string {
	if strings.TrimSpace(address) == "" {
		return addressNotSpecified
	}
	return address
}

func clampRating(r float64) float64 {
	if math.IsNaN(r) {
		return defaultPrimaryRating
	}
	return math.Round(math.Max(1, math.Min(5, r))*10) / 10
}
