package entities

// SourceKind identifies which upstream produced a facility
type SourceKind string

const (
	SourcePrimary  SourceKind = "Primary"
	SourceFallback SourceKind = "Fallback"
	SourceMock     SourceKind = "Mock"
)

// FacilityKind is the healthcare category of a facility
type FacilityKind string

const (
	FacilityPharmacy FacilityKind = "pharmacy"
	FacilityHospital FacilityKind = "hospital"
	FacilityClinic   FacilityKind = "clinic"
	FacilityDoctor   FacilityKind = "doctor"
)

// RawFacility is a source-specific facility record. The set of implementations is closed:
// PrimaryFacility, FallbackFacility and MockFacility. Adapters never hand anything else to
// the aggregation service.
type RawFacility interface {
	Source() SourceKind
	SourceID() string
	Location() Coordinate
	DisplayName() string
	rawFacility()
}

// PrimaryFacility is a result from the commercial places API.
type PrimaryFacility struct {
	PlaceID  string
	Name     string
	Vicinity string
	Coord    Coordinate
	Rating   *float64
	OpenNow  *bool
	Phone    string
	Types    []string
}

func (f *PrimaryFacility) Source() SourceKind   { return SourcePrimary }
func (f *PrimaryFacility) SourceID() string     { return f.PlaceID }
func (f *PrimaryFacility) Location() Coordinate { return f.Coord }
func (f *PrimaryFacility) DisplayName() string  { return f.Name }
func (f *PrimaryFacility) rawFacility()         {}

// FallbackFacility is an element from the open geographic database.
type FallbackFacility struct {
	ElementID string
	Name      string
	Kind      FacilityKind
	Address   string
	Coord     Coordinate
	Phone     string
	Website   string
}

func (f *FallbackFacility) Source() SourceKind   { return SourceFallback }
func (f *FallbackFacility) SourceID() string     { return f.ElementID }
func (f *FallbackFacility) Location() Coordinate { return f.Coord }
func (f *FallbackFacility) DisplayName() string  { return f.Name }
func (f *FallbackFacility) rawFacility()         {}

// MockFacility is a synthesized facility. Unlike the real sources it already carries
// distance and duration since they are part of the synthetic fixture.
type MockFacility struct {
	ID           string
	Name         string
	Address      string
	Coord        Coordinate
	Rating       float64
	IsOpen       bool
	Phone        string
	DistanceKm   float64
	DistanceText string
	DurationText string
}

func (f *MockFacility) Source() SourceKind   { return SourceMock }
func (f *MockFacility) SourceID() string     { return f.ID }
func (f *MockFacility) Location() Coordinate { return f.Coord }
func (f *MockFacility) DisplayName() string  { return f.Name }
func (f *MockFacility) rawFacility()         {}

// TravelEstimate is one distance-matrix cell. OK is false when the provider had no route.
type TravelEstimate struct {
	DistanceText   string
	DurationText   string
	DistanceMeters int
	OK             bool
}
