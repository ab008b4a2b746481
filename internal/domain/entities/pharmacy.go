package entities

import "time"

// Pharmacy is the normalized facility returned to clients
type Pharmacy struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Address      string     `json:"address"`
	DistanceText string     `json:"distance_text"`
	DurationText string     `json:"duration_text"`
	DistanceKm   float64    `json:"distance_km"`
	Rating       float64    `json:"rating"`
	IsOpen       bool       `json:"is_open"`
	Phone        string     `json:"phone,omitempty"`
	Coordinate   Coordinate `json:"coordinate"`
	Inventory    []Medicine `json:"inventory"`
	Source       SourceKind `json:"source"`
	DeliveryTime string     `json:"delivery_time"`
	DeliveryFee  float64    `json:"delivery_fee"`
}

// SourceOutcomeKind classifies what happened when a source was consulted
type SourceOutcomeKind string

const (
	OutcomeOK      SourceOutcomeKind = "ok"
	OutcomeEmpty   SourceOutcomeKind = "empty"
	OutcomeFailed  SourceOutcomeKind = "failed"
	OutcomeSkipped SourceOutcomeKind = "skipped"
)

// SourceAttempt records one step of the fallback chain
type SourceAttempt struct {
	Source     SourceKind        `json:"source"`
	Outcome    SourceOutcomeKind `json:"outcome"`
	Error      string            `json:"error,omitempty"`
	Count      int               `json:"count"`
	DurationMs int64             `json:"duration_ms"`
}

// AggregationResult is the output of one nearby-pharmacy resolution
type AggregationResult struct {
	Pharmacies []Pharmacy      `json:"pharmacies"`
	Source     SourceKind      `json:"source,omitempty"`
	Degraded   bool            `json:"degraded"`
	MockData   bool            `json:"mock_data"`
	Attempts   []SourceAttempt `json:"attempts"`
	Origin     Coordinate      `json:"origin"`
	ResolvedAt time.Time       `json:"resolved_at"`
}

// AggregationEvent is published whenever a resolution runs in degraded mode
type AggregationEvent struct {
	ID         string          `json:"id"`
	Source     SourceKind      `json:"source"`
	MockData   bool            `json:"mock_data"`
	Count      int             `json:"count"`
	Origin     Coordinate      `json:"origin"`
	Attempts   []SourceAttempt `json:"attempts"`
	OccurredAt time.Time       `json:"occurred_at"`
}
