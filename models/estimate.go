package models

import "time"

// AnyBedrooms marks a zone-level estimate that applies to every bedroom count.
const AnyBedrooms = -1

// MarketEstimate is one curated row of the estimate table.
type MarketEstimate struct {
	Zone        Zone
	Bedrooms    int
	ParkingCost Money
	StorageCost Money
	HOAFeePerM2 Money
	SampleSize  int
	UpdatedAt   time.Time
}

// Confidence grades how directly a figure was observed.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "none"
	}
}

// MatchLevel records which key of the widening chain produced an estimate.
type MatchLevel string

const (
	LevelExact   MatchLevel = "exact"
	LevelZone    MatchLevel = "zone"
	LevelDefault MatchLevel = "default"
	LevelRule    MatchLevel = "rule"
)

// Estimate is a resolved fallback figure.
type Estimate struct {
	Amount     Money
	Confidence Confidence
	Level      MatchLevel
}
