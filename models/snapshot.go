package models

import "time"

// ExchangeRate is an official/parallel quote pair. PreviousParallel is the
// parallel quote observed roughly 24h earlier, zero when unknown.
type ExchangeRate struct {
	Official         float64
	Parallel         float64
	PreviousParallel float64
	Timestamp        time.Time
}

// MarketSnapshot holds the dashboard counters and currency-adjusted prices.
type MarketSnapshot struct {
	NewListings int
	PriceDrops  int
	Withdrawn   int
	ActiveUnits int

	Rate             ExchangeRate
	RateVariation24h float64

	NominalPrice      Money
	RealPrice         Money
	NominalPricePerM2 Money
	RealPricePerM2    Money

	Degraded    bool
	GeneratedAt time.Time
}
