package services

import (
	"time"

	"github.com/shopspring/decimal"

	"unitcost/models"
	"unitcost/utils"
)

// NewListingWindow is the trailing window for counting new listings.
const NewListingWindow = 24 * time.Hour

// SnapshotAggregator computes dashboard counters and currency-adjusted prices.
type SnapshotAggregator struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewSnapshotAggregator creates a SnapshotAggregator using the wall clock.
func NewSnapshotAggregator(logger *utils.Logger) *SnapshotAggregator {
	return &SnapshotAggregator{logger: logger, now: time.Now}
}

// WithClock returns a copy of the aggregator that reads time from now.
func (s *SnapshotAggregator) WithClock(now func() time.Time) *SnapshotAggregator {
	return &SnapshotAggregator{logger: s.logger, now: now}
}

// RealPrice converts a nominal price by official/parallel. When either rate
// is missing the nominal price is returned unchanged and degraded is true.
func RealPrice(nominal models.Money, rate models.ExchangeRate) (adjusted models.Money, degraded bool) {
	if rate.Parallel <= 0 || rate.Official <= 0 {
		return nominal, true
	}
	ratio := decimal.NewFromFloat(rate.Official).Div(decimal.NewFromFloat(rate.Parallel))
	return models.RoundMoney(nominal.Decimal().Mul(ratio)), false
}

// Snapshot compares the current units with the previously observed state of
// each unit. previous may be nil, in which case every counter is zero.
func (s *SnapshotAggregator) Snapshot(units []models.Unit, previous map[string]models.PriorState, rate models.ExchangeRate) models.MarketSnapshot {
	now := s.now()
	snap := models.MarketSnapshot{Rate: rate, GeneratedAt: now}

	var priceSum, areaSum decimal.Decimal
	pricedUnits := 0

	for _, u := range units {
		if u.Active() {
			snap.ActiveUnits++
			if u.NominalPrice > 0 {
				priceSum = priceSum.Add(u.NominalPrice.Decimal())
				pricedUnits++
				if u.AreaM2 > 0 {
					areaSum = areaSum.Add(decimal.NewFromFloat(u.AreaM2))
				}
			}
		}

		if len(previous) == 0 {
			continue
		}
		prior, seen := previous[u.ID]
		switch {
		case !seen:
			if u.Active() && (u.ListedAt.IsZero() || now.Sub(u.ListedAt) <= NewListingWindow) {
				snap.NewListings++
			}
		case u.Status == models.StatusWithdrawn:
			if prior.Status == models.StatusActive {
				snap.Withdrawn++
			}
		case prior.Price > 0 && u.NominalPrice > 0 && u.NominalPrice < prior.Price:
			snap.PriceDrops++
		}
	}

	if pricedUnits > 0 {
		snap.NominalPrice = models.RoundMoney(priceSum.Div(decimal.NewFromInt(int64(pricedUnits))))
	}
	if areaSum.IsPositive() {
		snap.NominalPricePerM2 = models.RoundMoney(pricedAreaSum(units).Div(areaSum))
	}

	var degraded bool
	snap.RealPrice, degraded = RealPrice(snap.NominalPrice, rate)
	snap.RealPricePerM2, _ = RealPrice(snap.NominalPricePerM2, rate)
	snap.Degraded = degraded
	snap.RateVariation24h = rateVariation(rate)

	if snap.Degraded {
		s.logger.Warn("[snapshot] exchange rate unavailable (official %.4f, parallel %.4f), real prices not adjusted",
			rate.Official, rate.Parallel)
	}
	s.logger.Info("[snapshot] %d active | %d new | %d price drops | %d withdrawn",
		snap.ActiveUnits, snap.NewListings, snap.PriceDrops, snap.Withdrawn)
	return snap
}

// pricedAreaSum sums the prices of active units that also have an area, so
// price per m² is computed over the same set of units on both sides.
func pricedAreaSum(units []models.Unit) decimal.Decimal {
	sum := decimal.Zero
	for _, u := range units {
		if u.Active() && u.NominalPrice > 0 && u.AreaM2 > 0 {
			sum = sum.Add(u.NominalPrice.Decimal())
		}
	}
	return sum
}

// rateVariation is the 24h percent change of the parallel rate, rounded to
// two decimals. Zero when either quote is unknown.
func rateVariation(rate models.ExchangeRate) float64 {
	if rate.PreviousParallel <= 0 || rate.Parallel <= 0 {
		return 0
	}
	return round2((rate.Parallel - rate.PreviousParallel) / rate.PreviousParallel * 100)
}
