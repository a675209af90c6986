package estimates

import (
	"time"

	"github.com/shopspring/decimal"

	"unitcost/models"
)

const (
	// DefaultStalenessWindow is how long a curated row stays usable.
	DefaultStalenessWindow = 365 * 24 * time.Hour
	// DefaultMinSampleSize is the smallest sample that backs a keyed row.
	DefaultMinSampleSize = 3
	// TypicalAreaM2 stands in for the area of a unit whose size is unknown
	// when estimating its HOA fee.
	TypicalAreaM2 = 75.0
)

// Provider resolves fallback cost estimates from a Table. Resolvers never
// fail: when no usable keyed row exists they widen to the global default.
type Provider struct {
	table     *Table
	now       func() time.Time
	staleness time.Duration
	minSample int
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock sets the time source used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithStalenessWindow overrides DefaultStalenessWindow.
func WithStalenessWindow(d time.Duration) Option {
	return func(p *Provider) { p.staleness = d }
}

// WithMinSampleSize overrides DefaultMinSampleSize.
func WithMinSampleSize(n int) Option {
	return func(p *Provider) { p.minSample = n }
}

// NewProvider creates a Provider over table.
func NewProvider(table *Table, opts ...Option) *Provider {
	p := &Provider{
		table:     table,
		now:       time.Now,
		staleness: DefaultStalenessWindow,
		minSample: DefaultMinSampleSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Table returns the table the provider reads from.
func (p *Provider) Table() *Table { return p.table }

// step is one rung of the widening chain.
type step struct {
	bedrooms   int
	confidence models.Confidence
	level      models.MatchLevel
}

// resolve walks the chain for zone and returns the first usable row, or the
// global default with low confidence.
func (p *Provider) resolve(zone models.Zone, chain []step) (models.MarketEstimate, models.Confidence, models.MatchLevel) {
	if zone.Valid() {
		for _, s := range chain {
			e, ok := p.table.Lookup(zone, s.bedrooms)
			if ok && p.usable(e) {
				return e, s.confidence, s.level
			}
		}
	}
	return p.table.Default(), models.ConfidenceLow, models.LevelDefault
}

// usable reports whether a keyed row is fresh and backed by enough samples.
func (p *Provider) usable(e models.MarketEstimate) bool {
	if e.SampleSize < p.minSample {
		return false
	}
	if e.UpdatedAt.IsZero() {
		return false
	}
	return p.now().Sub(e.UpdatedAt) <= p.staleness
}

// ResolveParking estimates the monthly parking cost. Widening order is
// (zone, bedrooms) then zone then the default.
func (p *Provider) ResolveParking(zone models.Zone, bedrooms int) models.Estimate {
	chain := []step{
		{bedrooms: models.AnyBedrooms, confidence: models.ConfidenceMedium, level: models.LevelZone},
	}
	if b := BedroomBucket(bedrooms); b != models.AnyBedrooms {
		chain = append([]step{{bedrooms: b, confidence: models.ConfidenceHigh, level: models.LevelExact}}, chain...)
	}
	e, conf, level := p.resolve(zone, chain)
	return models.Estimate{Amount: nonNegative(e.ParkingCost), Confidence: conf, Level: level}
}

// ResolveStorage estimates the one-time storage unit cost for a zone.
func (p *Provider) ResolveStorage(zone models.Zone) models.Estimate {
	e, conf, level := p.resolve(zone, zoneChain)
	return models.Estimate{Amount: nonNegative(e.StorageCost), Confidence: conf, Level: level}
}

// ResolveHOA estimates the monthly HOA fee for a unit of areaM2 in zone.
// The table stores a per-m² rate; the product rounds half-up. A unit with
// unknown area is priced at TypicalAreaM2 with low confidence.
func (p *Provider) ResolveHOA(zone models.Zone, areaM2 float64) models.Estimate {
	e, conf, level := p.resolve(zone, zoneChain)
	if areaM2 <= 0 {
		areaM2 = TypicalAreaM2
		conf, level = models.ConfidenceLow, models.LevelDefault
	}
	amount := models.RoundMoney(e.HOAFeePerM2.Decimal().Mul(decimal.NewFromFloat(areaM2)))
	return models.Estimate{Amount: nonNegative(amount), Confidence: conf, Level: level}
}

// ResolveHiddenCosts estimates one-time closing costs as a fixed share of
// the nominal price, rounded half-up to the minor unit.
func (p *Provider) ResolveHiddenCosts(price models.Money) models.Estimate {
	amount := models.Money(0)
	if price > 0 {
		amount = models.RoundMoney(price.Decimal().
			Mul(decimal.NewFromInt(p.table.HiddenCostBps())).
			Div(decimal.NewFromInt(10000)))
	}
	return models.Estimate{Amount: amount, Confidence: models.ConfidenceLow, Level: models.LevelRule}
}

var zoneChain = []step{
	{bedrooms: models.AnyBedrooms, confidence: models.ConfidenceHigh, level: models.LevelZone},
}

func nonNegative(m models.Money) models.Money {
	if m < 0 {
		return 0
	}
	return m
}
