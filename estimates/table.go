package estimates

import (
	"errors"
	"fmt"

	"unitcost/models"
)

// MaxBedroomBucket is the largest bedroom bucket; larger units share it.
const MaxBedroomBucket = 4

// BedroomBucket maps a bedroom count to its table bucket. Negative counts
// are unknown and map to models.AnyBedrooms.
func BedroomBucket(bedrooms int) int {
	switch {
	case bedrooms < 0:
		return models.AnyBedrooms
	case bedrooms > MaxBedroomBucket:
		return MaxBedroomBucket
	default:
		return bedrooms
	}
}

type key struct {
	zone     models.Zone
	bedrooms int
}

// Table is an immutable, versioned set of curated market estimates. It is
// safe for concurrent reads; nothing mutates it after NewTable returns.
type Table struct {
	version       string
	hiddenCostBps int64
	fallback      models.MarketEstimate
	entries       map[key]models.MarketEstimate
}

// NewTable validates and copies the given rows into a Table.
// hiddenCostBps is the hidden-cost share of the nominal price in basis points.
func NewTable(version string, hiddenCostBps int64, fallback models.MarketEstimate, entries []models.MarketEstimate) (*Table, error) {
	if version == "" {
		return nil, errors.New("estimates: table version is required")
	}
	if hiddenCostBps < 0 || hiddenCostBps > 10000 {
		return nil, fmt.Errorf("estimates: hidden cost rate %d bps out of range", hiddenCostBps)
	}
	if err := checkAmounts(fallback); err != nil {
		return nil, fmt.Errorf("estimates: default row: %w", err)
	}

	t := &Table{
		version:       version,
		hiddenCostBps: hiddenCostBps,
		fallback:      fallback,
		entries:       make(map[key]models.MarketEstimate, len(entries)),
	}
	t.fallback.Zone = ""
	t.fallback.Bedrooms = models.AnyBedrooms

	for i, e := range entries {
		if !e.Zone.Valid() {
			return nil, fmt.Errorf("estimates: row %d: %w: %q", i, models.ErrUnknownZone, e.Zone)
		}
		if e.Bedrooms != models.AnyBedrooms && (e.Bedrooms < 0 || e.Bedrooms > MaxBedroomBucket) {
			return nil, fmt.Errorf("estimates: row %d: bedroom bucket %d out of range", i, e.Bedrooms)
		}
		if err := checkAmounts(e); err != nil {
			return nil, fmt.Errorf("estimates: row %d: %w", i, err)
		}
		k := key{zone: e.Zone, bedrooms: e.Bedrooms}
		if _, dup := t.entries[k]; dup {
			return nil, fmt.Errorf("estimates: row %d: duplicate entry for %s/%d", i, e.Zone, e.Bedrooms)
		}
		t.entries[k] = e
	}
	return t, nil
}

func checkAmounts(e models.MarketEstimate) error {
	if e.ParkingCost < 0 || e.StorageCost < 0 || e.HOAFeePerM2 < 0 {
		return errors.New("negative amount")
	}
	if e.SampleSize < 0 {
		return errors.New("negative sample size")
	}
	return nil
}

// Version identifies the curated data set.
func (t *Table) Version() string { return t.version }

// HiddenCostBps is the hidden-cost share of the nominal price in basis points.
func (t *Table) HiddenCostBps() int64 { return t.hiddenCostBps }

// Default returns the global default row.
func (t *Table) Default() models.MarketEstimate { return t.fallback }

// Len returns the number of keyed rows, excluding the default.
func (t *Table) Len() int { return len(t.entries) }

// Lookup returns the row stored under exactly (zone, bedrooms).
func (t *Table) Lookup(zone models.Zone, bedrooms int) (models.MarketEstimate, bool) {
	e, ok := t.entries[key{zone: zone, bedrooms: bedrooms}]
	return e, ok
}
