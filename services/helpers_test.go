package services

import (
	"time"

	"unitcost/estimates"
	"unitcost/models"
	"unitcost/utils"
)

var testNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func newTestNormalizer() *Normalizer {
	provider := estimates.NewProvider(estimates.DefaultTable(),
		estimates.WithClock(func() time.Time { return testNow }))
	return NewNormalizer(provider, newTestLogger())
}

func newTestMatcher() *Matcher {
	return NewMatcher(newTestNormalizer(), newTestLogger())
}

// fullyPriced returns an active unit whose optional costs are all known, so
// the monthly total is exactly parking + hoa.
func fullyPriced(id string, zone models.Zone, bedrooms int, area float64, price, parking, hoa models.Money) models.Unit {
	return models.Unit{
		ID:           id,
		Project:      "Torre " + id,
		NominalPrice: price,
		AreaM2:       area,
		Bedrooms:     bedrooms,
		Zone:         zone,
		Status:       models.StatusActive,
		ListedAt:     testNow.Add(-48 * time.Hour),
		ParkingPrice: parking,
		StoragePrice: 500000,
		HOAFee:       hoa,
	}
}
