package estimates

import (
	"time"

	"unitcost/models"
)

// DefaultVersion identifies the built-in curated table.
const DefaultVersion = "scz-2026.2"

// DefaultHiddenCostBps is the built-in hidden-cost share: notary, transfer
// tax and registry fees run close to 3.5% of the price in Santa Cruz.
const DefaultHiddenCostBps = 350

var curatedAt = time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)

// DefaultTable returns the built-in curated estimate table. Amounts are in
// US dollar cents; parking and HOA are monthly, storage is a purchase.
func DefaultTable() *Table {
	fallback := models.MarketEstimate{
		ParkingCost: 6000,
		StorageCost: 450000,
		HOAFeePerM2: 150,
		UpdatedAt:   curatedAt,
	}

	rows := []models.MarketEstimate{
		zoneRow(models.ZoneEquipetrol, 9000, 650000, 250, 41),
		bedRow(models.ZoneEquipetrol, 1, 8000, 34),
		bedRow(models.ZoneEquipetrol, 2, 9000, 52),
		bedRow(models.ZoneEquipetrol, 3, 11000, 27),

		zoneRow(models.ZoneSirari, 7500, 550000, 210, 29),
		bedRow(models.ZoneSirari, 2, 7500, 18),

		zoneRow(models.ZoneUrubo, 5000, 400000, 180, 22),
		bedRow(models.ZoneUrubo, 3, 6000, 9),
		bedRow(models.ZoneUrubo, 4, 7000, 6),

		zoneRow(models.ZoneLasPalmas, 6500, 480000, 170, 15),
		zoneRow(models.ZoneNorte, 5000, 380000, 130, 19),
		zoneRow(models.ZoneCentro, 5500, 350000, 120, 11),
		zoneRow(models.ZoneSur, 4000, 300000, 100, 7),
	}

	t, err := NewTable(DefaultVersion, DefaultHiddenCostBps, fallback, rows)
	if err != nil {
		panic("estimates: built-in table is invalid: " + err.Error())
	}
	return t
}

func zoneRow(zone models.Zone, parking, storage, hoaPerM2 models.Money, samples int) models.MarketEstimate {
	return models.MarketEstimate{
		Zone:        zone,
		Bedrooms:    models.AnyBedrooms,
		ParkingCost: parking,
		StorageCost: storage,
		HOAFeePerM2: hoaPerM2,
		SampleSize:  samples,
		UpdatedAt:   curatedAt,
	}
}

// bedRow is a bedroom-specific parking row; storage and HOA stay zone-level.
func bedRow(zone models.Zone, bedrooms int, parking models.Money, samples int) models.MarketEstimate {
	return models.MarketEstimate{
		Zone:        zone,
		Bedrooms:    bedrooms,
		ParkingCost: parking,
		SampleSize:  samples,
		UpdatedAt:   curatedAt,
	}
}
