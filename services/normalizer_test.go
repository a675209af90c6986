package services

import (
	"testing"

	"unitcost/models"
)

func TestNormalizeUsesRealValues(t *testing.T) {
	n := newTestNormalizer()
	u := fullyPriced("a", models.ZoneEquipetrol, 2, 80, 15000000, 7000, 12000)

	b := n.Normalize(u)
	for name, f := range map[string]models.CostField{
		"nominal": b.NominalPrice, "parking": b.Parking, "storage": b.Storage, "hoa": b.HOAMonthly,
	} {
		if f.IsEstimated() {
			t.Errorf("%s should be real, got %+v", name, f.Provenance)
		}
	}
	if b.Parking.Amount != 7000 || b.HOAMonthly.Amount != 12000 || b.Storage.Amount != 500000 {
		t.Errorf("real amounts not kept: %+v", b)
	}
	if !b.HiddenCosts.IsEstimated() {
		t.Error("hidden costs are always estimated")
	}
}

func TestNormalizeFillsMissingFieldsIndependently(t *testing.T) {
	n := newTestNormalizer()
	u := models.Unit{
		ID:           "b",
		NominalPrice: 12000000,
		AreaM2:       100,
		Bedrooms:     3,
		Zone:         models.ZoneSirari,
		Status:       models.StatusActive,
		ParkingPrice: 6500,
		HOAFee:       -1,
	}

	b := n.Normalize(u)
	if b.Parking.IsEstimated() || b.Parking.Amount != 6500 {
		t.Errorf("parking should stay real: %+v", b.Parking)
	}
	if !b.HOAMonthly.IsEstimated() {
		t.Fatal("non-positive HOA should be estimated")
	}
	// Built-in sirari zone row: 210 per m².
	if b.HOAMonthly.Amount != 21000 || b.HOAMonthly.Provenance.Confidence != models.ConfidenceHigh {
		t.Errorf("hoa: got %+v", b.HOAMonthly)
	}
	if !b.Storage.IsEstimated() || b.Storage.Amount != 550000 {
		t.Errorf("storage: got %+v", b.Storage)
	}
	// 3.5% of 120000.00
	if b.HiddenCosts.Amount != 420000 {
		t.Errorf("hidden costs: got %d, want 420000", b.HiddenCosts.Amount)
	}
}

func TestNormalizeTotals(t *testing.T) {
	n := newTestNormalizer()
	units := []models.Unit{
		fullyPriced("a", models.ZoneEquipetrol, 2, 80, 15000000, 7000, 12000),
		{ID: "b", NominalPrice: 9999999, AreaM2: 63.7, Bedrooms: 1, Zone: models.ZoneUrubo, Status: models.StatusActive},
		{ID: "c", NominalPrice: 143, Zone: "unknown", Status: models.StatusActive},
		{ID: "d", Status: models.StatusWithdrawn},
	}

	for _, b := range n.NormalizeAll(units) {
		monthly := b.Parking.Amount + b.HOAMonthly.Amount
		upfront := b.NominalPrice.Amount + b.Storage.Amount + b.HiddenCosts.Amount
		if diff := b.TotalMonthly.Amount - monthly; diff < -1 || diff > 1 {
			t.Errorf("%s: monthly total %d != %d", b.UnitID, b.TotalMonthly.Amount, monthly)
		}
		if diff := b.TotalUpfront.Amount - upfront; diff < -1 || diff > 1 {
			t.Errorf("%s: upfront total %d != %d", b.UnitID, b.TotalUpfront.Amount, upfront)
		}
	}
}

func TestNormalizeExcludesStorageFromMonthly(t *testing.T) {
	n := newTestNormalizer()
	b := n.Normalize(fullyPriced("a", models.ZoneEquipetrol, 2, 80, 15000000, 7000, 12000))

	if b.TotalMonthly.Amount != 19000 {
		t.Errorf("monthly: got %d, want 19000", b.TotalMonthly.Amount)
	}
	if b.TotalUpfront.Amount != 15000000+500000+525000 {
		t.Errorf("upfront: got %d", b.TotalUpfront.Amount)
	}
	if b.TotalMonthly.IsEstimated() {
		t.Error("monthly total of real components should be real")
	}
	if !b.TotalUpfront.IsEstimated() || b.TotalUpfront.Provenance.Confidence != models.ConfidenceLow {
		t.Errorf("upfront total should carry the hidden cost confidence, got %+v", b.TotalUpfront.Provenance)
	}
}

func TestNormalizeUnknownZoneUsesDefault(t *testing.T) {
	n := newTestNormalizer()
	b := n.Normalize(models.Unit{ID: "x", NominalPrice: 1000000, AreaM2: 50, Zone: "atlantis"})

	if b.Parking.Amount != 6000 || b.Parking.Provenance.Confidence != models.ConfidenceLow {
		t.Errorf("parking: got %+v", b.Parking)
	}
	if b.HOAMonthly.Amount != 7500 {
		t.Errorf("hoa: got %d, want 7500", b.HOAMonthly.Amount)
	}
}

func TestNormalizeUnknownAreaHOAIsLowConfidence(t *testing.T) {
	n := newTestNormalizer()
	u := fullyPriced("noarea", models.ZoneEquipetrol, 2, 0, 16000000, 9000, 0)

	b := n.Normalize(u)
	// Built-in equipetrol row: 250 per m² over the typical 75 m².
	if b.HOAMonthly.Amount != 18750 {
		t.Errorf("hoa: got %d, want 18750", b.HOAMonthly.Amount)
	}
	if b.HOAMonthly.Provenance.Confidence != models.ConfidenceLow {
		t.Errorf("hoa confidence: got %s, want low", b.HOAMonthly.Provenance.Confidence)
	}
	if b.TotalMonthly.Amount != 27750 || b.TotalMonthly.Provenance.Confidence != models.ConfidenceLow {
		t.Errorf("monthly total: got %+v", b.TotalMonthly)
	}
}
