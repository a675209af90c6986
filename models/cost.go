package models

// Source says where a cost figure came from.
type Source string

const (
	SourceReal      Source = "real"
	SourceEstimated Source = "estimated"
)

// Provenance tags a derived figure with its origin. Confidence is
// ConfidenceNone for real values.
type Provenance struct {
	Source     Source
	Confidence Confidence
}

// CostField is an amount paired with its provenance.
type CostField struct {
	Amount     Money
	Provenance Provenance
}

// Real builds a field backed by observed data.
func Real(amount Money) CostField {
	return CostField{Amount: amount, Provenance: Provenance{Source: SourceReal}}
}

// Estimated builds a field backed by a fallback estimate.
func Estimated(e Estimate) CostField {
	return CostField{
		Amount:     e.Amount,
		Provenance: Provenance{Source: SourceEstimated, Confidence: e.Confidence},
	}
}

// IsEstimated reports whether the field came from a fallback estimate.
func (f CostField) IsEstimated() bool {
	return f.Provenance.Source == SourceEstimated
}

// CostBreakdown is the complete all-in cost of a unit.
//
// TotalMonthly = Parking + HOAMonthly. Storage is a one-time purchase and is
// excluded from the monthly total.
// TotalUpfront = NominalPrice + Storage + HiddenCosts.
type CostBreakdown struct {
	UnitID       string
	NominalPrice CostField
	Parking      CostField
	Storage      CostField
	HiddenCosts  CostField
	HOAMonthly   CostField
	TotalMonthly CostField
	TotalUpfront CostField
}

// EstimatedFields counts the component fields filled from estimates.
func (b CostBreakdown) EstimatedFields() int {
	n := 0
	for _, f := range []CostField{b.NominalPrice, b.Parking, b.Storage, b.HiddenCosts, b.HOAMonthly} {
		if f.IsEstimated() {
			n++
		}
	}
	return n
}
