package services

import (
	"unitcost/estimates"
	"unitcost/models"
	"unitcost/utils"
)

// Normalizer merges a unit's observed cost fields with fallback estimates
// into a complete, provenance-tagged breakdown.
type Normalizer struct {
	provider *estimates.Provider
	logger   *utils.Logger
}

// NewNormalizer creates a Normalizer reading fallbacks from provider.
func NewNormalizer(provider *estimates.Provider, logger *utils.Logger) *Normalizer {
	return &Normalizer{provider: provider, logger: logger}
}

// mergeField is the single place where "real value if known, else estimate"
// is decided. fallback is only invoked when the real value is unknown.
func mergeField(observed models.Money, fallback func() models.Estimate) models.CostField {
	if observed.Known() {
		return models.Real(observed)
	}
	return models.Estimated(fallback())
}

// Normalize builds the cost breakdown of u. Fields are resolved
// independently, so a unit may carry a real parking price next to an
// estimated HOA fee.
func (n *Normalizer) Normalize(u models.Unit) models.CostBreakdown {
	b := models.CostBreakdown{
		UnitID:       u.ID,
		NominalPrice: models.Real(u.NominalPrice),
		Parking: mergeField(u.ParkingPrice, func() models.Estimate {
			return n.provider.ResolveParking(u.Zone, u.Bedrooms)
		}),
		Storage: mergeField(u.StoragePrice, func() models.Estimate {
			return n.provider.ResolveStorage(u.Zone)
		}),
		// Listings never itemize closing costs, so they are always estimated.
		HiddenCosts: mergeField(0, func() models.Estimate {
			return n.provider.ResolveHiddenCosts(u.NominalPrice)
		}),
		HOAMonthly: mergeField(u.HOAFee, func() models.Estimate {
			return n.provider.ResolveHOA(u.Zone, u.AreaM2)
		}),
	}

	b.TotalMonthly = sumFields(b.Parking, b.HOAMonthly)
	b.TotalUpfront = sumFields(b.NominalPrice, b.Storage, b.HiddenCosts)

	n.logger.Debug("[normalizer] %s: %d estimated fields, monthly %s, upfront %s",
		u.ID, b.EstimatedFields(), b.TotalMonthly.Amount, b.TotalUpfront.Amount)
	return b
}

// NormalizeAll normalizes every unit, preserving order.
func (n *Normalizer) NormalizeAll(units []models.Unit) []models.CostBreakdown {
	out := make([]models.CostBreakdown, len(units))
	for i, u := range units {
		out[i] = n.Normalize(u)
	}
	return out
}

// sumFields adds the components. The total is estimated when any component
// is, carrying the weakest component confidence.
func sumFields(fields ...models.CostField) models.CostField {
	var total models.Money
	estimated := false
	weakest := models.ConfidenceHigh
	for _, f := range fields {
		total += f.Amount
		if f.IsEstimated() {
			estimated = true
			if f.Provenance.Confidence < weakest {
				weakest = f.Provenance.Confidence
			}
		}
	}
	if !estimated {
		return models.Real(total)
	}
	return models.CostField{
		Amount:     total,
		Provenance: models.Provenance{Source: models.SourceEstimated, Confidence: weakest},
	}
}
