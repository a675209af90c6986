package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"unitcost/models"
	"unitcost/utils"
)

// Score weights. They sum to 100, so a unit that is perfect on every factor
// scores exactly 100.
const (
	WeightBudgetFit      = 35.0
	WeightAreaFit        = 20.0
	WeightBedroomMatch   = 15.0
	WeightAmenityOverlap = 15.0
	WeightRelativePrice  = 15.0
)

// Budget tolerance widening, in basis points of the buyer's budget.
const (
	BaseToleranceBps int64 = 11000
	ToleranceStepBps int64 = 1000
	MaxToleranceBps  int64 = 15000
)

const (
	// DefaultMatchLimit is the number of matches returned when none is asked for.
	DefaultMatchLimit = 3
	// RelativePriceSpan is the deviation from the zone median price per m²
	// at which the relative price factor saturates at 0 or 1.
	RelativePriceSpan = 0.50
	// MedianBand is the deviation treated as "at the median" in rationales.
	MedianBand = 0.05
)

// ToleranceSteps returns the widening sequence from BaseToleranceBps to
// MaxToleranceBps inclusive.
func ToleranceSteps() []int64 {
	var steps []int64
	for t := BaseToleranceBps; t <= MaxToleranceBps; t += ToleranceStepBps {
		steps = append(steps, t)
	}
	return steps
}

// Matcher filters and ranks units against a buyer's context.
type Matcher struct {
	normalizer *Normalizer
	logger     *utils.Logger
}

// NewMatcher creates a Matcher that normalizes units with normalizer.
func NewMatcher(normalizer *Normalizer, logger *utils.Logger) *Matcher {
	return &Matcher{normalizer: normalizer, logger: logger}
}

type candidate struct {
	unit       models.Unit
	breakdown  models.CostBreakdown
	pricePerM2 models.Money
}

// Rank returns at most n matches sorted by descending score. When no unit
// fits even at MaxToleranceBps the result is empty with status
// no_inventory. n <= 0 means DefaultMatchLimit.
func (m *Matcher) Rank(units []models.Unit, ctx models.BuyerContext, n int) models.RankResult {
	if n <= 0 {
		n = DefaultMatchLimit
	}

	pool := m.prepare(units)
	medians := zoneMedians(pool)

	for _, tol := range ToleranceSteps() {
		cands := filterCandidates(pool, ctx, tol)
		if len(cands) == 0 {
			m.logger.Debug("[matcher] no candidates at tolerance %d bps, widening", tol)
			continue
		}

		matches := make([]models.ScoredMatch, 0, len(cands))
		for _, c := range cands {
			matches = append(matches, scoreCandidate(c, ctx, tol, medians[c.unit.Zone]))
		}
		sortMatches(matches)
		if len(matches) > n {
			matches = matches[:n]
		}

		m.logger.Info("[matcher] %d candidates at tolerance %d bps, returning %d",
			len(cands), tol, len(matches))
		return models.RankResult{Status: models.RankOK, ToleranceBps: tol, Matches: matches}
	}

	m.logger.Warn("[matcher] no inventory within %d bps of budget %s in zone %q",
		MaxToleranceBps, ctx.MaxBudget, ctx.TargetZone)
	return models.RankResult{
		Status:       models.RankNoInventory,
		ToleranceBps: MaxToleranceBps,
		Matches:      []models.ScoredMatch{},
	}
}

// Candidates returns the units that pass the hard filters at toleranceBps.
func (m *Matcher) Candidates(units []models.Unit, ctx models.BuyerContext, toleranceBps int64) []models.Unit {
	cands := filterCandidates(m.prepare(units), ctx, toleranceBps)
	out := make([]models.Unit, len(cands))
	for i, c := range cands {
		out[i] = c.unit
	}
	return out
}

// prepare normalizes the active units.
func (m *Matcher) prepare(units []models.Unit) []candidate {
	pool := make([]candidate, 0, len(units))
	for _, u := range units {
		if !u.Active() {
			continue
		}
		pool = append(pool, candidate{
			unit:       u,
			breakdown:  m.normalizer.Normalize(u),
			pricePerM2: pricePerM2(u),
		})
	}
	return pool
}

func filterCandidates(pool []candidate, ctx models.BuyerContext, toleranceBps int64) []candidate {
	var out []candidate
	for _, c := range pool {
		if ctx.TargetZone != "" && c.unit.Zone != ctx.TargetZone {
			continue
		}
		if !withinTolerance(budgetCost(c.breakdown, ctx), ctx.MaxBudget, toleranceBps) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func budgetCost(b models.CostBreakdown, ctx models.BuyerContext) models.Money {
	if ctx.BudgetBasis == models.BudgetUpfront {
		return b.TotalUpfront.Amount
	}
	return b.TotalMonthly.Amount
}

// withinTolerance checks cost <= budget * toleranceBps / 10000 in integers.
func withinTolerance(cost, budget models.Money, toleranceBps int64) bool {
	if budget <= 0 {
		return true
	}
	return int64(cost)*10000 <= int64(budget)*toleranceBps
}

func pricePerM2(u models.Unit) models.Money {
	if u.AreaM2 <= 0 || u.NominalPrice <= 0 {
		return 0
	}
	return models.RoundMoney(u.NominalPrice.Decimal().Div(decimal.NewFromFloat(u.AreaM2)))
}

// zoneMedians computes the median price per m² of the pool, per zone.
func zoneMedians(pool []candidate) map[models.Zone]float64 {
	byZone := make(map[models.Zone][]float64)
	for _, c := range pool {
		if c.pricePerM2 > 0 {
			byZone[c.unit.Zone] = append(byZone[c.unit.Zone], float64(c.pricePerM2))
		}
	}
	medians := make(map[models.Zone]float64, len(byZone))
	for zone, values := range byZone {
		sort.Float64s(values)
		mid := len(values) / 2
		if len(values)%2 == 1 {
			medians[zone] = values[mid]
		} else {
			medians[zone] = (values[mid-1] + values[mid]) / 2
		}
	}
	return medians
}

func scoreCandidate(c candidate, ctx models.BuyerContext, toleranceBps int64, median float64) models.ScoredMatch {
	cost := budgetCost(c.breakdown, ctx)
	factors := []models.FactorScore{
		budgetFit(cost, ctx.MaxBudget, toleranceBps),
		areaFit(c.unit.AreaM2, ctx.MinAreaM2),
		bedroomMatch(c.unit.Bedrooms, ctx.Bedrooms),
		amenityOverlap(c.unit.Amenities, ctx.Amenities),
		relativePrice(c.pricePerM2, median),
	}

	var total float64
	for i := range factors {
		factors[i].Contribution = factorWeight(factors[i].Factor) * factors[i].Value
		total += factors[i].Contribution
	}

	return models.ScoredMatch{
		Unit:         c.unit,
		Breakdown:    c.breakdown,
		Score:        round2(total),
		PricePerM2:   c.pricePerM2,
		Rationale:    rationale(factors),
		WithinBudget: ctx.MaxBudget <= 0 || cost <= ctx.MaxBudget,
		Factors:      factors,
	}
}

func factorWeight(f models.Factor) float64 {
	switch f {
	case models.FactorBudget:
		return WeightBudgetFit
	case models.FactorArea:
		return WeightAreaFit
	case models.FactorBedrooms:
		return WeightBedroomMatch
	case models.FactorAmenities:
		return WeightAmenityOverlap
	case models.FactorRelativePrice:
		return WeightRelativePrice
	}
	return 0
}

// budgetFit is 1 at or under budget and falls linearly to 0 at the
// tolerance boundary.
func budgetFit(cost, budget models.Money, toleranceBps int64) models.FactorScore {
	f := models.FactorScore{Factor: models.FactorBudget}
	if budget <= 0 {
		f.Value, f.Note, f.Unconstrained = 1, "no budget limit", true
		return f
	}
	ratio := float64(cost) / float64(budget)
	if ratio <= 1 {
		f.Value, f.Note = 1, "fits budget"
		return f
	}
	limit := float64(toleranceBps) / 10000
	f.Value = clamp01((limit - ratio) / (limit - 1))
	f.Note = fmt.Sprintf("%.0f%% over budget", (ratio-1)*100)
	return f
}

// areaFit falls linearly from 1 at the requested minimum to 0 at zero area.
func areaFit(area, minArea float64) models.FactorScore {
	f := models.FactorScore{Factor: models.FactorArea}
	switch {
	case minArea <= 0:
		f.Value, f.Note, f.Unconstrained = 1, "no minimum area", true
	case area >= minArea:
		f.Value, f.Note = 1, "meets minimum area"
	default:
		f.Value = clamp01(area / minArea)
		f.Note = fmt.Sprintf("%.0f%% below requested area", (1-f.Value)*100)
	}
	return f
}

func bedroomMatch(have, want int) models.FactorScore {
	if have == want {
		return models.FactorScore{Factor: models.FactorBedrooms, Value: 1, Note: "exact bedroom match"}
	}
	return models.FactorScore{
		Factor: models.FactorBedrooms,
		Note:   fmt.Sprintf("%d bedrooms instead of %d", have, want),
	}
}

func amenityOverlap(have, required []string) models.FactorScore {
	f := models.FactorScore{Factor: models.FactorAmenities}

	wanted := make(map[string]struct{}, len(required))
	for _, a := range required {
		if k := models.Fold(a); k != "" {
			wanted[k] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		f.Value, f.Note, f.Unconstrained = 1, "no required amenities", true
		return f
	}

	present := make(map[string]struct{}, len(have))
	for _, a := range have {
		present[models.Fold(a)] = struct{}{}
	}
	hits := 0
	for k := range wanted {
		if _, ok := present[k]; ok {
			hits++
		}
	}

	f.Value = float64(hits) / float64(len(wanted))
	if hits == len(wanted) {
		f.Note = "has all required amenities"
	} else {
		f.Note = fmt.Sprintf("has %d of %d required amenities", hits, len(wanted))
	}
	return f
}

// relativePrice is 0.5 at the zone median price per m², rising to 1 at
// RelativePriceSpan below it and falling to 0 at RelativePriceSpan above.
func relativePrice(ppa models.Money, median float64) models.FactorScore {
	f := models.FactorScore{Factor: models.FactorRelativePrice, Value: 0.5}
	if ppa <= 0 || median <= 0 {
		f.Note, f.Unconstrained = "no zone price reference", true
		return f
	}
	dev := (float64(ppa) - median) / median
	f.Value = clamp01(0.5 - dev/(2*RelativePriceSpan))
	switch {
	case math.Abs(dev) <= MedianBand:
		f.Note = fmt.Sprintf("within %.0f%% of zone median price", MedianBand*100)
	case dev < 0:
		f.Note = fmt.Sprintf("%.0f%% below zone median price", -dev*100)
	default:
		f.Note = fmt.Sprintf("%.0f%% above zone median price", dev*100)
	}
	return f
}

// rationale joins the notes of the two largest contributions. Factors the
// buyer left unconstrained only fill in when fewer than two others remain.
// Factor order breaks ties between equal contributions.
func rationale(factors []models.FactorScore) string {
	ordered := make([]models.FactorScore, len(factors))
	copy(ordered, factors)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Unconstrained != ordered[j].Unconstrained {
			return !ordered[i].Unconstrained
		}
		return ordered[i].Contribution > ordered[j].Contribution
	})

	notes := make([]string, 0, 2)
	for _, f := range ordered {
		if len(notes) == 2 {
			break
		}
		notes = append(notes, f.Note)
	}
	return strings.Join(notes, " and ")
}

// sortMatches orders by score desc, then price per m² asc, then the most
// recent listing, then ID for a stable result.
func sortMatches(matches []models.ScoredMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.PricePerM2 != b.PricePerM2 {
			return a.PricePerM2 < b.PricePerM2
		}
		if !a.Unit.ListedAt.Equal(b.Unit.ListedAt) {
			return a.Unit.ListedAt.After(b.Unit.ListedAt)
		}
		return a.Unit.ID < b.Unit.ID
	})
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
