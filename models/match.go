package models

// BudgetBasis selects which total the buyer's budget is compared against.
type BudgetBasis string

const (
	BudgetMonthly BudgetBasis = "monthly"
	BudgetUpfront BudgetBasis = "upfront"
)

// BuyerContext is what a buyer asked for. An empty TargetZone matches every
// zone and a non-positive MaxBudget disables the budget filter.
type BuyerContext struct {
	MaxBudget   Money
	BudgetBasis BudgetBasis
	TargetZone  Zone
	Bedrooms    int
	MinAreaM2   float64
	Amenities   []string
}

// Factor names one component of the match score.
type Factor string

const (
	FactorBudget        Factor = "budget_fit"
	FactorArea          Factor = "area_fit"
	FactorBedrooms      Factor = "bedroom_match"
	FactorAmenities     Factor = "amenity_overlap"
	FactorRelativePrice Factor = "relative_price"
)

// FactorScore is the weighted contribution of one factor. Unconstrained
// marks a factor that scored without a buyer criterion or reference to
// compare against.
type FactorScore struct {
	Factor        Factor
	Value         float64
	Contribution  float64
	Note          string
	Unconstrained bool
}

// ScoredMatch is a ranked recommendation.
type ScoredMatch struct {
	Unit         Unit
	Breakdown    CostBreakdown
	Score        float64
	PricePerM2   Money
	Rationale    string
	WithinBudget bool
	Factors      []FactorScore
}

// RankStatus distinguishes a normal ranking from an empty market.
type RankStatus string

const (
	RankOK          RankStatus = "ok"
	RankNoInventory RankStatus = "no_inventory"
)

// RankResult is the output of a ranking. ToleranceBps is the budget
// tolerance in basis points at which candidates were found.
type RankResult struct {
	Status       RankStatus
	ToleranceBps int64
	Matches      []ScoredMatch
}
