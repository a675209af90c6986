package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"unitcost/models"
	"unitcost/utils"
)

// ReportBuilder composes the buyer-facing report.
type ReportBuilder struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewReportBuilder creates a ReportBuilder.
func NewReportBuilder(logger *utils.Logger) *ReportBuilder {
	return &ReportBuilder{logger: logger, now: time.Now}
}

// Build assembles a report from a ranking and a market snapshot.
func (rb *ReportBuilder) Build(ctx models.BuyerContext, result models.RankResult, snapshot models.MarketSnapshot) *models.Report {
	r := &models.Report{
		ID:          uuid.New(),
		GeneratedAt: rb.now(),
		Context:     ctx,
		Result:      result,
		Snapshot:    snapshot,
	}
	rb.logger.Debug("[report] built %s with %d matches", r.ID, len(result.Matches))
	return r
}

// Print renders the report to w.
func (rb *ReportBuilder) Print(w io.Writer, r *models.Report) {
	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  UNIT COST REPORT %s\033[0m\n", r.ID)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	ctx := r.Context
	fmt.Fprintf(w, "\033[1;33m  Buyer\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Budget   : \033[1m$%s\033[0m (%s)\n", ctx.MaxBudget, basisLabel(ctx.BudgetBasis))
	fmt.Fprintf(w, "  Zone     : %s\n", zoneLabel(ctx.TargetZone))
	fmt.Fprintf(w, "  Bedrooms : %d\n", ctx.Bedrooms)
	if ctx.MinAreaM2 > 0 {
		fmt.Fprintf(w, "  Min area : %.0f m²\n", ctx.MinAreaM2)
	}
	if len(ctx.Amenities) > 0 {
		fmt.Fprintf(w, "  Must have: %s\n", strings.Join(ctx.Amenities, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Best Matches\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.Result.Status == models.RankNoInventory {
		fmt.Fprintf(w, "  No inventory within %d%% of budget\n", (r.Result.ToleranceBps-10000)/100)
	}
	for i, m := range r.Result.Matches {
		b := m.Breakdown
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-36s \033[1;32m%6.2f\033[0m\n", i+1, truncate(m.Unit.Project, 34), m.Score)
		fmt.Fprintf(w, "     %s\n", m.Rationale)
		fmt.Fprintf(w, "     price $%s | $%s/m² | %.0f m² | %d bd\n",
			b.NominalPrice.Amount, m.PricePerM2, m.Unit.AreaM2, m.Unit.Bedrooms)
		fmt.Fprintf(w, "     parking $%s%s | HOA $%s%s | storage $%s%s | closing $%s%s\n",
			b.Parking.Amount, tag(b.Parking), b.HOAMonthly.Amount, tag(b.HOAMonthly),
			b.Storage.Amount, tag(b.Storage), b.HiddenCosts.Amount, tag(b.HiddenCosts))
		fmt.Fprintf(w, "     monthly \033[1m$%s\033[0m | upfront \033[1m$%s\033[0m\n",
			b.TotalMonthly.Amount, b.TotalUpfront.Amount)
	}
	fmt.Fprintln(w)

	s := r.Snapshot
	fmt.Fprintf(w, "\033[1;33m  Market Snapshot\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Active units     : %d\n", s.ActiveUnits)
	fmt.Fprintf(w, "  New (24h)        : %d\n", s.NewListings)
	fmt.Fprintf(w, "  Price drops      : %d\n", s.PriceDrops)
	fmt.Fprintf(w, "  Withdrawn        : %d\n", s.Withdrawn)
	fmt.Fprintf(w, "  Official/parallel: %.2f / %.2f (%+.2f%% 24h)\n", s.Rate.Official, s.Rate.Parallel, s.RateVariation24h)
	fmt.Fprintf(w, "  Avg price        : $%s (real $%s)\n", s.NominalPrice, s.RealPrice)
	fmt.Fprintf(w, "  Avg price/m²     : $%s (real $%s)\n", s.NominalPricePerM2, s.RealPricePerM2)
	if s.Degraded {
		fmt.Fprintf(w, "  \033[1;31mExchange rate unavailable: real prices not adjusted\033[0m\n")
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// tag marks estimated figures with their confidence.
func tag(f models.CostField) string {
	if !f.IsEstimated() {
		return ""
	}
	return fmt.Sprintf(" (est. %s)", f.Provenance.Confidence)
}

func basisLabel(b models.BudgetBasis) string {
	if b == models.BudgetUpfront {
		return "upfront"
	}
	return "monthly"
}

func zoneLabel(z models.Zone) string {
	if z == "" {
		return "any"
	}
	return string(z)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
