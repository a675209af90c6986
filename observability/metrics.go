package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"unitcost/models"
	"unitcost/utils"
)

var (
	EstimatedFieldsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitcost_estimated_fields_total",
			Help: "Cost fields filled from market estimates, by field and confidence",
		},
		[]string{"field", "confidence"},
	)

	RankOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitcost_rank_outcomes_total",
			Help: "Ranking runs by result status",
		},
		[]string{"status"},
	)

	RankToleranceBps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "unitcost_rank_tolerance_bps",
			Help: "Budget tolerance used by the last ranking, in basis points",
		},
	)

	DegradedSnapshotsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "unitcost_degraded_snapshots_total",
			Help: "Market snapshots computed without a usable exchange rate",
		},
	)

	registerOnce sync.Once
)

// RecordBreakdowns counts every estimated cost field in the breakdowns.
func RecordBreakdowns(breakdowns []models.CostBreakdown) {
	for _, b := range breakdowns {
		fields := map[string]models.CostField{
			"parking": b.Parking,
			"storage": b.Storage,
			"hidden":  b.HiddenCosts,
			"hoa":     b.HOAMonthly,
		}
		for name, f := range fields {
			if f.IsEstimated() {
				EstimatedFieldsTotal.WithLabelValues(name, f.Provenance.Confidence.String()).Inc()
			}
		}
	}
}

// RecordRank records the outcome of a ranking run.
func RecordRank(result models.RankResult) {
	RankOutcomesTotal.WithLabelValues(string(result.Status)).Inc()
	RankToleranceBps.Set(float64(result.ToleranceBps))
}

// RecordSnapshot counts degraded snapshots.
func RecordSnapshot(snapshot models.MarketSnapshot) {
	if snapshot.Degraded {
		DegradedSnapshotsTotal.Inc()
	}
}

// Start registers the collectors and serves /metrics on addr in the
// background. A listener failure is logged and sent on the returned channel.
func Start(addr string, logger *utils.Logger) <-chan error {
	registerOnce.Do(func() {
		prometheus.MustRegister(EstimatedFieldsTotal, RankOutcomesTotal, RankToleranceBps, DegradedSnapshotsTotal)
	})
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	errc := make(chan error, 1)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("[metrics] Server on %s stopped: %v", addr, err)
			errc <- err
		}
	}()
	return errc
}
