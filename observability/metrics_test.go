package observability

import (
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"unitcost/models"
	"unitcost/utils"
)

func TestRecordBreakdowns(t *testing.T) {
	EstimatedFieldsTotal.Reset()

	est := models.Estimated(models.Estimate{Amount: 1000, Confidence: models.ConfidenceMedium})
	RecordBreakdowns([]models.CostBreakdown{
		{Parking: est, Storage: models.Real(500), HOAMonthly: est},
		{Parking: est},
	})

	if got := testutil.ToFloat64(EstimatedFieldsTotal.WithLabelValues("parking", "medium")); got != 2 {
		t.Errorf("parking/medium: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(EstimatedFieldsTotal.WithLabelValues("hoa", "medium")); got != 1 {
		t.Errorf("hoa/medium: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(EstimatedFieldsTotal.WithLabelValues("storage", "none")); got != 0 {
		t.Errorf("real storage should not be counted, got %v", got)
	}
}

func TestRecordRankAndSnapshot(t *testing.T) {
	RankOutcomesTotal.Reset()
	before := testutil.ToFloat64(DegradedSnapshotsTotal)

	RecordRank(models.RankResult{Status: models.RankNoInventory, ToleranceBps: 15000})
	RecordSnapshot(models.MarketSnapshot{Degraded: true})
	RecordSnapshot(models.MarketSnapshot{})

	if got := testutil.ToFloat64(RankOutcomesTotal.WithLabelValues("no_inventory")); got != 1 {
		t.Errorf("no_inventory: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(RankToleranceBps); got != 15000 {
		t.Errorf("tolerance: got %v, want 15000", got)
	}
	if got := testutil.ToFloat64(DegradedSnapshotsTotal) - before; got != 1 {
		t.Errorf("degraded snapshots: got %v, want 1", got)
	}
}

func TestStartReportsListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	errc := Start(ln.Addr().String(), utils.NewDiscardLogger())
	select {
	case err := <-errc:
		if err == nil {
			t.Error("expected a listen error for a taken port")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported for a taken port")
	}
}
