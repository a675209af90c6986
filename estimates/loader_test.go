package estimates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unitcost/models"
)

const validTable = `{
  "version": "2026.3",
  "hidden_cost_bps": 300,
  "default": {"parking": 5000, "storage": 400000, "hoa_per_m2": 140, "updated_at": "2026-07-01"},
  "entries": [
    {"zone": "Urubó", "parking": 5200, "storage": 410000, "hoa_per_m2": 170, "sample_size": 12, "updated_at": "2026-07-01"},
    {"zone": "urubo", "bedrooms": 3, "parking": 6100, "sample_size": 4, "updated_at": "2026-07-01"}
  ]
}`

func TestParseValidTable(t *testing.T) {
	table, err := Parse(strings.NewReader(validTable))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if table.Version() != "2026.3" {
		t.Errorf("version: got %q", table.Version())
	}
	if table.HiddenCostBps() != 300 {
		t.Errorf("hidden cost bps: got %d", table.HiddenCostBps())
	}
	if table.Len() != 2 {
		t.Errorf("rows: got %d, want 2", table.Len())
	}

	zoneRow, ok := table.Lookup(models.ZoneUrubo, models.AnyBedrooms)
	if !ok || zoneRow.StorageCost != 410000 {
		t.Errorf("zone row: got %+v (found=%v)", zoneRow, ok)
	}
	bedRow, ok := table.Lookup(models.ZoneUrubo, 3)
	if !ok || bedRow.ParkingCost != 6100 || bedRow.SampleSize != 4 {
		t.Errorf("bedroom row: got %+v (found=%v)", bedRow, ok)
	}
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	tests := map[string]string{
		"missing entries": `{"version": "v", "hidden_cost_bps": 300, "default": {"updated_at": "2026-07-01"}}`,
		"negative parking": `{"version": "v", "hidden_cost_bps": 300, "default": {"updated_at": "2026-07-01"},
			"entries": [{"zone": "sirari", "parking": -1, "sample_size": 3, "updated_at": "2026-07-01"}]}`,
		"bad date": `{"version": "v", "hidden_cost_bps": 300, "default": {"updated_at": "yesterday"}, "entries": []}`,
		"bedrooms out of range": `{"version": "v", "hidden_cost_bps": 300, "default": {"updated_at": "2026-07-01"},
			"entries": [{"zone": "sirari", "bedrooms": 9, "sample_size": 3, "updated_at": "2026-07-01"}]}`,
		"not json": `version: v`,
	}
	for name, doc := range tests {
		if _, err := Parse(strings.NewReader(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseRejectsUnknownZone(t *testing.T) {
	doc := `{"version": "v", "hidden_cost_bps": 300, "default": {"updated_at": "2026-07-01"},
		"entries": [{"zone": "equipetrl", "sample_size": 3, "updated_at": "2026-07-01"}]}`
	if _, err := Parse(strings.NewReader(doc)); err == nil {
		t.Error("expected a typo in the zone name to be rejected")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimates.json")
	if err := os.WriteFile(path, []byte(validTable), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if table.Default().ParkingCost != 5000 {
		t.Errorf("default parking: got %d", table.Default().ParkingCost)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
