package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"unitcost/models"
)

var matchHeader = []string{
	"rank", "unit_id", "project", "zone", "bedrooms", "area_m2", "score", "within_budget",
	"price_per_m2", "nominal_price", "parking", "parking_source", "storage", "storage_source",
	"hidden_costs", "hoa_monthly", "hoa_source", "total_monthly", "total_upfront", "rationale",
}

// CSVWriter exports ranked matches with their cost breakdowns.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(matchHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteMatches appends one row per match, in rank order.
func (c *CSVWriter) WriteMatches(matches []models.ScoredMatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, m := range matches {
		b := m.Breakdown
		row := []string{
			strconv.Itoa(i + 1),
			m.Unit.ID,
			m.Unit.Project,
			string(m.Unit.Zone),
			strconv.Itoa(m.Unit.Bedrooms),
			strconv.FormatFloat(m.Unit.AreaM2, 'f', 2, 64),
			strconv.FormatFloat(m.Score, 'f', 2, 64),
			strconv.FormatBool(m.WithinBudget),
			m.PricePerM2.String(),
			b.NominalPrice.Amount.String(),
			b.Parking.Amount.String(), provenanceLabel(b.Parking),
			b.Storage.Amount.String(), provenanceLabel(b.Storage),
			b.HiddenCosts.Amount.String(),
			b.HOAMonthly.Amount.String(), provenanceLabel(b.HOAMonthly),
			b.TotalMonthly.Amount.String(),
			b.TotalUpfront.Amount.String(),
			m.Rationale,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

func provenanceLabel(f models.CostField) string {
	if !f.IsEstimated() {
		return string(models.SourceReal)
	}
	return string(models.SourceEstimated) + ":" + f.Provenance.Confidence.String()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
