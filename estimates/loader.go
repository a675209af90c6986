package estimates

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"unitcost/models"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "estimates.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("estimates: add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

type fileRow struct {
	Zone       string `json:"zone"`
	Bedrooms   *int   `json:"bedrooms"`
	Parking    int64  `json:"parking"`
	Storage    int64  `json:"storage"`
	HOAPerM2   int64  `json:"hoa_per_m2"`
	SampleSize int    `json:"sample_size"`
	UpdatedAt  string `json:"updated_at"`
}

type fileTable struct {
	Version       string    `json:"version"`
	HiddenCostBps int64     `json:"hidden_cost_bps"`
	Default       fileRow   `json:"default"`
	Entries       []fileRow `json:"entries"`
}

// LoadFile reads a JSON estimate table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("estimates: open %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a JSON estimate table, validates it against the embedded
// schema and builds an immutable Table from it.
func Parse(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("estimates: read: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("estimates: compile schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("estimates: decode: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("estimates: invalid table: %w", err)
	}

	var ft fileTable
	if err := json.Unmarshal(data, &ft); err != nil {
		return nil, fmt.Errorf("estimates: decode: %w", err)
	}

	fallback, err := ft.Default.toEstimate("", models.AnyBedrooms)
	if err != nil {
		return nil, fmt.Errorf("estimates: default row: %w", err)
	}

	rows := make([]models.MarketEstimate, 0, len(ft.Entries))
	for i, fr := range ft.Entries {
		zone, err := models.ParseZone(fr.Zone)
		if err != nil {
			return nil, fmt.Errorf("estimates: row %d: %w", i, err)
		}
		bedrooms := models.AnyBedrooms
		if fr.Bedrooms != nil {
			bedrooms = *fr.Bedrooms
		}
		e, err := fr.toEstimate(zone, bedrooms)
		if err != nil {
			return nil, fmt.Errorf("estimates: row %d: %w", i, err)
		}
		rows = append(rows, e)
	}

	return NewTable(ft.Version, ft.HiddenCostBps, fallback, rows)
}

func (fr fileRow) toEstimate(zone models.Zone, bedrooms int) (models.MarketEstimate, error) {
	updated, err := time.Parse(time.DateOnly, fr.UpdatedAt)
	if err != nil {
		return models.MarketEstimate{}, fmt.Errorf("updated_at: %w", err)
	}
	return models.MarketEstimate{
		Zone:        zone,
		Bedrooms:    bedrooms,
		ParkingCost: models.Money(fr.Parking),
		StorageCost: models.Money(fr.Storage),
		HOAFeePerM2: models.Money(fr.HOAPerM2),
		SampleSize:  fr.SampleSize,
		UpdatedAt:   updated,
	}, nil
}
