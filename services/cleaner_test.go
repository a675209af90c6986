package services

import (
	"testing"
	"time"

	"unitcost/models"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"US$ 145.000", 145000},
		{"$us 1.250,50", 1250.50},
		{"1,250.50 USD", 1250.50},
		{"120,000", 120000},
		{"85,5 m²", 85.5},
		{"85 m2", 85},
		{"60.5", 60.5},
		{"Bs. 2.500.000", 2500000},
		{"", 0},
		{"consultar", 0},
	}

	for _, tt := range tests {
		if got := parseNumber(tt.raw); got != tt.want {
			t.Errorf("parseNumber(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseBedrooms(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"2 dormitorios", 2},
		{"Monoambiente", 0},
		{"3 Dorm.", 3},
		{"", -1},
		{"a consultar", -1},
	}

	for _, tt := range tests {
		if got := parseBedrooms(tt.raw); got != tt.want {
			t.Errorf("parseBedrooms(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerBuildsUnits(t *testing.T) {
	c := NewCleaner(newTestLogger())
	scraped := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	raw := []*models.RawUnit{{
		ExternalID: "ic-991",
		Project:    "  Torre   Avanti ",
		RawPrice:   "US$ 145.000",
		RawArea:    "82,5 m²",
		RawRooms:   "2 dormitorios",
		Location:   "Equipetrol Norte",
		Amenities:  "Piscina, Gimnasio;  Parrillero",
		RawParking: "US$ 60",
		RawHOA:     "",
		URL:        "https://example.com/inmueble/ic-991",
		ScrapedAt:  scraped,
	}}

	units := c.Clean(raw)
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	u := units[0]
	if u.ID != "ic-991" || u.Project != "Torre Avanti" {
		t.Errorf("identity: got %q %q", u.ID, u.Project)
	}
	if u.NominalPrice != 14500000 || u.AreaM2 != 82.5 || u.Bedrooms != 2 {
		t.Errorf("numbers: got price %d area %v bedrooms %d", u.NominalPrice, u.AreaM2, u.Bedrooms)
	}
	if u.Zone != models.ZoneEquipetrol {
		t.Errorf("zone: got %q", u.Zone)
	}
	if u.ParkingPrice != 6000 || u.HOAFee != 0 || u.StoragePrice != 0 {
		t.Errorf("optional costs: parking %d hoa %d storage %d", u.ParkingPrice, u.HOAFee, u.StoragePrice)
	}
	if len(u.Amenities) != 3 || u.Amenities[2] != "parrillero" {
		t.Errorf("amenities: got %v", u.Amenities)
	}
	if u.Status != models.StatusActive || !u.ListedAt.Equal(scraped) {
		t.Errorf("status/listed: got %s %v", u.Status, u.ListedAt)
	}
}

func TestCleanerDropsUnplaceableUnits(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawUnit{
		{Project: "No id"},
		{ExternalID: "1", RawPrice: "US$ 90.000", Location: "Cochabamba"},
		{ExternalID: "2", RawPrice: "consultar", Location: "Sirari"},
		{URL: "https://example.com/inmueble/3/", RawPrice: "US$ 90.000", Location: "Sirari"},
		{ExternalID: "3", RawPrice: "US$ 95.000", Location: "Sirari"},
	}

	units := c.Clean(raw)
	if len(units) != 1 {
		t.Fatalf("expected 1 unit after dropping, got %d", len(units))
	}
	if units[0].ID != "3" || units[0].NominalPrice != 9000000 {
		t.Errorf("kept unit: got %+v", units[0])
	}
}

func TestUnitIDsKeepsUncleanableUnits(t *testing.T) {
	raw := []*models.RawUnit{
		{Project: "No id"},
		{ExternalID: "1", RawPrice: "consultar", Location: "Cochabamba"},
		{URL: "https://example.com/inmueble/3/"},
		{ExternalID: " 4 "},
	}

	got := UnitIDs(raw)
	want := []string{"1", "3", "4"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
