package models

import (
	"errors"
	"testing"
)

func TestParseZone(t *testing.T) {
	tests := []struct {
		raw  string
		want Zone
	}{
		{"Equipetrol", ZoneEquipetrol},
		{"  EQUIPETROL NORTE ", ZoneEquipetrol},
		{"Urubó", ZoneUrubo},
		{"Colinas del Urubó", ZoneUrubo},
		{"las-palmas", ZoneLasPalmas},
		{"Zona Sur", ZoneSur},
		{"casco viejo", ZoneCentro},
	}
	for _, tt := range tests {
		got, err := ParseZone(tt.raw)
		if err != nil {
			t.Errorf("ParseZone(%q) returned error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseZone(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseZoneRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "equipetrl", "Cochabamba"} {
		_, err := ParseZone(raw)
		if !errors.Is(err, ErrUnknownZone) {
			t.Errorf("ParseZone(%q): expected ErrUnknownZone, got %v", raw, err)
		}
	}
}

func TestZonesAreValid(t *testing.T) {
	for _, z := range Zones() {
		if !z.Valid() {
			t.Errorf("zone %q should be valid", z)
		}
	}
	if Zone("atlantis").Valid() {
		t.Error("unknown zone should not be valid")
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  Piscina Climatizada Ñandú "); got != "piscina climatizada nandu" {
		t.Errorf("Fold: got %q", got)
	}
}
