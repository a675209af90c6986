package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownZone is returned when a zone name does not map to a known submarket.
var ErrUnknownZone = errors.New("unknown zone")

// Zone is a geographic submarket bucket. The set is closed: every estimate
// lookup widens from a zone straight to the global default.
type Zone string

const (
	ZoneEquipetrol Zone = "equipetrol"
	ZoneSirari     Zone = "sirari"
	ZoneUrubo      Zone = "urubo"
	ZoneLasPalmas  Zone = "las_palmas"
	ZoneNorte      Zone = "norte"
	ZoneCentro     Zone = "centro"
	ZoneSur        Zone = "zona_sur"
)

// Zones lists every known zone in a stable order.
func Zones() []Zone {
	return []Zone{ZoneEquipetrol, ZoneSirari, ZoneUrubo, ZoneLasPalmas, ZoneNorte, ZoneCentro, ZoneSur}
}

// Valid reports whether z is one of the known zones.
func (z Zone) Valid() bool {
	for _, known := range Zones() {
		if z == known {
			return true
		}
	}
	return false
}

// aliases maps folded spellings seen on listing portals to zones.
var aliases = map[string]Zone{
	"equipetrol":        ZoneEquipetrol,
	"equipetrol_norte":  ZoneEquipetrol,
	"nuevo_equipetrol":  ZoneEquipetrol,
	"sirari":            ZoneSirari,
	"barrio_sirari":     ZoneSirari,
	"urubo":             ZoneUrubo,
	"colinas_del_urubo": ZoneUrubo,
	"las_palmas":        ZoneLasPalmas,
	"norte":             ZoneNorte,
	"zona_norte":        ZoneNorte,
	"centro":            ZoneCentro,
	"casco_viejo":       ZoneCentro,
	"zona_sur":          ZoneSur,
	"sur":               ZoneSur,
}

// ParseZone maps a free-form zone name to a Zone. Case, accents and
// separators are folded, so "Urubó" and "las-palmas" resolve.
func ParseZone(s string) (Zone, error) {
	key := strings.Join(strings.FieldsFunc(Fold(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_' || r == ','
	}), "_")
	if z, ok := aliases[key]; ok {
		return z, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownZone, s)
}

// Fold lowercases s and strips diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
