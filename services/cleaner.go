package services

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"unitcost/models"
	"unitcost/utils"
)

var (
	// numberRegexp captures the first number, with either separator style.
	numberRegexp = regexp.MustCompile(`\d[\d.,]*`)
	// groupedRegexp matches numbers whose separators only group thousands.
	groupedRegexp = regexp.MustCompile(`^\d{1,3}([.,]\d{3})+$`)
	// studioRegexp recognizes studio apartments, which have no bedroom.
	studioRegexp = regexp.MustCompile(`(?i)mono\s*ambiente|studio|estudio`)
)

// Cleaner transforms scraped RawUnits into Units.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses raw units and drops records that cannot be priced or placed
// in a known zone. Duplicates by ID are skipped.
func (c *Cleaner) Clean(raw []*models.RawUnit) []models.Unit {
	seen := utils.NewKeySet()
	result := make([]models.Unit, 0, len(raw))

	for _, r := range raw {
		id := unitID(r)
		if id == "" {
			c.logger.Warn("[cleaner] Dropping unit without id or URL: %s", r.Project)
			continue
		}
		if !seen.Add(id) {
			c.logger.Debug("[cleaner] Duplicate unit skipped: %s", id)
			continue
		}

		zone, err := models.ParseZone(r.Location)
		if err != nil {
			c.logger.Warn("[cleaner] Dropping %s: %v", id, err)
			continue
		}

		price := parseMoney(r.RawPrice)
		if price <= 0 {
			c.logger.Warn("[cleaner] Dropping %s: unparseable price %q", id, r.RawPrice)
			continue
		}

		result = append(result, models.Unit{
			ID:           id,
			Project:      normaliseText(r.Project),
			NominalPrice: price,
			AreaM2:       parseNumber(r.RawArea),
			Bedrooms:     parseBedrooms(r.RawRooms),
			Zone:         zone,
			Amenities:    splitAmenities(r.Amenities),
			Status:       models.StatusActive,
			ListedAt:     r.ScrapedAt,
			ParkingPrice: parseMoney(r.RawParking),
			StoragePrice: parseMoney(r.RawStorage),
			HOAFee:       parseMoney(r.RawHOA),
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d units (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// UnitIDs returns the ID of every raw unit that has one, including units
// Clean would drop for bad data, so they still count as listed.
func UnitIDs(raw []*models.RawUnit) []string {
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		if id := unitID(r); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func unitID(r *models.RawUnit) string {
	if id := strings.TrimSpace(r.ExternalID); id != "" {
		return id
	}
	u := strings.TrimRight(strings.TrimSpace(r.URL), "/")
	if u == "" {
		return ""
	}
	return path.Base(u)
}

// parseNumber reads the first number in raw. Both "1.250,50" and
// "1,250.50" read as 1250.5; a lone separator followed by exactly three
// digits is a thousands separator.
func parseNumber(raw string) float64 {
	match := numberRegexp.FindString(raw)
	match = strings.TrimRight(match, ".,")
	if match == "" {
		return 0
	}

	var normalized string
	switch {
	case groupedRegexp.MatchString(match):
		normalized = strings.NewReplacer(".", "", ",", "").Replace(match)
	case strings.Contains(match, ".") && strings.Contains(match, ","):
		if strings.LastIndex(match, ",") > strings.LastIndex(match, ".") {
			normalized = strings.ReplaceAll(strings.ReplaceAll(match, ".", ""), ",", ".")
		} else {
			normalized = strings.ReplaceAll(match, ",", "")
		}
	default:
		normalized = strings.ReplaceAll(match, ",", ".")
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseMoney reads a major-unit price into minor units. Unknown is zero.
func parseMoney(raw string) models.Money {
	v := parseNumber(raw)
	if v <= 0 {
		return 0
	}
	return models.FromMajor(v)
}

// parseBedrooms reads "2 dormitorios" as 2 and studios as 0. Unknown is -1.
func parseBedrooms(raw string) int {
	if studioRegexp.MatchString(raw) {
		return 0
	}
	match := numberRegexp.FindString(raw)
	if match == "" {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimRight(match, ".,"))
	if err != nil {
		return -1
	}
	return n
}

func splitAmenities(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == '|' }) {
		if a := normaliseText(part); a != "" {
			out = append(out, strings.ToLower(a))
		}
	}
	return out
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
