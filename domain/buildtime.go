package domain

import (
	"regexp"
	"strings"
	"time"
)

// neverBuiltYear marks agents that report the epoch for projects that never built
const neverBuiltYear = 1970

var zonedLayouts = []string{
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC1123Z,
	time.RFC1123,
	time.UnixDate,
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	time.ANSIC,
}

// trailingZone matches a numeric offset, "Z" or a zone abbreviation at the end of a timestamp
var trailingZone = regexp.MustCompile(`\s*(Z|[+-]\d{2}:?\d{2}|[+-]\d{2}|[A-Z]{3,4})$`)

// ParseLastBuilt converts a raw build timestamp into an instant in loc.
//
// Only the wall-clock reading of the timestamp is kept: legacy agents omit or
// garble the offset, so every timestamp is interpreted in the reference
// location. Blank input, unparsable input and the 1970 sentinel yield nil.
func ParseLastBuilt(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	wall, ok := parseWallClock(raw)
	if !ok {
		return nil
	}

	t := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, loc)
	if t.Year() == neverBuiltYear {
		return nil
	}
	return &t
}

func parseWallClock(raw string) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	stripped := trailingZone.ReplaceAllString(raw, "")
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, stripped); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
