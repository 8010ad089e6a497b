package extract

import (
	"fmt"
	"strings"
	"time"
)

// pacific is loaded once; America/Los_Angeles handles the PST/PDT
// transition for us.
var pacific = mustLoadPacific()

func mustLoadPacific() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(fmt.Sprintf("loading Pacific timezone: %v", err))
	}
	return loc
}

var dateLayouts = []string{
	"1/2/2006 3:04 PM",
	"1/2/06 3:04 PM",
	"January 2, 2006 3:04 PM",
	"January 2 2006 3:04 PM",
	"January 2, 2006",
	"1/2/2006",
	"1/2/06",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParsePacific parses a document date string as Pacific wall time.
func ParsePacific(s string) (time.Time, error) {
	cleaned := strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
	cleaned = strings.ReplaceAll(cleaned, " at ", " ")
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, pacific); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// PacificToUTC converts a document date string from Pacific time to UTC.
func PacificToUTC(s string) (time.Time, error) {
	t, err := ParsePacific(s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// BoardDate renders a document date as a bare YYYY-MM-DD in UTC.
func BoardDate(s string) (string, error) {
	t, err := PacificToUTC(s)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

// BoardDateTime renders a document date as ISO 8601 UTC.
func BoardDateTime(s string) (string, error) {
	t, err := PacificToUTC(s)
	if err != nil {
		return "", err
	}
	return t.Format(time.RFC3339), nil
}
