package core

import (
	"time"

	"github.com/pkg/errors"
)

// ISOLayout renders instants the way browsers do with Date.toISOString().
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	dateLayouts = []string{
		"2006-01-02",
		time.RFC3339Nano,
		time.RFC3339,
	}
	// datetime-local inputs carry no zone and are read as UTC
	timestampLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}

	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// ParseDate parses a calendar date (YYYY-MM-DD) or an ISO instant.
// The result is midnight UTC of the date the value falls on in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := parseLayouts(CleanString(s), dateLayouts, ErrInvalidDate)
	if err != nil {
		return t, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// ParseTimestamp parses an ISO instant, also accepting zone-less datetime-local values.
func ParseTimestamp(s string) (time.Time, error) {
	return parseLayouts(CleanString(s), timestampLayouts, ErrInvalidTimestamp)
}

func parseLayouts(s string, layouts []string, errInvalid error) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Wrapf(errInvalid, "parsing %q", s)
}

// FormatISO formats t as an ISO instant in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}
