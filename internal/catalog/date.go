package catalog

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
)

// DateLayout is the calendar-date format accepted for expiration and warranty dates.
const DateLayout = "2006-01-02"

// Day returns the calendar day of t (in t's own location) as midnight UTC, so
// days taken from different zones compare by date alone.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date format, use YYYY-MM-DD").
			WithDetails(map[string]any{"value": value})
	}
	return parsed, nil
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
