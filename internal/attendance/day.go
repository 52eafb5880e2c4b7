package attendance

import (
	"strings"
	"time"

	"github.com/dukerupert/rollcall/internal/apperr"
	"github.com/dukerupert/rollcall/internal/model"
)

// ParseDay reads a calendar day from either "2006-01-02" or an RFC 3339
// timestamp. Timestamps are converted to UTC before the time of day is dropped,
// so every caller agrees on which day an instant belongs to.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperr.Validation("Date is required")
	}

	if d, err := time.Parse(model.DayLayout, s); err == nil {
		return d, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, apperr.Validation("Invalid date")
	}
	return Truncate(t), nil
}

// Truncate returns midnight UTC of the day t falls on in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
