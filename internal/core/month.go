package core

import (
	"time"
)

const monthLayout = "2006-01-02"

// ParseMonth parses a "YYYY-MM-01" string. A parse failure yields
// ErrInvalidMonth, a day other than the first ErrNotFirstOfMonth.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	if t.Day() != 1 {
		return time.Time{}, ErrNotFirstOfMonth
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// FormatMonth renders the first day of the month as "YYYY-MM-01".
func FormatMonth(t time.Time) string {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
}

// MonthBounds returns the [start, end) unix-second window of the month
// containing the given first-of-month date.
func MonthBounds(month time.Time) (int64, int64) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return start.Unix(), end.Unix()
}
