package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTime tries a calendar date, RFC3339, RFC3339Nano and unix seconds.
// Returns (t, true) if any worked. Calendar dates are UTC midnight.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// Day truncates t to midnight UTC of its calendar day in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDateRange parses an inclusive [from, to] pair of calendar days.
func ParseDateRange(from, to string) (time.Time, time.Time, error) {
	f, ok := ParseTime(from)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", from)
	}
	t, ok := ParseTime(to)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", to)
	}
	f, t = Day(f), Day(t)
	if t.Before(f) {
		return time.Time{}, time.Time{}, fmt.Errorf("date range %s..%s: to before from", from, to)
	}
	return f, t, nil
}

// TradingDaysBack returns a calendar day far enough before t to cover n
// trading days, allowing for weekends and a margin of holidays.
func TradingDaysBack(t time.Time, n int) time.Time {
	if n <= 0 {
		return Day(t)
	}
	calendar := n*7/5 + n/20 + 3
	return Day(t).AddDate(0, 0, -calendar)
}
