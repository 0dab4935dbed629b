package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, RFC1123Z, date-only and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, time.RFC1123Z, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
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

// IsBusinessDay reports whether t falls on Monday through Friday. Holidays are not considered.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDaysAfter returns n consecutive business days starting the day after last,
// truncated to midnight in last's location.
func BusinessDaysAfter(last time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	day := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, last.Location())
	out := make([]time.Time, 0, n)
	for len(out) < n {
		day = day.AddDate(0, 0, 1)
		if IsBusinessDay(day) {
			out = append(out, day)
		}
	}
	return out
}
