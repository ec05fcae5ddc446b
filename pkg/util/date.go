package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
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

// UnixMillis converts a millisecond epoch timestamp, as CoinGecko reports it.
func UnixMillis(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

// LookbackWindow returns the UTC day boundaries covering the last days days
// up to and including now.
func LookbackWindow(now time.Time, days int) (time.Time, time.Time) {
	to := now.UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -days)
	return from, to
}
