package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	require.True(t, ok)
	assert.Equal(t, s, got.UTC().Format(time.RFC3339))
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	require.True(t, ok)
	assert.Equal(t, ts, got.Unix())
	assert.Equal(t, time.UTC, got.Location())
}

func TestParseTimeRejectsDates(t *testing.T) {
	_, ok := ParseTime("Jan 5 – 11, 2025")
	assert.False(t, ok)
	_, ok = ParseTime("-5")
	assert.False(t, ok)
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	assert.True(t, ParseTimeDefault("", def).Equal(def))
}

func TestUnixMillis(t *testing.T) {
	got := UnixMillis(1704067200000)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestLookbackWindow(t *testing.T) {
	now := time.Date(2024, 7, 1, 15, 4, 5, 0, time.UTC)
	from, to := LookbackWindow(now, 180)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), from)
}
