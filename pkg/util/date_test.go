package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"date", "2024-10-10", time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC), true},
		{"rfc3339", "2024-10-10T10:10:10Z", ts, true},
		{"unix", strconv.FormatInt(ts.Unix(), 10), ts, true},
		{"empty", "", time.Time{}, false},
		{"garbage", "10/10/2024", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	assert.Equal(t, def, ParseTimeDefault("", def))
}

func TestParseDateRange(t *testing.T) {
	from, to, err := ParseDateRange("2024-01-01", "2024-03-31T15:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), to)

	_, _, err = ParseDateRange("2024-03-31", "2024-01-01")
	assert.Error(t, err)
	_, _, err = ParseDateRange("nope", "2024-01-01")
	assert.Error(t, err)
}

func TestTradingDaysBack(t *testing.T) {
	at := time.Date(2024, 6, 28, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, Day(at), TradingDaysBack(at, 0))

	back := TradingDaysBack(at, 252)
	assert.True(t, at.Sub(back) >= 365*24*time.Hour, "252 trading days must reach back at least a year, got %v", back)
}

func TestNormalizeTickers(t *testing.T) {
	got := NormalizeTickers(" aapl, msft", "AAPL", "", "nvda,,")
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, got)
	assert.Nil(t, NormalizeTickers())
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 5, ParseIntDefault("", 5))
	assert.Equal(t, 5, ParseIntDefault("x", 5))
	assert.Equal(t, 7, ParseIntDefault("7", 5))
}
