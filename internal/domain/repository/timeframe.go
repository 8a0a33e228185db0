package repository

import (
	"strings"

	"CanSlim/internal/domain/models"
)

// IsValidTimeframe returns true if tf is a supported reporting cadence.
func IsValidTimeframe(tf models.Timeframe) bool {
	switch tf {
	case models.TimeframeQuarterly, models.TimeframeAnnual:
		return true
	default:
		return false
	}
}

// NormalizeTimeframe maps the spellings used by fundamentals vendors onto a
// Timeframe. Unknown values are returned lowercased and fail IsValidTimeframe,
// so the calculator ignores them.
func NormalizeTimeframe(s string) models.Timeframe {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "quarterly", "quarter", "q", "10-q", "10q":
		return models.TimeframeQuarterly
	case "annual", "annually", "yearly", "year", "fy", "10-k", "10k":
		return models.TimeframeAnnual
	default:
		return models.Timeframe(v)
	}
}
