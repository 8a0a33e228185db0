package models

import (
	"math"
	"time"
)

// Timeframe is the reporting cadence of a fundamentals record.
type Timeframe string

const (
	TimeframeQuarterly Timeframe = "quarterly"
	TimeframeAnnual    Timeframe = "annual"
)

// FundamentalRecord is one reported period of a ticker. DilutedEPS is NaN
// when the source did not report it.
type FundamentalRecord struct {
	Ticker       string    `json:"ticker"`
	Timeframe    Timeframe `json:"timeframe"`
	FiscalYear   int       `json:"fiscal_year"`
	FiscalPeriod string    `json:"fiscal_period"`
	DilutedEPS   float64   `json:"diluted_eps"`
	EndDate      time.Time `json:"end_date"`
}

// HasEPS reports whether the EPS value is present.
func (r FundamentalRecord) HasEPS() bool { return !math.IsNaN(r.DilutedEPS) }

// FundamentalsTable holds quarterly and annual records of many tickers.
type FundamentalsTable struct {
	Columns ColumnSet           `json:"columns"`
	Rows    []FundamentalRecord `json:"rows"`
}

// NewFundamentalsTable wraps fully populated records.
func NewFundamentalsTable(rows []FundamentalRecord) FundamentalsTable {
	return FundamentalsTable{Columns: NewColumnSet(FundamentalColumns...), Rows: rows}
}

// CARow carries the earnings-growth booleans of a ticker for one period end.
type CARow struct {
	Ticker  string    `json:"ticker"`
	EndDate time.Time `json:"end_date"`
	C       bool      `json:"C"`
	A       bool      `json:"A"`
}

// CATable is keyed by (ticker, end_date).
type CATable struct {
	Columns ColumnSet `json:"columns"`
	Rows    []CARow   `json:"rows"`
}

// NewCATable wraps rows with the full C/A schema.
func NewCATable(rows []CARow) CATable {
	return CATable{Columns: NewColumnSet(CAColumns...), Rows: rows}
}
