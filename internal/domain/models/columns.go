package models

import (
	"encoding/json"
	"sort"
)

// Column names shared by every table. They match the upstream dataset headers.
const (
	ColTicker       = "ticker"
	ColDate         = "date"
	ColOpen         = "open"
	ColHigh         = "high"
	ColLow          = "low"
	ColClose        = "close"
	ColVolume       = "volume"
	ColTimeframe    = "timeframe"
	ColFiscalYear   = "fiscal_year"
	ColFiscalPeriod = "fiscal_period"
	ColDilutedEPS   = "diluted_eps"
	ColEndDate      = "end_date"

	ColMA50         = "50_MA"
	ColMA200        = "200_MA"
	ColM            = "M"
	ColStockReturn  = "stock_return"
	ColMarketReturn = "market_return"
	ColHigh52Week   = "52_week_high"
	ColVolAvg50     = "50_day_vol_avg"
	ColADValue      = "ad_value"
	ColADRatio      = "AD_ratio"
	ColN            = "N"
	ColS            = "S"
	ColL            = "L"
	ColI            = "I"
	ColC            = "C"
	ColA            = "A"
	ColCANSLIAll    = "CANSLI_all"
)

// PriceColumns are the columns of a fully populated price table.
var PriceColumns = []string{ColTicker, ColDate, ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// FundamentalColumns are the columns of a fully populated fundamentals table.
var FundamentalColumns = []string{ColTicker, ColTimeframe, ColFiscalYear, ColFiscalPeriod, ColDilutedEPS, ColEndDate}

// CAColumns are the columns of a C/A table.
var CAColumns = []string{ColTicker, ColEndDate, ColC, ColA}

// ColumnSet records which named columns a table carries.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from names.
func NewColumnSet(names ...string) ColumnSet {
	cs := make(ColumnSet, len(names))
	cs.Add(names...)
	return cs
}

// Add marks names as present.
func (cs ColumnSet) Add(names ...string) {
	for _, n := range names {
		cs[n] = struct{}{}
	}
}

// Has reports whether name is present.
func (cs ColumnSet) Has(name string) bool {
	_, ok := cs[name]
	return ok
}

// Missing returns the required names that are absent, sorted.
func (cs ColumnSet) Missing(required ...string) []string {
	var out []string
	for _, r := range required {
		if !cs.Has(r) {
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (cs ColumnSet) Clone() ColumnSet {
	out := make(ColumnSet, len(cs))
	for k := range cs {
		out[k] = struct{}{}
	}
	return out
}

// Names returns the column names sorted.
func (cs ColumnSet) Names() []string {
	out := make([]string, 0, len(cs))
	for k := range cs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted list of names.
func (cs ColumnSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.Names())
}

// UnmarshalJSON decodes a list of names.
func (cs *ColumnSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*cs = NewColumnSet(names...)
	return nil
}
