package models

import "time"

// SignalRow is a candidate bar augmented with every derived CANSLIM column.
type SignalRow struct {
	PricePoint

	StockReturn float64 `json:"stock_return"`
	// MarketReturn is nil when the market series has no bar on Date.
	MarketReturn *float64 `json:"market_return"`

	High52Week float64 `json:"52_week_high"`
	VolAvg50   float64 `json:"50_day_vol_avg"`
	ADValue    float64 `json:"ad_value"`
	ADRatio    float64 `json:"AD_ratio"`

	N bool `json:"N"`
	S bool `json:"S"`
	L bool `json:"L"`
	I bool `json:"I"`
	C bool `json:"C"`
	A bool `json:"A"`

	CANSLIAll bool `json:"CANSLI_all"`

	// FundamentalsEndDate is the end_date of the fundamentals row matched as of Date.
	FundamentalsEndDate *time.Time `json:"end_date,omitempty"`
}

// SignalTable is the candidate table after signal evaluation. Columns tells
// which derived columns were produced; a failed stage leaves its columns out.
type SignalTable struct {
	Columns ColumnSet   `json:"columns"`
	Rows    []SignalRow `json:"rows"`
}

// SignalTableFromPrices lifts bars into signal rows without derived columns.
func SignalTableFromPrices(t PriceTable) SignalTable {
	out := SignalTable{Columns: t.Columns.Clone(), Rows: make([]SignalRow, len(t.Rows))}
	for i, p := range t.Rows {
		out.Rows[i] = SignalRow{PricePoint: p}
	}
	return out
}

// Flag returns the boolean of a signal letter.
func (r SignalRow) Flag(letter Letter) bool {
	switch letter {
	case LetterC:
		return r.C
	case LetterA:
		return r.A
	case LetterN:
		return r.N
	case LetterS:
		return r.S
	case LetterL:
		return r.L
	case LetterI:
		return r.I
	default:
		return false
	}
}
