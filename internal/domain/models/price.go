package models

import "time"

// PricePoint is one daily OHLCV bar of a ticker.
type PricePoint struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceTable is a set of bars for one or many tickers. Columns lists the
// fields that were actually populated by the source.
type PriceTable struct {
	Columns ColumnSet    `json:"columns"`
	Rows    []PricePoint `json:"rows"`
}

// NewPriceTable wraps fully populated bars.
func NewPriceTable(rows []PricePoint) PriceTable {
	return PriceTable{Columns: NewColumnSet(PriceColumns...), Rows: rows}
}

// FilterTicker returns the rows of a single ticker, keeping the column set.
func (t PriceTable) FilterTicker(ticker string) PriceTable {
	out := PriceTable{Columns: t.Columns.Clone()}
	for _, r := range t.Rows {
		if r.Ticker == ticker {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// MarketRow is a market-proxy bar with the regime columns.
type MarketRow struct {
	PricePoint
	MA50  float64 `json:"50_MA"`
	MA200 float64 `json:"200_MA"`
	M     bool    `json:"M"`
}

// MarketTable is the market-proxy series after M evaluation.
type MarketTable struct {
	Columns ColumnSet   `json:"columns"`
	Rows    []MarketRow `json:"rows"`
}

// ProxyRow is a proxy-table bar joined with the market regime of its date.
// MA50/MA200 are nil when the market series has no bar on that date.
type ProxyRow struct {
	PricePoint
	MA50  *float64 `json:"50_MA"`
	MA200 *float64 `json:"200_MA"`
	M     bool     `json:"M"`
}

// ProxyTable is the augmented proxy table.
type ProxyTable struct {
	Columns ColumnSet  `json:"columns"`
	Rows    []ProxyRow `json:"rows"`
}
