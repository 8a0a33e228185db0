package models

import "time"

// Run describes one executed screening window.
type Run struct {
	ID         string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	From       time.Time    `json:"from"`
	To         time.Time    `json:"to"`
	Criteria   Criteria     `json:"criteria"`
	Manifest   Manifest     `json:"manifest"`
	Rows       int          `json:"rows"`
	Counts     LetterCounts `json:"counts"`
	Hits       int          `json:"hits"`
	Errors     []string     `json:"errors,omitempty"`
}

// LetterCounts is the number of rows where each letter is true.
type LetterCounts map[Letter]int

// RunSummary is returned to API and CLI callers.
type RunSummary struct {
	Run
	Tickers    int         `json:"tickers"`
	LatestHits []SignalHit `json:"latest_hits,omitempty"`
	Cached     bool        `json:"cached"`
}

// SignalHit is a ticker meeting every CANSLI criterion on a date, published downstream.
type SignalHit struct {
	RunID  string    `json:"run_id"`
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	M      bool      `json:"M"`
}

// StoredSignal is a signal row as persisted for a run.
type StoredSignal struct {
	RunID     string    `json:"run_id"`
	Ticker    string    `json:"ticker"`
	Date      time.Time `json:"date"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	C         bool      `json:"C"`
	A         bool      `json:"A"`
	N         bool      `json:"N"`
	S         bool      `json:"S"`
	L         bool      `json:"L"`
	I         bool      `json:"I"`
	CANSLIAll bool      `json:"CANSLI_all"`
	ADRatio   float64   `json:"AD_ratio"`
}

// CountLetters tallies true flags of the stock letters over rows and of M
// over the proxy rows of the market proxy, once per trading day.
func CountLetters(rows []SignalRow, proxies []ProxyRow, marketProxy string) LetterCounts {
	counts := make(LetterCounts, len(Letters))
	for _, l := range Letters {
		counts[l] = 0
	}
	for _, r := range rows {
		for _, l := range StockLetters {
			if r.Flag(l) {
				counts[l]++
			}
		}
	}
	for _, p := range proxies {
		if p.Ticker == marketProxy && p.M {
			counts[LetterM]++
		}
	}
	return counts
}

// Hits returns the rows where every stock letter holds.
func Hits(runID string, rows []SignalRow, marketUp func(time.Time) bool) []SignalHit {
	var out []SignalHit
	for _, r := range rows {
		if !r.CANSLIAll {
			continue
		}
		h := SignalHit{RunID: runID, Ticker: r.Ticker, Date: r.Date, Close: r.Close}
		if marketUp != nil {
			h.M = marketUp(r.Date)
		}
		out = append(out, h)
	}
	return out
}
