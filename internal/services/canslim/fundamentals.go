package canslim

import (
	"math"
	"sort"
	"time"

	"CanSlim/internal/domain/models"
	applogger "CanSlim/pkg/logger"
)

type caKey struct {
	ticker string
	end    int64
}

func keyOf(ticker string, end time.Time) caKey {
	return caKey{ticker: ticker, end: end.UnixNano()}
}

type growthRow struct {
	ticker string
	end    time.Time
	ok     bool
}

// ComputeCA derives the C (quarterly) and A (annual) earnings-growth flags
// per (ticker, end_date). Growth is (eps - prev) / |prev| against the previous
// row of the same group; a row without a predecessor never qualifies.
func (c *Calculator) ComputeCA(fin models.FundamentalsTable, criteria models.Criteria) (models.CATable, error) {
	if missing := fin.Columns.Missing(models.FundamentalColumns...); len(missing) > 0 {
		c.l.Error("Financials data missing required columns", applogger.Strings("columns", missing))
		return models.NewCATable([]models.CARow{}), &MissingColumnError{Table: tableFundamentals, Columns: missing}
	}

	cThresh := criteria.C.Threshold()
	aThresh := criteria.A.Threshold()
	c.l.Debug("Starting computation of C and A from financials")

	var quarterly, annual []models.FundamentalRecord
	for _, r := range fin.Rows {
		switch r.Timeframe {
		case models.TimeframeQuarterly:
			quarterly = append(quarterly, r)
		case models.TimeframeAnnual:
			annual = append(annual, r)
		}
	}

	sort.SliceStable(quarterly, func(i, j int) bool {
		a, b := quarterly[i], quarterly[j]
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		if a.FiscalPeriod != b.FiscalPeriod {
			return a.FiscalPeriod < b.FiscalPeriod
		}
		return a.FiscalYear < b.FiscalYear
	})
	cRows := growthFlags(quarterly, cThresh, func(a, b models.FundamentalRecord) bool {
		return a.Ticker == b.Ticker && a.FiscalPeriod == b.FiscalPeriod
	})
	c.l.Debug("C: quarterly EPS growth evaluated",
		applogger.Int("true_rows", countTrue(cRows)),
		applogger.Float64("threshold", cThresh))

	sort.SliceStable(annual, func(i, j int) bool {
		a, b := annual[i], annual[j]
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.FiscalYear < b.FiscalYear
	})
	aRows := growthFlags(annual, aThresh, func(a, b models.FundamentalRecord) bool {
		return a.Ticker == b.Ticker
	})
	c.l.Debug("A: annual EPS growth evaluated",
		applogger.Int("true_rows", countTrue(aRows)),
		applogger.Float64("threshold", aThresh))

	out := outerJoinCA(dedupGrowth(cRows), dedupGrowth(aRows))
	var cTrue, aTrue int
	for _, r := range out {
		if r.C {
			cTrue++
		}
		if r.A {
			aTrue++
		}
	}
	c.l.Debug("Final CA table",
		applogger.Int("rows", len(out)),
		applogger.Int("c_true", cTrue),
		applogger.Int("a_true", aTrue))
	return models.NewCATable(out), nil
}

// growthFlags expects rows sorted so that a group is contiguous and ordered
// by fiscal year; sameGroup tells whether two adjacent rows share a group.
func growthFlags(rows []models.FundamentalRecord, threshold float64, sameGroup func(a, b models.FundamentalRecord) bool) []growthRow {
	out := make([]growthRow, len(rows))
	for i, r := range rows {
		out[i] = growthRow{ticker: r.Ticker, end: r.EndDate}
		if i == 0 || !sameGroup(rows[i-1], r) {
			continue
		}
		if !r.HasEPS() || !rows[i-1].HasEPS() {
			continue
		}
		prev := rows[i-1].DilutedEPS
		// A zero denominator follows IEEE rules: 0/0 never qualifies, +Inf does.
		ratio := (r.DilutedEPS - prev) / math.Abs(prev)
		out[i].ok = ratio >= threshold
	}
	return out
}

func dedupGrowth(rows []growthRow) []growthRow {
	seen := make(map[caKey]struct{}, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		k := keyOf(r.ticker, r.end)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func outerJoinCA(cRows, aRows []growthRow) []models.CARow {
	idx := make(map[caKey]int, len(cRows)+len(aRows))
	out := make([]models.CARow, 0, len(cRows)+len(aRows))
	for _, r := range cRows {
		idx[keyOf(r.ticker, r.end)] = len(out)
		out = append(out, models.CARow{Ticker: r.ticker, EndDate: r.end, C: r.ok})
	}
	for _, r := range aRows {
		k := keyOf(r.ticker, r.end)
		if i, ok := idx[k]; ok {
			out[i].A = r.ok
			continue
		}
		idx[k] = len(out)
		out = append(out, models.CARow{Ticker: r.ticker, EndDate: r.end, A: r.ok})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].EndDate.Before(out[j].EndDate)
	})
	return out
}

func countTrue(rows []growthRow) int {
	n := 0
	for _, r := range rows {
		if r.ok {
			n++
		}
	}
	return n
}
