package canslim

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"CanSlim/internal/domain/models"
	"CanSlim/internal/services/features"
	applogger "CanSlim/pkg/logger"
)

const volumeAvgWindow = 50

// CalculateNSLI evaluates the per-stock price/volume signals: N (new high),
// S (volume surge), L (outperforming the market) and I (accumulation). The
// market table supplies daily market returns joined on date. Candidates
// lacking a required column come back unchanged with no derived columns.
func (c *Calculator) CalculateNSLI(cands models.PriceTable, market models.MarketTable, criteria models.Criteria) (models.SignalTable, error) {
	if missing := cands.Columns.Missing(models.PriceColumns...); len(missing) > 0 {
		c.l.Error("Top stocks data missing required columns", applogger.Strings("columns", missing))
		return models.SignalTableFromPrices(cands), &MissingColumnError{Table: tableCandidates, Columns: missing}
	}

	var marketErr error
	marketReturns := map[int64]float64{}
	if missing := market.Columns.Missing(models.ColDate, models.ColClose); len(missing) > 0 {
		c.l.Error("Market proxy data missing columns for market returns, L is false for every row",
			applogger.Strings("columns", missing))
		marketErr = &MissingColumnError{Table: tableMarket, Columns: missing}
	} else {
		marketReturns = marketReturnsByDate(market.Rows)
	}

	table := models.SignalTableFromPrices(cands)
	rows := table.Rows
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	p := nsliParams{
		nLookback: criteria.N.Lookback(),
		sFactor:   criteria.S.Factor(),
		lDiff:     criteria.L.Threshold(),
		iLookback: criteria.I.Lookback(),
		iThresh:   criteria.I.Threshold(),
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, part := range tickerPartitions(rows) {
		part := part
		g.Go(func() error {
			evaluateNSLI(part, marketReturns, p)
			return nil
		})
	}
	_ = g.Wait()

	table.Columns.Add(
		models.ColStockReturn, models.ColMarketReturn,
		models.ColHigh52Week, models.ColN,
		models.ColVolAvg50, models.ColS,
		models.ColL,
		models.ColADValue, models.ColADRatio, models.ColI,
	)
	return table, marketErr
}

type nsliParams struct {
	nLookback int
	sFactor   float64
	lDiff     float64
	iLookback int
	iThresh   float64
}

func marketReturnsByDate(rows []models.MarketRow) map[int64]float64 {
	sorted := make([]models.MarketRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	closes := make([]float64, len(sorted))
	for i, r := range sorted {
		closes[i] = r.Close
	}
	rets := features.PctChange(closes)
	out := make(map[int64]float64, len(sorted))
	for i, r := range sorted {
		k := r.Date.UnixNano()
		if _, ok := out[k]; !ok {
			out[k] = rets[i]
		}
	}
	return out
}

// tickerPartitions splits rows sorted by ticker into one sub-slice per ticker.
// The sub-slices share the backing array and never overlap.
func tickerPartitions(rows []models.SignalRow) [][]models.SignalRow {
	var parts [][]models.SignalRow
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) || rows[i].Ticker != rows[start].Ticker {
			parts = append(parts, rows[start:i])
			start = i
		}
	}
	return parts
}

func evaluateNSLI(rows []models.SignalRow, marketReturns map[int64]float64, p nsliParams) {
	n := len(rows)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	ad := make([]float64, n)
	for i, r := range rows {
		closes[i] = r.Close
		volumes[i] = r.Volume
		ad[i] = adValue(r.PricePoint)
	}

	stockRet := features.PctChange(closes)
	highs := features.RollingMax(closes, p.nLookback)
	volAvg := features.RollingMean(volumes, volumeAvgWindow)
	adRatio := features.RollingMean(ad, p.iLookback)

	for i := range rows {
		r := &rows[i]
		r.StockReturn = stockRet[i]
		if mr, ok := marketReturns[r.Date.UnixNano()]; ok {
			r.MarketReturn = &mr
			r.L = stockRet[i]-mr > p.lDiff
		}

		r.High52Week = highs[i]
		r.N = r.Close >= highs[i]

		r.VolAvg50 = volAvg[i]
		r.S = r.Volume >= volAvg[i]*p.sFactor

		r.ADValue = ad[i]
		r.ADRatio = adRatio[i]
		r.I = adRatio[i] >= p.iThresh
	}
}

// adValue is the accumulation/distribution of one bar:
// ((close-low) - (high-close)) / (high-low) * volume, or 0 on a flat bar.
func adValue(p models.PricePoint) float64 {
	if p.High == p.Low {
		return 0
	}
	return (((p.Close - p.Low) - (p.High - p.Close)) / (p.High - p.Low)) * p.Volume
}
