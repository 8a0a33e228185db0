package canslim

import (
	"sort"

	"CanSlim/internal/domain/models"
	"CanSlim/internal/services/features"
	applogger "CanSlim/pkg/logger"
)

const (
	shortMAWindow = 50
	longMAWindow  = 200
)

// CalculateM adds the 50/200-day moving averages and the market direction
// flag to the market-proxy series. Without a close column the rows come back
// unchanged, without regime columns.
func (c *Calculator) CalculateM(market models.PriceTable, criteria models.Criteria) (models.MarketTable, error) {
	if missing := market.Columns.Missing(models.ColClose); len(missing) > 0 {
		c.l.Error("Market proxy data missing 'close' column required for M computation",
			applogger.Strings("columns", missing))
		out := models.MarketTable{Columns: market.Columns.Clone(), Rows: make([]models.MarketRow, len(market.Rows))}
		for i, p := range market.Rows {
			out.Rows[i] = models.MarketRow{PricePoint: p}
		}
		return out, &MissingColumnError{Table: tableMarket, Columns: missing}
	}

	rows := make([]models.MarketRow, len(market.Rows))
	for i, p := range market.Rows {
		rows[i] = models.MarketRow{PricePoint: p}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	closes := make([]float64, len(rows))
	for i := range rows {
		closes[i] = rows[i].Close
	}
	ma50 := features.RollingMean(closes, shortMAWindow)
	ma200 := features.RollingMean(closes, longMAWindow)

	cross := criteria.M.MACross()
	for i := range rows {
		rows[i].MA50 = ma50[i]
		rows[i].MA200 = ma200[i]
		if cross {
			rows[i].M = ma50[i] > ma200[i]
		} else {
			rows[i].M = true
		}
	}

	cols := market.Columns.Clone()
	cols.Add(models.ColMA50, models.ColMA200, models.ColM)
	return models.MarketTable{Columns: cols, Rows: rows}, nil
}
