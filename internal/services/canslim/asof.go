package canslim

import (
	"sort"

	"CanSlim/internal/domain/models"
	applogger "CanSlim/pkg/logger"
)

// MergeCA attaches to every candidate row the C/A flags of the latest
// fundamentals period that ended on or before the row's date. Rows with no
// such period get C = A = false.
func (c *Calculator) MergeCA(signals models.SignalTable, ca models.CATable) (models.SignalTable, error) {
	out := models.SignalTable{Columns: signals.Columns.Clone(), Rows: make([]models.SignalRow, len(signals.Rows))}
	copy(out.Rows, signals.Rows)
	out.Columns.Add(models.ColC, models.ColA)

	if missing := ca.Columns.Missing(models.CAColumns...); len(missing) > 0 {
		c.l.Error("CA data missing required columns", applogger.Strings("columns", missing))
		for i := range out.Rows {
			out.Rows[i].C = false
			out.Rows[i].A = false
			out.Rows[i].FundamentalsEndDate = nil
		}
		return out, &MissingColumnError{Table: tableCA, Columns: missing}
	}

	rows := out.Rows
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	byTicker := make(map[string][]models.CARow)
	for _, r := range ca.Rows {
		byTicker[r.Ticker] = append(byTicker[r.Ticker], r)
	}
	for _, periods := range byTicker {
		sort.SliceStable(periods, func(i, j int) bool { return periods[i].EndDate.Before(periods[j].EndDate) })
	}

	for i := range rows {
		r := &rows[i]
		r.C, r.A, r.FundamentalsEndDate = false, false, nil
		periods := byTicker[r.Ticker]
		// first period ending strictly after the row date, minus one
		k := sort.Search(len(periods), func(j int) bool { return periods[j].EndDate.After(r.Date) }) - 1
		if k < 0 {
			continue
		}
		end := periods[k].EndDate
		r.C = periods[k].C
		r.A = periods[k].A
		r.FundamentalsEndDate = &end
	}
	out.Columns.Add(models.ColEndDate)
	return out, nil
}

// MergeMarketIntoProxies left-joins the market regime columns onto the proxy
// table by date. Dates absent from the market series get M = false and no
// moving averages.
func (c *Calculator) MergeMarketIntoProxies(proxies models.PriceTable, market models.MarketTable) models.ProxyTable {
	hasMA := market.Columns.Has(models.ColMA50) && market.Columns.Has(models.ColMA200)
	hasM := market.Columns.Has(models.ColM)

	byDate := make(map[int64]models.MarketRow, len(market.Rows))
	for _, r := range market.Rows {
		k := r.Date.UnixNano()
		if _, ok := byDate[k]; !ok {
			byDate[k] = r
		}
	}

	out := models.ProxyTable{Columns: proxies.Columns.Clone(), Rows: make([]models.ProxyRow, len(proxies.Rows))}
	for i, p := range proxies.Rows {
		row := models.ProxyRow{PricePoint: p}
		if m, ok := byDate[p.Date.UnixNano()]; ok {
			if hasMA {
				ma50, ma200 := m.MA50, m.MA200
				row.MA50 = &ma50
				row.MA200 = &ma200
			}
			row.M = hasM && m.M
		}
		out.Rows[i] = row
	}
	out.Columns.Add(models.ColM)
	if hasMA {
		out.Columns.Add(models.ColMA50, models.ColMA200)
	}
	return out
}
