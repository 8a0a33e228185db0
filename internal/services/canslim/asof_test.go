package canslim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CanSlim/internal/domain/models"
)

func signalRows(ticker string, dates ...string) []models.SignalRow {
	out := make([]models.SignalRow, len(dates))
	for i, d := range dates {
		out[i] = models.SignalRow{PricePoint: models.PricePoint{Ticker: ticker, Date: day(d)}}
	}
	return out
}

func TestMergeCA_NoLookAhead(t *testing.T) {
	c := newTestCalculator()
	signals := models.SignalTableFromPrices(models.NewPriceTable(nil))
	signals.Rows = signalRows("AAA", "2023-05-01", "2023-02-01", "2023-06-30", "2023-07-15")
	ca := models.NewCATable([]models.CARow{
		{Ticker: "AAA", EndDate: day("2023-06-30"), C: false, A: true},
		{Ticker: "AAA", EndDate: day("2023-03-31"), C: true, A: false},
	})

	out, err := c.MergeCA(signals, ca)
	require.NoError(t, err)
	require.Len(t, out.Rows, 4)

	byDate := map[string]models.SignalRow{}
	for _, r := range out.Rows {
		byDate[r.Date.Format("2006-01-02")] = r
	}

	feb := byDate["2023-02-01"]
	assert.False(t, feb.C, "no period has ended yet")
	assert.False(t, feb.A)
	assert.Nil(t, feb.FundamentalsEndDate)

	may := byDate["2023-05-01"]
	assert.True(t, may.C)
	assert.False(t, may.A)
	require.NotNil(t, may.FundamentalsEndDate)
	assert.Equal(t, day("2023-03-31"), *may.FundamentalsEndDate)

	onEnd := byDate["2023-06-30"]
	assert.False(t, onEnd.C, "a period ending on the row date is visible")
	assert.True(t, onEnd.A)

	jul := byDate["2023-07-15"]
	assert.Equal(t, day("2023-06-30"), *jul.FundamentalsEndDate)

	assert.Equal(t, day("2023-02-01"), out.Rows[0].Date, "sorted by ticker and date")
	assert.Equal(t, day("2023-05-01"), signals.Rows[0].Date, "input untouched")
	assert.True(t, out.Columns.Has(models.ColC))
	assert.True(t, out.Columns.Has(models.ColA))
}

func TestMergeCA_TickerWithoutFundamentals(t *testing.T) {
	c := newTestCalculator()
	signals := models.SignalTable{Columns: models.NewColumnSet(models.PriceColumns...)}
	signals.Rows = append(signalRows("BBB", "2023-05-01"), signalRows("AAA", "2023-05-01")...)
	ca := models.NewCATable([]models.CARow{{Ticker: "AAA", EndDate: day("2023-03-31"), C: true, A: true}})

	out, err := c.MergeCA(signals, ca)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "AAA", out.Rows[0].Ticker)
	assert.True(t, out.Rows[0].C)
	assert.True(t, out.Rows[0].A)
	assert.Equal(t, "BBB", out.Rows[1].Ticker)
	assert.False(t, out.Rows[1].C)
	assert.False(t, out.Rows[1].A)
}

func TestMergeCA_MissingColumns(t *testing.T) {
	c := newTestCalculator()
	signals := models.SignalTable{Columns: models.NewColumnSet(models.PriceColumns...), Rows: signalRows("AAA", "2023-05-01")}
	signals.Rows[0].C = true
	ca := models.CATable{
		Columns: models.NewColumnSet(models.ColTicker, models.ColEndDate),
		Rows:    []models.CARow{{Ticker: "AAA", EndDate: day("2023-03-31"), C: true, A: true}},
	}

	out, err := c.MergeCA(signals, ca)
	assert.ErrorIs(t, err, ErrMissingColumn)
	require.Len(t, out.Rows, 1)
	assert.False(t, out.Rows[0].C)
	assert.False(t, out.Rows[0].A)
	assert.True(t, out.Columns.Has(models.ColC), "C and A are still produced, all false")
}

func TestMergeMarketIntoProxies(t *testing.T) {
	c := newTestCalculator()
	market := models.MarketTable{
		Columns: models.NewColumnSet(append(models.PriceColumns, models.ColMA50, models.ColMA200, models.ColM)...),
		Rows: []models.MarketRow{
			{PricePoint: models.PricePoint{Ticker: "SPY", Date: day("2023-01-02")}, MA50: 2, MA200: 1, M: true},
			{PricePoint: models.PricePoint{Ticker: "SPY", Date: day("2023-01-03")}, MA50: 1, MA200: 2, M: false},
		},
	}
	proxies := models.NewPriceTable([]models.PricePoint{
		{Ticker: "QQQ", Date: day("2023-01-02")},
		{Ticker: "SPY", Date: day("2023-01-02")},
		{Ticker: "QQQ", Date: day("2023-01-03")},
		{Ticker: "QQQ", Date: day("2023-01-04")},
	})

	out := c.MergeMarketIntoProxies(proxies, market)
	require.Len(t, out.Rows, 4)
	assert.Equal(t, "QQQ", out.Rows[0].Ticker, "proxy order is kept")
	assert.True(t, out.Rows[0].M)
	require.NotNil(t, out.Rows[0].MA50)
	assert.Equal(t, 2.0, *out.Rows[0].MA50)
	assert.True(t, out.Rows[1].M)
	assert.False(t, out.Rows[2].M)
	assert.False(t, out.Rows[3].M, "no market bar defaults to false")
	assert.Nil(t, out.Rows[3].MA50)
	assert.Nil(t, out.Rows[3].MA200)
	assert.True(t, out.Columns.Has(models.ColM))
	assert.True(t, out.Columns.Has(models.ColMA200))
}

func TestMergeMarketIntoProxies_MarketWithoutRegime(t *testing.T) {
	c := newTestCalculator()
	market := models.MarketTable{
		Columns: models.NewColumnSet(models.ColTicker, models.ColDate),
		Rows:    []models.MarketRow{{PricePoint: models.PricePoint{Ticker: "SPY", Date: day("2023-01-02")}, M: true}},
	}
	proxies := models.NewPriceTable([]models.PricePoint{{Ticker: "SPY", Date: day("2023-01-02")}})

	out := c.MergeMarketIntoProxies(proxies, market)
	assert.False(t, out.Rows[0].M)
	assert.Nil(t, out.Rows[0].MA50)
	assert.False(t, out.Columns.Has(models.ColMA50))
}
