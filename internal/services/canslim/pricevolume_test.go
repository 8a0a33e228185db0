package canslim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CanSlim/internal/domain/models"
)

func marketFor(t *testing.T, c *Calculator, closes []float64) models.MarketTable {
	t.Helper()
	m, err := c.CalculateM(models.NewPriceTable(closesToBars("SPY", day("2023-01-02"), closes, nil)), DefaultCriteria())
	require.NoError(t, err)
	return m
}

func TestCalculateNSLI_FiveRowLiteral(t *testing.T) {
	c := newTestCalculator()
	cands := models.NewPriceTable(closesToBars("AAA", day("2023-01-02"),
		[]float64{10, 12, 11, 13, 9},
		[]float64{100, 200, 300, 400, 1000},
	))
	market := marketFor(t, c, []float64{100, 100, 100, 100, 100})

	// S uses the standalone volume factor 1.5
	cr := models.Criteria{N: models.NewHigh{LookbackPeriod: models.Int(3)}}
	out, err := c.CalculateNSLI(cands, market, cr)
	require.NoError(t, err)
	require.Len(t, out.Rows, 5)

	highs := []float64{10, 12, 12, 13, 13}
	n := []bool{true, true, false, true, false}
	avgs := []float64{100, 150, 200, 250, 400}
	s := []bool{false, false, true, true, true}
	for i, r := range out.Rows {
		assert.Equal(t, highs[i], r.High52Week, "52_week_high row %d", i)
		assert.Equal(t, n[i], r.N, "N row %d", i)
		assert.InDelta(t, avgs[i], r.VolAvg50, 1e-9, "50_day_vol_avg row %d", i)
		assert.Equal(t, s[i], r.S, "S row %d", i)
	}

	for _, col := range []string{
		models.ColStockReturn, models.ColMarketReturn, models.ColHigh52Week, models.ColVolAvg50,
		models.ColADValue, models.ColADRatio, models.ColN, models.ColS, models.ColL, models.ColI,
	} {
		assert.True(t, out.Columns.Has(col), col)
	}
}

func TestCalculateNSLI_LeaderLaggard(t *testing.T) {
	c := newTestCalculator()
	market := marketFor(t, c, []float64{100, 110, 99})
	bars := closesToBars("AAA", day("2023-01-02"), []float64{10, 10.5, 10.5, 11}, []float64{1, 1, 1, 1})
	out, err := c.CalculateNSLI(models.NewPriceTable(bars), market, DefaultCriteria())
	require.NoError(t, err)

	r := out.Rows
	assert.Equal(t, 0.0, r[0].StockReturn)
	require.NotNil(t, r[0].MarketReturn)
	assert.Equal(t, 0.0, *r[0].MarketReturn)
	assert.False(t, r[0].L, "0 - 0 is not above 0")

	assert.InDelta(t, 0.05, r[1].StockReturn, 1e-12)
	assert.False(t, r[1].L, "5% against a 10% market")

	assert.True(t, r[2].L, "flat against a falling market")

	assert.Nil(t, r[3].MarketReturn, "no market bar on the fourth day")
	assert.False(t, r[3].L)
}

func TestCalculateNSLI_PerTickerPartitions(t *testing.T) {
	c := newTestCalculator()
	market := marketFor(t, c, []float64{100, 101, 102})
	rows := append(
		closesToBars("ZZZ", day("2023-01-02"), []float64{50, 40, 60}, []float64{10, 10, 10}),
		closesToBars("AAA", day("2023-01-02"), []float64{5, 6, 4}, []float64{1, 2, 3})...,
	)
	// shuffle dates inside a ticker too
	rows[0], rows[2] = rows[2], rows[0]
	cands := models.NewPriceTable(rows)

	out, err := c.CalculateNSLI(cands, market, DefaultCriteria())
	require.NoError(t, err)
	require.Len(t, out.Rows, 6)

	tickers := make([]string, len(out.Rows))
	for i, r := range out.Rows {
		tickers[i] = r.Ticker
	}
	assert.Equal(t, []string{"AAA", "AAA", "AAA", "ZZZ", "ZZZ", "ZZZ"}, tickers)
	for i := 1; i < 3; i++ {
		assert.True(t, out.Rows[i-1].Date.Before(out.Rows[i].Date))
		assert.True(t, out.Rows[i+2].Date.Before(out.Rows[i+3].Date))
	}

	assert.Equal(t, 0.0, out.Rows[0].StockReturn)
	assert.Equal(t, 0.0, out.Rows[3].StockReturn, "first row of every ticker starts at 0")
	assert.InDelta(t, -0.2, out.Rows[4].StockReturn, 1e-12)
	assert.Equal(t, 6.0, out.Rows[2].High52Week, "AAA max never sees ZZZ closes")
	assert.Equal(t, 60.0, out.Rows[5].High52Week)
	assert.InDelta(t, 2.0, out.Rows[2].VolAvg50, 1e-12)

	assert.Equal(t, day("2023-01-04"), rows[0].Date, "input rows stay in place")
}

func TestCalculateNSLI_ADValue(t *testing.T) {
	c := newTestCalculator()
	market := marketFor(t, c, []float64{100, 100, 100})
	cands := models.NewPriceTable([]models.PricePoint{
		{Ticker: "AAA", Date: day("2023-01-02"), Open: 10, High: 12, Low: 8, Close: 11, Volume: 100},
		{Ticker: "AAA", Date: day("2023-01-03"), Open: 10, High: 10, Low: 10, Close: 10, Volume: 500},
		{Ticker: "AAA", Date: day("2023-01-04"), Open: 10, High: 12, Low: 8, Close: 12, Volume: 200},
	})

	cr := DefaultCriteria()
	cr.I.LookbackPeriod = models.Int(2)
	cr.I.ADRatioThreshold = models.Float(100)
	out, err := c.CalculateNSLI(cands, market, cr)
	require.NoError(t, err)

	ad := []float64{50, 0, 200}
	ratio := []float64{50, 25, 100}
	i := []bool{false, false, true}
	for k, r := range out.Rows {
		assert.False(t, math.IsNaN(r.ADValue), "row %d", k)
		assert.Equal(t, ad[k], r.ADValue, "ad_value row %d", k)
		assert.Equal(t, ratio[k], r.ADRatio, "AD_ratio row %d", k)
		assert.Equal(t, i[k], r.I, "I row %d", k)
	}
}

func TestCalculateNSLI_FlatBarsNeverDivide(t *testing.T) {
	c := newTestCalculator()
	rows := make([]models.PricePoint, 10)
	for k := range rows {
		rows[k] = models.PricePoint{Ticker: "FLT", Date: day("2023-01-02").AddDate(0, 0, k), Open: 7, High: 7, Low: 7, Close: 7, Volume: 1e6}
	}
	out, err := c.CalculateNSLI(models.NewPriceTable(rows), marketFor(t, c, []float64{1}), DefaultCriteria())
	require.NoError(t, err)
	for _, r := range out.Rows {
		assert.Equal(t, 0.0, r.ADValue)
		assert.Equal(t, 0.0, r.ADRatio)
		assert.False(t, r.I)
	}
}

func TestCalculateNSLI_MissingColumns(t *testing.T) {
	c := newTestCalculator()
	cands := models.PriceTable{
		Columns: models.NewColumnSet(models.ColTicker, models.ColDate, models.ColClose),
		Rows: []models.PricePoint{
			{Ticker: "BBB", Date: day("2023-01-03"), Close: 2},
			{Ticker: "AAA", Date: day("2023-01-02"), Close: 1},
		},
	}

	out, err := c.CalculateNSLI(cands, marketFor(t, c, []float64{1}), DefaultCriteria())
	require.Error(t, err)
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, []string{models.ColHigh, models.ColLow, models.ColOpen, models.ColVolume}, mce.Columns)

	require.Len(t, out.Rows, 2)
	assert.Equal(t, "BBB", out.Rows[0].Ticker, "rows come back unchanged")
	assert.False(t, out.Columns.Has(models.ColN))
	assert.False(t, out.Columns.Has(models.ColI))
}

func TestCalculateNSLI_MarketWithoutClose(t *testing.T) {
	c := newTestCalculator()
	market := models.MarketTable{Columns: models.NewColumnSet(models.ColTicker, models.ColDate)}
	cands := models.NewPriceTable(closesToBars("AAA", day("2023-01-02"), []float64{1, 2}, []float64{1, 1}))

	out, err := c.CalculateNSLI(cands, market, DefaultCriteria())
	assert.ErrorIs(t, err, ErrMissingColumn)
	require.Len(t, out.Rows, 2)
	for _, r := range out.Rows {
		assert.Nil(t, r.MarketReturn)
		assert.False(t, r.L)
	}
	assert.True(t, out.Rows[1].N, "other signals are still evaluated")
}
