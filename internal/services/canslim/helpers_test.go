package canslim

import (
	"time"

	"CanSlim/internal/domain/models"
	applogger "CanSlim/pkg/logger"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestCalculator() *Calculator {
	return NewCalculator(applogger.Nop(), WithWorkers(2))
}

// risingBars builds n daily bars closing at base, base+1, ... with the close
// at the top of a two-point range.
func risingBars(ticker string, start time.Time, n int, base, volume float64) []models.PricePoint {
	out := make([]models.PricePoint, n)
	for i := range out {
		c := base + float64(i)
		out[i] = models.PricePoint{
			Ticker: ticker,
			Date:   start.AddDate(0, 0, i),
			Open:   c - 1,
			High:   c,
			Low:    c - 2,
			Close:  c,
			Volume: volume,
		}
	}
	return out
}

func closesToBars(ticker string, start time.Time, closes, volumes []float64) []models.PricePoint {
	out := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		v := 0.0
		if i < len(volumes) {
			v = volumes[i]
		}
		out[i] = models.PricePoint{
			Ticker: ticker,
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: v,
		}
	}
	return out
}
