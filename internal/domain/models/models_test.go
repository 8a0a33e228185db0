package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountLetters(t *testing.T) {
	rows := []SignalRow{
		{C: true, A: true, N: true, S: true, L: true, I: true, CANSLIAll: true},
		{C: true, N: true},
		{},
	}
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	proxies := []ProxyRow{
		{PricePoint: PricePoint{Ticker: "SPY", Date: d1}, M: true},
		{PricePoint: PricePoint{Ticker: "QQQ", Date: d1}, M: true},
		{PricePoint: PricePoint{Ticker: "DIA", Date: d1}, M: true},
		{PricePoint: PricePoint{Ticker: "SPY", Date: d2}, M: false},
		{PricePoint: PricePoint{Ticker: "QQQ", Date: d2}, M: false},
	}

	counts := CountLetters(rows, proxies, "SPY")
	assert.Equal(t, 2, counts[LetterC])
	assert.Equal(t, 1, counts[LetterA])
	assert.Equal(t, 2, counts[LetterN])
	assert.Equal(t, 1, counts[LetterM])
	assert.Len(t, counts, len(Letters))
}

func TestHits(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	rows := []SignalRow{
		{PricePoint: PricePoint{Ticker: "AAA", Date: d1, Close: 10}, CANSLIAll: true},
		{PricePoint: PricePoint{Ticker: "BBB", Date: d1, Close: 5}},
		{PricePoint: PricePoint{Ticker: "AAA", Date: d2, Close: 11}, CANSLIAll: true},
	}

	hits := Hits("run-1", rows, func(d time.Time) bool { return d.Equal(d2) })
	require.Len(t, hits, 2)
	assert.Equal(t, "run-1", hits[0].RunID)
	assert.False(t, hits[0].M)
	assert.True(t, hits[1].M)
	assert.Equal(t, 11.0, hits[1].Close)
}

func TestCriteriaRequestApply(t *testing.T) {
	base := Criteria{C: CurrentEarnings{QuarterlyGrowthThreshold: Float(0.1)}}
	got := CriteriaRequest{S: Float(2), N: Int(20)}.Apply(base)

	assert.Equal(t, 0.1, got.C.Threshold())
	assert.Equal(t, 2.0, got.S.Factor())
	assert.Equal(t, 20, got.N.Lookback())
	assert.Equal(t, 0.20, got.A.Threshold())
}

func TestCriteriaOverlay(t *testing.T) {
	base := Criteria{
		C: CurrentEarnings{QuarterlyGrowthThreshold: Float(0.1)},
		S: SupplyDemand{VolumeFactor: Float(1.0)},
		I: Institutional{LookbackPeriod: Int(30)},
	}
	got := base.Overlay(Criteria{
		C: CurrentEarnings{QuarterlyGrowthThreshold: Float(0.3)},
		I: Institutional{ADRatioThreshold: Float(2)},
		M: MarketDirection{UseMACross: Bool(false)},
	})

	assert.Equal(t, 0.3, got.C.Threshold())
	assert.Equal(t, 1.0, got.S.Factor())
	assert.Equal(t, 30, got.I.Lookback())
	assert.Equal(t, 2.0, got.I.Threshold())
	assert.False(t, got.M.MACross())
	assert.Nil(t, got.A.AnnualGrowthThreshold)
	assert.Equal(t, 0.1, *base.C.QuarterlyGrowthThreshold, "base is not modified")
}
