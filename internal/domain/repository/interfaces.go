package repository

import (
	"context"
	"time"

	"CanSlim/internal/domain/models"
)

// PriceQuery selects daily bars. Empty Tickers means every ticker.
type PriceQuery struct {
	Tickers []string
	From    time.Time
	To      time.Time
}

// FundamentalsQuery selects reported periods that ended on or before To.
type FundamentalsQuery struct {
	Tickers []string
	To      time.Time
}

// SignalQuery selects stored signal rows. Zero values leave a bound open.
type SignalQuery struct {
	RunID   string
	Ticker  string
	From    time.Time
	To      time.Time
	OnlyAll bool
	Limit   int
}

// MarketStore loads the raw inputs of a screening run. Loaders fill the
// table column sets with the columns the source actually provides.
type MarketStore interface {
	LoadPrices(ctx context.Context, q PriceQuery) (models.PriceTable, error)
	LoadFundamentals(ctx context.Context, q FundamentalsQuery) (models.FundamentalsTable, error)
	Health(ctx context.Context) error
}

// SignalStore persists runs and their signal rows.
type SignalStore interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run models.Run) error
	SaveSignals(ctx context.Context, runID string, rows []models.SignalRow) error
	QuerySignals(ctx context.Context, q SignalQuery) ([]models.StoredSignal, error)
	LatestRun(ctx context.Context) (*models.Run, error)
	Health(ctx context.Context) error
}

// Publisher ships CANSLI_all hits downstream.
type Publisher interface {
	PublishHits(ctx context.Context, hits []models.SignalHit) error
	Close() error
}

// Metrics records screening activity.
type Metrics interface {
	RecordRun(status string, seconds float64)
	RecordRows(rows, tickers int)
	RecordLetterCounts(counts models.LetterCounts)
	RecordHits(n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
