package canslim

import (
	"runtime"

	"github.com/go-playground/validator/v10"

	applogger "CanSlim/pkg/logger"
)

// Table names used in errors and logs.
const (
	tableMarket       = "market proxy"
	tableCandidates   = "top stocks"
	tableFundamentals = "financials"
	tableCA           = "CA"
)

// Calculator evaluates the CANSLIM indicators. It holds no per-run state and
// is safe for concurrent use.
type Calculator struct {
	l        *applogger.Logger
	workers  int
	proxy    string
	validate *validator.Validate
}

type Option func(*Calculator)

// WithWorkers bounds the number of tickers evaluated in parallel.
func WithWorkers(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMarketProxy sets the ticker used as the market series when the input
// does not name one.
func WithMarketProxy(ticker string) Option {
	return func(c *Calculator) {
		if ticker != "" {
			c.proxy = ticker
		}
	}
}

func NewCalculator(l *applogger.Logger, opts ...Option) *Calculator {
	if l == nil {
		l = applogger.Nop()
	}
	c := &Calculator{
		l:        l,
		workers:  runtime.GOMAXPROCS(0),
		proxy:    DefaultMarketProxy,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarketProxy returns the default market proxy ticker.
func (c *Calculator) MarketProxy() string { return c.proxy }
