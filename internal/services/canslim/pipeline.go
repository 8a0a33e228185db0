package canslim

import (
	"context"
	"fmt"
	"time"

	"github.com/creasty/defaults"

	"CanSlim/internal/domain/models"
	applogger "CanSlim/pkg/logger"
)

// DefaultMarketProxy is the ticker whose series defines market direction.
const DefaultMarketProxy = "SPY"

// Input is one evaluation request. A nil Criteria runs with the pipeline
// defaults; an empty MarketProxy uses the calculator's proxy.
type Input struct {
	Proxies      models.PriceTable
	Candidates   models.PriceTable
	Fundamentals models.FundamentalsTable
	Criteria     *models.Criteria
	MarketProxy  string
}

// Result is always fully shaped. Stages that could not run leave their
// columns out of the table column sets and add an entry to Errors.
type Result struct {
	Proxies      models.ProxyTable        `json:"proxies"`
	Candidates   models.SignalTable       `json:"candidates"`
	Fundamentals models.FundamentalsTable `json:"-"`
	Manifest     models.Manifest          `json:"manifest"`
	Criteria     models.Criteria          `json:"criteria"`
	Errors       []error                  `json:"-"`
}

// DefaultCriteria returns the pipeline defaults for every option.
func DefaultCriteria() models.Criteria {
	var cr models.Criteria
	_ = defaults.Set(&cr)
	return cr
}

// EffectiveCriteria fills the options absent from cr with the pipeline
// defaults. cr itself is left untouched.
func EffectiveCriteria(cr *models.Criteria) (models.Criteria, error) {
	if cr == nil {
		return DefaultCriteria(), nil
	}
	out := *cr
	if err := defaults.Set(&out); err != nil {
		return models.Criteria{}, fmt.Errorf("apply criteria defaults: %w", err)
	}
	return out, nil
}

// Validate checks option ranges.
func (c *Calculator) Validate(cr models.Criteria) error {
	if err := c.validate.Struct(cr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}
	return nil
}

// Calculate runs the full CANSLIM evaluation: market direction on the proxy
// series, earnings growth from fundamentals, price/volume signals on the
// candidates, the as-of join of fundamentals and the CANSLI_all combination.
func (c *Calculator) Calculate(ctx context.Context, in Input) Result {
	started := time.Now()
	res := Result{Fundamentals: in.Fundamentals}

	criteria, err := EffectiveCriteria(in.Criteria)
	if err == nil {
		err = c.Validate(criteria)
	}
	if err != nil {
		c.l.Error("Criteria rejected, falling back to defaults", applogger.Error(err))
		res.Errors = append(res.Errors, err)
		criteria = DefaultCriteria()
	}
	res.Criteria = criteria
	res.Manifest = BuildManifest(criteria)

	if err := ctx.Err(); err != nil {
		res.Errors = append(res.Errors, err)
		res.Proxies = c.MergeMarketIntoProxies(in.Proxies, models.MarketTable{Columns: models.NewColumnSet()})
		res.Candidates = models.SignalTableFromPrices(in.Candidates)
		return res
	}

	proxy := in.MarketProxy
	if proxy == "" {
		proxy = c.proxy
	}

	c.l.Info("Calculating M in market proxy data...", applogger.String("proxy", proxy))
	market, err := c.CalculateM(in.Proxies.FilterTicker(proxy), criteria)
	res.Errors = appendErr(res.Errors, err)
	res.Proxies = c.MergeMarketIntoProxies(in.Proxies, market)

	c.l.Info("Computing C and A from financial data...")
	ca, err := c.ComputeCA(in.Fundamentals, criteria)
	res.Errors = appendErr(res.Errors, err)

	c.l.Info("Calculating N, S, L, I in top stocks data...")
	signals, err := c.CalculateNSLI(in.Candidates, market, criteria)
	res.Errors = appendErr(res.Errors, err)

	c.l.Info("Merging C and A into top stocks data...")
	signals, err = c.MergeCA(signals, ca)
	res.Errors = appendErr(res.Errors, err)

	c.l.Info("Calculating CANSLI_all column...")
	signals, err = c.CombineSignals(signals)
	res.Errors = appendErr(res.Errors, err)
	res.Candidates = signals

	c.l.Info("CANSLIM indicators computed",
		applogger.Int("rows", len(signals.Rows)),
		applogger.Int("errors", len(res.Errors)),
		applogger.Duration("elapsed_ms", time.Since(started)))
	return res
}

func appendErr(errs []error, err error) []error {
	if err == nil {
		return errs
	}
	return append(errs, err)
}
