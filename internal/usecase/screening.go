package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"CanSlim/internal/domain/models"
	domrepo "CanSlim/internal/domain/repository"
	"CanSlim/internal/services/canslim"
	"CanSlim/pkg/cache"
	applogger "CanSlim/pkg/logger"
	"CanSlim/pkg/util"
)

var (
	// ErrRunInProgress is returned when another instance holds the run lock.
	ErrRunInProgress = errors.New("screening run already in progress")
	// ErrInvalidWindow is returned for an empty or inverted date window.
	ErrInvalidWindow = errors.New("invalid screening window")
)

var (
	runLockKey   = cache.LockKey("run")
	latestRunKey = cache.LatestRunKey()
)

// ScreeningConfig carries the service-level defaults of a run.
type ScreeningConfig struct {
	MarketProxy string
	Proxies     []string
	Tickers     []string
	Criteria    models.Criteria
	// WarmupDays is the number of trading days loaded before From so rolling
	// windows are full on the first reported day.
	WarmupDays int
	LockTTL    time.Duration
	CacheTTL   time.Duration
	Persist    bool
	Publish    bool
}

// RunParams selects one screening window. Nil options fall back to the
// service configuration.
type RunParams struct {
	From     time.Time
	To       time.Time
	Tickers  []string
	Criteria *models.Criteria
	Persist  *bool
	Publish  *bool
	Reason   string
}

// CriteriaView is the effective criteria and its manifest.
type CriteriaView struct {
	Criteria models.Criteria `json:"criteria"`
	Manifest models.Manifest `json:"manifest"`
}

// ScreeningUseCase loads market data, evaluates CANSLIM and fans the result
// out to storage, Kafka, metrics and the cache.
type ScreeningUseCase struct {
	calc      *canslim.Calculator
	market    domrepo.MarketStore
	store     domrepo.SignalStore
	publisher domrepo.Publisher
	cache     cache.Service
	metrics   domrepo.Metrics
	l         *applogger.Logger
	cfg       ScreeningConfig
	now       func() time.Time
}

func NewScreeningUseCase(
	calc *canslim.Calculator,
	market domrepo.MarketStore,
	store domrepo.SignalStore,
	publisher domrepo.Publisher,
	c cache.Service,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	cfg ScreeningConfig,
) *ScreeningUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	if cfg.MarketProxy == "" {
		cfg.MarketProxy = calc.MarketProxy()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 15 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	return &ScreeningUseCase{
		calc:      calc,
		market:    market,
		store:     store,
		publisher: publisher,
		cache:     c,
		metrics:   metrics,
		l:         l,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run screens the window [From, To]. Stage-level problems such as a missing
// column end up in the summary's Errors; only failures that prevent a run
// at all are returned.
func (u *ScreeningUseCase) Run(ctx context.Context, p RunParams) (*models.RunSummary, error) {
	started := u.now()
	from, to := util.Day(p.From), util.Day(p.To)
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: %s..%s", ErrInvalidWindow, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	ok, err := u.cache.TryLock(ctx, runLockKey, u.cfg.LockTTL)
	if err != nil {
		u.metrics.RecordError("run_lock")
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := u.cache.Unlock(context.WithoutCancel(ctx), runLockKey); err != nil {
			u.l.Warn("release run lock", applogger.Error(err))
		}
	}()

	runID := uuid.NewString()
	l := u.l.With(applogger.String("run_id", runID))
	tickers := util.NormalizeTickers(p.Tickers...)
	if len(tickers) == 0 {
		tickers = util.NormalizeTickers(u.cfg.Tickers...)
	}
	proxies := util.NormalizeTickers(append([]string{u.cfg.MarketProxy}, u.cfg.Proxies...)...)
	criteria := u.cfg.Criteria
	if p.Criteria != nil {
		criteria = criteria.Overlay(*p.Criteria)
	}
	l.Info("screening run started",
		applogger.String("from", from.Format(time.DateOnly)),
		applogger.String("to", to.Format(time.DateOnly)),
		applogger.Int("tickers", len(tickers)),
		applogger.String("reason", p.Reason),
	)

	in, err := u.load(ctx, tickers, proxies, from, to)
	if err != nil {
		u.metrics.RecordError("load")
		u.metrics.RecordRun("failed", u.now().Sub(started).Seconds())
		return nil, err
	}
	in.Criteria = &criteria
	in.MarketProxy = u.cfg.MarketProxy

	calcStart := u.now()
	res := u.calc.Calculate(ctx, in)
	u.metrics.RecordLatency("calculate", u.now().Sub(calcStart).Seconds())

	rows := trimSignals(res.Candidates.Rows, from, to)
	proxyRows := trimProxies(res.Proxies.Rows, from, to)
	marketUp := marketDirection(proxyRows, u.cfg.MarketProxy)
	hits := models.Hits(runID, rows, marketUp)

	run := models.Run{
		ID:        runID,
		StartedAt: started,
		From:      from,
		To:        to,
		Criteria:  res.Criteria,
		Manifest:  res.Manifest,
		Rows:      len(rows),
		Counts:    models.CountLetters(rows, proxyRows, u.cfg.MarketProxy),
		Hits:      len(hits),
	}
	for _, e := range res.Errors {
		run.Errors = append(run.Errors, e.Error())
		u.metrics.RecordError(stageErrorKind(e))
	}

	if boolOr(p.Persist, u.cfg.Persist) {
		if err := u.persist(ctx, run, rows); err != nil {
			l.Error("persist screening run", applogger.Error(err))
			u.metrics.RecordError("persist")
			run.Errors = append(run.Errors, err.Error())
		}
	}
	if boolOr(p.Publish, u.cfg.Publish) && len(hits) > 0 {
		pubStart := u.now()
		if err := u.publisher.PublishHits(ctx, hits); err != nil {
			l.Error("publish hits", applogger.Error(err))
			u.metrics.RecordError("publish")
			run.Errors = append(run.Errors, fmt.Sprintf("publish hits: %v", err))
		}
		u.metrics.RecordLatency("publish", u.now().Sub(pubStart).Seconds())
	}
	run.FinishedAt = u.now()

	summary := &models.RunSummary{
		Run:        run,
		Tickers:    countTickers(rows),
		LatestHits: latestHits(hits),
	}
	u.cacheSummary(ctx, summary)

	status := "ok"
	if len(run.Errors) > 0 {
		status = "degraded"
	}
	u.metrics.RecordRun(status, run.FinishedAt.Sub(started).Seconds())
	u.metrics.RecordRows(run.Rows, summary.Tickers)
	u.metrics.RecordLetterCounts(run.Counts)
	u.metrics.RecordHits(run.Hits)
	l.Info("screening run finished",
		applogger.String("status", status),
		applogger.Int("rows", run.Rows),
		applogger.Int("hits", run.Hits),
		applogger.Strings("errors", run.Errors),
		applogger.Duration("elapsed_ms", run.FinishedAt.Sub(started)),
	)
	return summary, nil
}

// load reads the candidate bars, the proxy bars and the fundamentals in
// parallel. Candidate history starts WarmupDays trading days before from.
func (u *ScreeningUseCase) load(ctx context.Context, tickers, proxies []string, from, to time.Time) (canslim.Input, error) {
	var in canslim.Input
	warmFrom := util.TradingDaysBack(from, u.cfg.WarmupDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := u.now()
		t, err := u.market.LoadPrices(gctx, domrepo.PriceQuery{Tickers: tickers, From: warmFrom, To: to})
		u.metrics.RecordLatency("load_candidates", u.now().Sub(start).Seconds())
		if err != nil {
			return fmt.Errorf("load candidates: %w", err)
		}
		in.Candidates = t
		return nil
	})
	g.Go(func() error {
		start := u.now()
		t, err := u.market.LoadPrices(gctx, domrepo.PriceQuery{Tickers: proxies, From: warmFrom, To: to})
		u.metrics.RecordLatency("load_proxies", u.now().Sub(start).Seconds())
		if err != nil {
			return fmt.Errorf("load proxies: %w", err)
		}
		in.Proxies = t
		return nil
	})
	g.Go(func() error {
		start := u.now()
		t, err := u.market.LoadFundamentals(gctx, domrepo.FundamentalsQuery{Tickers: tickers, To: to})
		u.metrics.RecordLatency("load_fundamentals", u.now().Sub(start).Seconds())
		if err != nil {
			return fmt.Errorf("load fundamentals: %w", err)
		}
		in.Fundamentals = t
		return nil
	})
	return in, g.Wait()
}

func (u *ScreeningUseCase) persist(ctx context.Context, run models.Run, rows []models.SignalRow) error {
	start := u.now()
	defer func() { u.metrics.RecordLatency("persist", u.now().Sub(start).Seconds()) }()
	if err := u.store.SaveSignals(ctx, run.ID, rows); err != nil {
		return err
	}
	return u.store.SaveRun(ctx, run)
}

func (u *ScreeningUseCase) cacheSummary(ctx context.Context, s *models.RunSummary) {
	// screens of dates inside the window are stale now
	if err := u.cache.DeleteByPattern(ctx, cache.ScreenPattern()); err != nil {
		u.l.Debug("invalidate screen cache", applogger.Error(err))
	}
	for _, key := range []string{latestRunKey, cache.RunKey(s.ID)} {
		if err := u.cache.Set(ctx, key, s, u.cfg.CacheTTL); err != nil {
			u.l.Warn("cache run summary", applogger.String("key", key), applogger.Error(err))
		}
	}
}

// LatestRun returns the summary of the most recent run, from the cache when
// possible. It returns nil when no run exists.
func (u *ScreeningUseCase) LatestRun(ctx context.Context) (*models.RunSummary, error) {
	var s models.RunSummary
	if err := u.cache.Get(ctx, latestRunKey, &s); err == nil {
		s.Cached = true
		return &s, nil
	}
	run, err := u.store.LatestRun(ctx)
	if err != nil || run == nil {
		return nil, err
	}
	return &models.RunSummary{Run: *run}, nil
}

// Criteria returns the configured criteria with query overrides applied,
// the gaps filled with pipeline defaults.
func (u *ScreeningUseCase) Criteria(_ context.Context, overrides models.CriteriaRequest) (CriteriaView, error) {
	cr := overrides.Apply(u.cfg.Criteria)
	eff, err := canslim.EffectiveCriteria(&cr)
	if err != nil {
		return CriteriaView{}, err
	}
	if err := u.calc.Validate(eff); err != nil {
		return CriteriaView{}, err
	}
	return CriteriaView{Criteria: eff, Manifest: canslim.BuildManifest(eff)}, nil
}

// Signals reads stored signal rows.
func (u *ScreeningUseCase) Signals(ctx context.Context, q domrepo.SignalQuery) ([]models.StoredSignal, error) {
	start := u.now()
	rows, err := u.store.QuerySignals(ctx, q)
	u.metrics.RecordLatency("query_signals", u.now().Sub(start).Seconds())
	if err != nil {
		u.metrics.RecordError("query_signals")
		return nil, err
	}
	return rows, nil
}

// Screen lists the tickers meeting every CANSLI criterion on date.
func (u *ScreeningUseCase) Screen(ctx context.Context, date time.Time) ([]models.StoredSignal, error) {
	date = util.Day(date)
	key := cache.ScreenKey(date)
	var cached []models.StoredSignal
	if err := u.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}
	rows, err := u.Signals(ctx, domrepo.SignalQuery{From: date, To: date, OnlyAll: true, Limit: 10000})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.StoredSignal{}
	}
	if err := u.cache.Set(ctx, key, rows, u.cfg.CacheTTL); err != nil {
		u.l.Warn("cache screen", applogger.String("key", key), applogger.Error(err))
	}
	return rows, nil
}

// LatestWindow returns the trailing window of n trading days ending at the
// current day.
func (u *ScreeningUseCase) LatestWindow(n int) (time.Time, time.Time) {
	to := util.Day(u.now())
	return util.TradingDaysBack(to, n), to
}

func trimSignals(rows []models.SignalRow, from, to time.Time) []models.SignalRow {
	out := make([]models.SignalRow, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out
}

func trimProxies(rows []models.ProxyRow, from, to time.Time) []models.ProxyRow {
	out := make([]models.ProxyRow, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out
}

func marketDirection(proxies []models.ProxyRow, proxy string) func(time.Time) bool {
	up := make(map[time.Time]bool)
	for _, r := range proxies {
		if r.Ticker == proxy {
			up[r.Date] = r.M
		}
	}
	return func(d time.Time) bool { return up[d] }
}

func latestHits(hits []models.SignalHit) []models.SignalHit {
	var last time.Time
	for _, h := range hits {
		if h.Date.After(last) {
			last = h.Date
		}
	}
	var out []models.SignalHit
	for _, h := range hits {
		if h.Date.Equal(last) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

func countTickers(rows []models.SignalRow) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.Ticker] = struct{}{}
	}
	return len(seen)
}

// stageErrorKind turns a calculator error into a low-cardinality metric label.
func stageErrorKind(err error) string {
	var mc *canslim.MissingColumnError
	switch {
	case errors.As(err, &mc):
		return "missing_column_" + strings.ReplaceAll(mc.Table, " ", "_")
	case errors.Is(err, canslim.ErrMissingSignal):
		return "missing_signal"
	case errors.Is(err, canslim.ErrInvalidCriteria):
		return "invalid_criteria"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "calculate"
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
