package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"CanSlim/internal/domain/models"
	domrepo "CanSlim/internal/domain/repository"
	pkgch "CanSlim/pkg/clickhouse"
	applogger "CanSlim/pkg/logger"
)

// CHMarketStore loads daily bars and fundamentals from ClickHouse. The
// selected columns follow what the tables actually carry, so a table missing
// e.g. `volume` yields a PriceTable whose column set reports it missing.
type CHMarketStore struct {
	db           *sql.DB
	l            *applogger.Logger
	database     string
	prices       string
	fundamentals string
}

func NewCHMarketStore(ch *pkgch.Client, database, prices, fundamentals string) *CHMarketStore {
	return &CHMarketStore{
		db:           ch.DB(),
		l:            applogger.Nop(),
		database:     database,
		prices:       prices,
		fundamentals: fundamentals,
	}
}

// SetLogger injects a structured logger.
func (s *CHMarketStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// priceSelect maps a price column to its select expression and scan target.
var priceSelect = map[string]struct {
	expr string
	dest func(p *models.PricePoint) any
}{
	models.ColTicker: {"ticker", func(p *models.PricePoint) any { return &p.Ticker }},
	models.ColDate:   {"toDate(date)", func(p *models.PricePoint) any { return &p.Date }},
	models.ColOpen:   {"toFloat64(open)", func(p *models.PricePoint) any { return &p.Open }},
	models.ColHigh:   {"toFloat64(high)", func(p *models.PricePoint) any { return &p.High }},
	models.ColLow:    {"toFloat64(low)", func(p *models.PricePoint) any { return &p.Low }},
	models.ColClose:  {"toFloat64(close)", func(p *models.PricePoint) any { return &p.Close }},
	models.ColVolume: {"toFloat64(volume)", func(p *models.PricePoint) any { return &p.Volume }},
}

func (s *CHMarketStore) LoadPrices(ctx context.Context, q domrepo.PriceQuery) (models.PriceTable, error) {
	start := time.Now()
	cols, err := s.columns(ctx, s.prices)
	if err != nil {
		return models.PriceTable{}, err
	}
	out := models.PriceTable{Columns: models.NewColumnSet()}
	var exprs []string
	var present []string
	for _, name := range models.PriceColumns {
		if cols.Has(name) {
			exprs = append(exprs, priceSelect[name].expr)
			present = append(present, name)
		}
	}
	out.Columns.Add(present...)
	if len(exprs) == 0 {
		s.l.Error("clickhouse load_prices: table has no known columns", applogger.String("table", s.prices))
		return out, nil
	}

	where, args := windowFilter(cols, models.ColDate, q.Tickers, q.From, q.To)
	order := orderBy(cols, models.ColTicker, models.ColDate)
	query := fmt.Sprintf("SELECT %s FROM %s%s%s", strings.Join(exprs, ", "), s.prices, where, order)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.l.Error("clickhouse load_prices query error",
			applogger.String("table", s.prices),
			applogger.Error(err),
		)
		return out, fmt.Errorf("load prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PricePoint
		dest := make([]any, len(present))
		for i, name := range present {
			dest[i] = priceSelect[name].dest(&p)
		}
		if err := rows.Scan(dest...); err != nil {
			return out, fmt.Errorf("scan price: %w", err)
		}
		p.Date = p.Date.UTC()
		out.Rows = append(out.Rows, p)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("rows: %w", err)
	}
	s.l.Info("clickhouse load_prices ok",
		applogger.String("table", s.prices),
		applogger.Int("tickers", len(q.Tickers)),
		applogger.Int("rows", len(out.Rows)),
		applogger.Strings("missing", out.Columns.Missing(models.PriceColumns...)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

type fundamentalScan struct {
	rec       models.FundamentalRecord
	timeframe string
	year      int64
	eps       sql.NullFloat64
}

var fundamentalSelect = map[string]struct {
	expr string
	dest func(f *fundamentalScan) any
}{
	models.ColTicker:       {"ticker", func(f *fundamentalScan) any { return &f.rec.Ticker }},
	models.ColTimeframe:    {"timeframe", func(f *fundamentalScan) any { return &f.timeframe }},
	models.ColFiscalYear:   {"toInt64(fiscal_year)", func(f *fundamentalScan) any { return &f.year }},
	models.ColFiscalPeriod: {"fiscal_period", func(f *fundamentalScan) any { return &f.rec.FiscalPeriod }},
	models.ColDilutedEPS:   {"toNullable(toFloat64(diluted_eps))", func(f *fundamentalScan) any { return &f.eps }},
	models.ColEndDate:      {"toDate(end_date)", func(f *fundamentalScan) any { return &f.rec.EndDate }},
}

func (s *CHMarketStore) LoadFundamentals(ctx context.Context, q domrepo.FundamentalsQuery) (models.FundamentalsTable, error) {
	start := time.Now()
	cols, err := s.columns(ctx, s.fundamentals)
	if err != nil {
		return models.FundamentalsTable{}, err
	}
	out := models.FundamentalsTable{Columns: models.NewColumnSet()}
	var exprs []string
	var present []string
	for _, name := range models.FundamentalColumns {
		if cols.Has(name) {
			exprs = append(exprs, fundamentalSelect[name].expr)
			present = append(present, name)
		}
	}
	out.Columns.Add(present...)
	if len(exprs) == 0 {
		s.l.Error("clickhouse load_fundamentals: table has no known columns", applogger.String("table", s.fundamentals))
		return out, nil
	}

	where, args := windowFilter(cols, models.ColEndDate, q.Tickers, time.Time{}, q.To)
	order := orderBy(cols, models.ColTicker, models.ColEndDate)
	query := fmt.Sprintf("SELECT %s FROM %s%s%s", strings.Join(exprs, ", "), s.fundamentals, where, order)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.l.Error("clickhouse load_fundamentals query error",
			applogger.String("table", s.fundamentals),
			applogger.Error(err),
		)
		return out, fmt.Errorf("load fundamentals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f fundamentalScan
		dest := make([]any, len(present))
		for i, name := range present {
			dest[i] = fundamentalSelect[name].dest(&f)
		}
		if err := rows.Scan(dest...); err != nil {
			return out, fmt.Errorf("scan fundamental: %w", err)
		}
		f.rec.Timeframe = domrepo.NormalizeTimeframe(f.timeframe)
		f.rec.FiscalYear = int(f.year)
		f.rec.DilutedEPS = math.NaN()
		if f.eps.Valid {
			f.rec.DilutedEPS = f.eps.Float64
		}
		f.rec.EndDate = f.rec.EndDate.UTC()
		out.Rows = append(out.Rows, f.rec)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("rows: %w", err)
	}
	s.l.Info("clickhouse load_fundamentals ok",
		applogger.String("table", s.fundamentals),
		applogger.Int("rows", len(out.Rows)),
		applogger.Strings("missing", out.Columns.Missing(models.FundamentalColumns...)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHMarketStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// columns reads the column names of table from system.columns.
func (s *CHMarketStore) columns(ctx context.Context, table string) (models.ColumnSet, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM system.columns WHERE database = ? AND table = ?", s.database, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	cols := models.NewColumnSet()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("describe %s: %w", table, err)
		}
		cols.Add(name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("describe %s: table not found in %s", table, s.database)
	}
	return cols, nil
}

// windowFilter builds the WHERE clause for a ticker list and a date window.
// Filters on absent columns are skipped.
func windowFilter(cols models.ColumnSet, dateCol string, tickers []string, from, to time.Time) (string, []any) {
	var conds []string
	var args []any
	if len(tickers) > 0 && cols.Has(models.ColTicker) {
		ph := make([]string, len(tickers))
		for i, t := range tickers {
			ph[i] = "?"
			args = append(args, t)
		}
		conds = append(conds, fmt.Sprintf("ticker IN (%s)", strings.Join(ph, ", ")))
	}
	if cols.Has(dateCol) {
		if !from.IsZero() {
			conds = append(conds, dateCol+" >= ?")
			args = append(args, from)
		}
		if !to.IsZero() {
			conds = append(conds, dateCol+" <= ?")
			args = append(args, to)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(cols models.ColumnSet, names ...string) string {
	var keys []string
	for _, n := range names {
		if cols.Has(n) {
			keys = append(keys, n)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(keys, ", ")
}
