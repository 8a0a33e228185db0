package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"CanSlim/internal/domain/models"
	domrepo "CanSlim/internal/domain/repository"
	pkgch "CanSlim/pkg/clickhouse"
	applogger "CanSlim/pkg/logger"
)

const signalInsertColumns = "run_id, version, ticker, date, close, volume, stock_return, market_return, " +
	"high_52w, vol_avg_50, ad_value, ad_ratio, c, a, n, s, l, i, canslim_all, fundamentals_end_date"

const signalPlaceholders = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

// CHSignalStore persists runs and signal rows in ClickHouse.
type CHSignalStore struct {
	ch        *pkgch.Client
	db        *sql.DB
	l         *applogger.Logger
	signals   string
	runs      string
	chunkSize int
}

func NewCHSignalStore(ch *pkgch.Client, signals, runs string) *CHSignalStore {
	return &CHSignalStore{
		ch:        ch,
		db:        ch.DB(),
		l:         applogger.Nop(),
		signals:   signals,
		runs:      runs,
		chunkSize: 2000,
	}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *CHSignalStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, Schema(s.signals, s.runs))
}

func (s *CHSignalStore) SaveRun(ctx context.Context, run models.Run) error {
	criteria, err := json.Marshal(run.Criteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}
	manifest, err := json.Marshal(run.Manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	errs, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("encode errors: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (run_id, started_at, finished_at, from_date, to_date, criteria, manifest, row_count, counts, hit_count, errors) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.runs)
	_, err = s.db.ExecContext(ctx, q,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.From,
		run.To,
		string(criteria),
		string(manifest),
		uint64(run.Rows),
		string(counts),
		uint64(run.Hits),
		string(errs),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// SaveSignals inserts rows in multi-row chunks. Rows share a version taken
// at insert time, so a later run replaces the rows of an earlier one.
func (s *CHSignalStore) SaveSignals(ctx context.Context, runID string, rows []models.SignalRow) error {
	if len(rows) == 0 {
		return nil
	}
	version := uint64(time.Now().UnixNano())
	for start := 0; start < len(rows); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*20)
		for _, r := range rows[start:end] {
			if r.Ticker == "" || r.Date.IsZero() {
				continue
			}
			values = append(values, signalPlaceholders)
			args = append(args,
				runID,
				version,
				r.Ticker,
				r.Date,
				r.Close,
				r.Volume,
				r.StockReturn,
				r.MarketReturn,
				r.High52Week,
				r.VolAvg50,
				r.ADValue,
				r.ADRatio,
				r.C,
				r.A,
				r.N,
				r.S,
				r.L,
				r.I,
				r.CANSLIAll,
				r.FundamentalsEndDate,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.signals, signalInsertColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse save_signals error",
				applogger.String("table", s.signals),
				applogger.String("run_id", runID),
				applogger.Int("offset", start),
				applogger.Error(err),
			)
			return fmt.Errorf("save signals: %w", err)
		}
	}
	s.l.Debug("clickhouse save_signals ok",
		applogger.String("run_id", runID),
		applogger.Int("rows", len(rows)),
	)
	return nil
}

func (s *CHSignalStore) QuerySignals(ctx context.Context, q domrepo.SignalQuery) ([]models.StoredSignal, error) {
	var conds []string
	var args []interface{}
	if q.RunID != "" {
		conds = append(conds, "run_id = ?")
		args = append(args, q.RunID)
	}
	if q.Ticker != "" {
		conds = append(conds, "ticker = ?")
		args = append(args, q.Ticker)
	}
	if !q.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, q.To)
	}
	if q.OnlyAll {
		conds = append(conds, "canslim_all")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit)

	query := fmt.Sprintf("SELECT run_id, ticker, date, close, volume, c, a, n, s, l, i, canslim_all, ad_ratio FROM %s FINAL%s ORDER BY date DESC, ticker ASC LIMIT ?", s.signals, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []models.StoredSignal
	for rows.Next() {
		var r models.StoredSignal
		if err := rows.Scan(&r.RunID, &r.Ticker, &r.Date, &r.Close, &r.Volume,
			&r.C, &r.A, &r.N, &r.S, &r.L, &r.I, &r.CANSLIAll, &r.ADRatio); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		r.Date = r.Date.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the most recently started run, or nil when none exists.
func (s *CHSignalStore) LatestRun(ctx context.Context) (*models.Run, error) {
	q := fmt.Sprintf("SELECT run_id, started_at, finished_at, from_date, to_date, criteria, manifest, row_count, counts, hit_count, errors FROM %s ORDER BY started_at DESC LIMIT 1", s.runs)
	var (
		run                              models.Run
		criteria, manifest, counts, errs string
		rowsN, hits                      uint64
	)
	err := s.db.QueryRowContext(ctx, q).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.From, &run.To,
		&criteria, &manifest, &rowsN, &counts, &hits, &errs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	run.Rows = int(rowsN)
	run.Hits = int(hits)
	for _, f := range []struct {
		raw  string
		dest interface{}
	}{
		{criteria, &run.Criteria},
		{manifest, &run.Manifest},
		{counts, &run.Counts},
		{errs, &run.Errors},
	} {
		if f.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return nil, fmt.Errorf("latest run %s: decode: %w", run.ID, err)
		}
	}
	return &run, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}
