package usecase

import (
	"context"
	"sync"
	"time"

	"CanSlim/internal/domain/models"
	domrepo "CanSlim/internal/domain/repository"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeMarket struct {
	prices       models.PriceTable
	fundamentals models.FundamentalsTable
	err          error
}

func (m *fakeMarket) LoadPrices(_ context.Context, q domrepo.PriceQuery) (models.PriceTable, error) {
	if m.err != nil {
		return models.PriceTable{}, m.err
	}
	want := make(map[string]bool, len(q.Tickers))
	for _, t := range q.Tickers {
		want[t] = true
	}
	out := models.PriceTable{Columns: m.prices.Columns.Clone()}
	for _, r := range m.prices.Rows {
		if len(want) > 0 && !want[r.Ticker] {
			continue
		}
		if (!q.From.IsZero() && r.Date.Before(q.From)) || (!q.To.IsZero() && r.Date.After(q.To)) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

func (m *fakeMarket) LoadFundamentals(_ context.Context, q domrepo.FundamentalsQuery) (models.FundamentalsTable, error) {
	if m.err != nil {
		return models.FundamentalsTable{}, m.err
	}
	out := models.FundamentalsTable{Columns: m.fundamentals.Columns.Clone()}
	for _, r := range m.fundamentals.Rows {
		if !q.To.IsZero() && r.EndDate.After(q.To) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

func (m *fakeMarket) Health(context.Context) error { return nil }

type fakeStore struct {
	mu      sync.Mutex
	runs    []models.Run
	signals map[string][]models.SignalRow
	stored  []models.StoredSignal
	queries int
	err     error
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) SaveRun(_ context.Context, run models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) SaveSignals(_ context.Context, runID string, rows []models.SignalRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.signals == nil {
		s.signals = make(map[string][]models.SignalRow)
	}
	s.signals[runID] = append(s.signals[runID], rows...)
	return nil
}

func (s *fakeStore) QuerySignals(_ context.Context, q domrepo.SignalQuery) ([]models.StoredSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	var out []models.StoredSignal
	for _, r := range s.stored {
		if q.OnlyAll && !r.CANSLIAll {
			continue
		}
		if !q.From.IsZero() && r.Date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && r.Date.After(q.To) {
			continue
		}
		out = append(out, r)
	}
	return out, s.err
}

func (s *fakeStore) LatestRun(context.Context) (*models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return nil, nil
	}
	r := s.runs[len(s.runs)-1]
	return &r, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }

type fakePublisher struct {
	mu   sync.Mutex
	hits []models.SignalHit
	err  error
}

func (p *fakePublisher) PublishHits(_ context.Context, hits []models.SignalHit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hits = append(p.hits, hits...)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeRunner struct {
	params []RunParams
	err    error
}

func (r *fakeRunner) Run(_ context.Context, p RunParams) (*models.RunSummary, error) {
	r.params = append(r.params, p)
	if r.err != nil {
		return nil, r.err
	}
	return &models.RunSummary{Run: models.Run{ID: "run-1"}}, nil
}
