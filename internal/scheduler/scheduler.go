package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"CanSlim/internal/domain/models"
	"CanSlim/internal/usecase"
	applogger "CanSlim/pkg/logger"
)

// DefaultSchedule runs after the US close on weekdays.
const DefaultSchedule = "0 22 * * 1-5"

// Screener is the part of the screening use case the scheduler drives.
type Screener interface {
	Run(ctx context.Context, p usecase.RunParams) (*models.RunSummary, error)
	LatestWindow(n int) (time.Time, time.Time)
}

type Config struct {
	Schedule     string
	Timezone     string
	LookbackDays int
	Timeout      time.Duration
}

// Scheduler runs the screening for the trailing window on a cron schedule.
type Scheduler struct {
	screener Screener
	cron     *cron.Cron
	cfg      Config
	l        *applogger.Logger
}

func New(screener Screener, cfg Config, l *applogger.Logger) (*Scheduler, error) {
	if l == nil {
		l = applogger.Nop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.LookbackDays < 1 {
		cfg.LookbackDays = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("scheduler timezone: %w", err)
		}
	}

	s := &Scheduler{
		screener: screener,
		cfg:      cfg,
		l:        l,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, func() { _, _ = s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("scheduler schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins the scheduled runs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("Screening scheduler started",
		applogger.String("schedule", s.cfg.Schedule),
		applogger.String("timezone", s.cfg.Timezone),
		applogger.Int("lookback_days", s.cfg.LookbackDays))
}

// Stop stops the scheduler and waits for a running job up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.l.Warn("Screening scheduler stop timed out")
	}
	s.l.Info("Screening scheduler stopped")
}

// Next returns the next scheduled activation, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce screens the trailing window immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.RunSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	from, to := s.screener.LatestWindow(s.cfg.LookbackDays)
	s.l.Info("Starting scheduled screening",
		applogger.String("from", from.Format(time.DateOnly)),
		applogger.String("to", to.Format(time.DateOnly)))

	summary, err := s.screener.Run(ctx, usecase.RunParams{From: from, To: to, Reason: "schedule"})
	if errors.Is(err, usecase.ErrRunInProgress) {
		s.l.Info("Scheduled screening skipped, another run holds the lock")
		return nil, err
	}
	if err != nil {
		s.l.Error("Scheduled screening failed", applogger.Error(err))
		return nil, err
	}
	s.l.Info("Scheduled screening completed",
		applogger.String("run_id", summary.ID),
		applogger.Int("rows", summary.Rows),
		applogger.Int("hits", summary.Hits),
		applogger.Int("errors", len(summary.Errors)))
	return summary, nil
}
