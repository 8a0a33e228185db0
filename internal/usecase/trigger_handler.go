package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"CanSlim/internal/domain/models"
	domrepo "CanSlim/internal/domain/repository"
	pkgkafka "CanSlim/pkg/kafka"
	applogger "CanSlim/pkg/logger"
	"CanSlim/pkg/util"
)

// Runner executes a screening window.
type Runner interface {
	Run(ctx context.Context, p RunParams) (*models.RunSummary, error)
}

// TriggerMessage asks for a recomputation, e.g. after new fundamentals
// were ingested.
type TriggerMessage struct {
	From     string           `json:"from" validate:"required,datetime=2006-01-02"`
	To       string           `json:"to" validate:"required,datetime=2006-01-02"`
	Tickers  []string         `json:"tickers" validate:"omitempty,max=2000,dive,required"`
	Reason   string           `json:"reason" validate:"omitempty,max=128"`
	Criteria *models.Criteria `json:"criteria"`
}

// ScreenTriggerHandler consumes trigger messages and runs the screening.
type ScreenTriggerHandler struct {
	topic    string
	runner   Runner
	metrics  domrepo.Metrics
	l        *applogger.Logger
	validate *validator.Validate
}

func NewScreenTriggerHandler(topic string, runner Runner, metrics domrepo.Metrics, l *applogger.Logger) *ScreenTriggerHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &ScreenTriggerHandler{topic: topic, runner: runner, metrics: metrics, l: l, validate: validator.New()}
}

func (h *ScreenTriggerHandler) Topic() string { return h.topic }

// Handle runs one trigger. Malformed messages are permanent failures and go
// straight to the DLQ; a run already in progress or a load failure is
// retried by the consumer.
func (h *ScreenTriggerHandler) Handle(ctx context.Context, b []byte) error {
	var m TriggerMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("trigger_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode trigger: %w", err))
	}
	if err := h.validate.Struct(m); err != nil {
		h.metrics.RecordError("trigger_validate")
		return pkgkafka.Permanent(fmt.Errorf("validate trigger: %w", err))
	}
	from, to, err := util.ParseDateRange(m.From, m.To)
	if err != nil {
		h.metrics.RecordError("trigger_validate")
		return pkgkafka.Permanent(err)
	}

	summary, err := h.runner.Run(ctx, RunParams{
		From:     from,
		To:       to,
		Tickers:  m.Tickers,
		Criteria: m.Criteria,
		Reason:   m.Reason,
	})
	if errors.Is(err, ErrInvalidWindow) {
		return pkgkafka.Permanent(err)
	}
	if err != nil {
		return err
	}
	h.l.Info("trigger handled",
		applogger.String("trace_id", pkgkafka.TraceID(ctx)),
		applogger.String("reason", m.Reason),
		applogger.String("run_id", summary.ID),
		applogger.Int("hits", summary.Hits),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*ScreenTriggerHandler)(nil)
