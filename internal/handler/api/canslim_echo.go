package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"CanSlim/internal/domain/models"
	domrepo "CanSlim/internal/domain/repository"
	"CanSlim/internal/service/metrics"
	"CanSlim/internal/service/ratelimit"
	"CanSlim/internal/services/canslim"
	"CanSlim/internal/usecase"
	xhttp "CanSlim/pkg/http"
	xlogger "CanSlim/pkg/logger"
	"CanSlim/pkg/util"
)

// Screening is the use case behind the CANSLIM endpoints.
type Screening interface {
	Run(ctx context.Context, p usecase.RunParams) (*models.RunSummary, error)
	LatestRun(ctx context.Context) (*models.RunSummary, error)
	Criteria(ctx context.Context, overrides models.CriteriaRequest) (usecase.CriteriaView, error)
	Signals(ctx context.Context, q domrepo.SignalQuery) ([]models.StoredSignal, error)
	Screen(ctx context.Context, date time.Time) ([]models.StoredSignal, error)
}

// HealthChecker is a dependency checked by /api/health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CanSlimEchoHandler serves the screening API.
type CanSlimEchoHandler struct {
	logger *xlogger.Logger
	uc     Screening
	rl     *ratelimit.Limiter
	health map[string]HealthChecker
}

func NewCanSlimEchoHandler(logger *xlogger.Logger, uc Screening, rl *ratelimit.Limiter, health map[string]HealthChecker) *CanSlimEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &CanSlimEchoHandler{logger: logger, uc: uc, rl: rl, health: health}
}

func (h *CanSlimEchoHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)

	cs := g.Group("/canslim")
	var runMW []echo.MiddlewareFunc
	if h.rl != nil {
		runMW = append(runMW, h.rl.Middleware())
	}
	cs.POST("/runs", h.observe("run", h.Run), runMW...)
	cs.GET("/runs/latest", h.observe("latest_run", h.LatestRun))
	cs.GET("/criteria", h.observe("criteria", h.Criteria))
	cs.GET("/signals", h.observe("signals", h.Signals))
	cs.GET("/screen", h.observe("screen", h.Screen))
}

func (h *CanSlimEchoHandler) observe(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil || c.Response().Status >= http.StatusInternalServerError {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
		}
		return err
	}
}

// Run screens a window synchronously and returns the run summary.
func (h *CanSlimEchoHandler) Run(c echo.Context) error {
	req := &models.RunRequest{}
	if errs := xhttp.ReadAndValidateRequest(c, req); len(errs) > 0 {
		return xhttp.InvalidRequestResponse(c, errs)
	}
	from, to, err := util.ParseDateRange(req.From, req.To)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	summary, err := h.uc.Run(c.Request().Context(), usecase.RunParams{
		From:     from,
		To:       to,
		Tickers:  req.Tickers,
		Criteria: req.Criteria,
		Persist:  req.Persist,
		Publish:  req.Publish,
		Reason:   "api",
	})
	if err != nil {
		return h.fail(c, "run", err)
	}
	return xhttp.CreatedResponse(c, summary)
}

func (h *CanSlimEchoHandler) LatestRun(c echo.Context) error {
	summary, err := h.uc.LatestRun(c.Request().Context())
	if err != nil {
		return h.fail(c, "latest run", err)
	}
	if summary == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no screening run yet"))
	}
	return xhttp.SuccessResponse(c, summary)
}

// Criteria returns the effective criteria; c, a, n, s and l query
// parameters override single options.
func (h *CanSlimEchoHandler) Criteria(c echo.Context) error {
	q := xhttp.NewOptionalQuery(c)
	req := models.CriteriaRequest{
		C: q.Float("c"),
		A: q.Float("a"),
		N: q.Int("n"),
		S: q.Float("s"),
		L: q.Float("l"),
	}
	if len(q.Errs) > 0 {
		return xhttp.InvalidRequestResponse(c, q.Errs)
	}

	view, err := h.uc.Criteria(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "criteria", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, view)
}

func (h *CanSlimEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if errs := xhttp.ReadAndValidateRequest(c, req); len(errs) > 0 {
		return xhttp.InvalidRequestResponse(c, errs)
	}
	q := domrepo.SignalQuery{OnlyAll: req.All, Limit: req.Limit}
	if tickers := util.NormalizeTickers(req.Ticker); len(tickers) > 0 {
		q.Ticker = tickers[0]
	}
	q.From, _ = util.ParseTime(req.From)
	q.To, _ = util.ParseTime(req.To)

	rows, err := h.uc.Signals(c.Request().Context(), q)
	if err != nil {
		return h.fail(c, "signals", err)
	}
	if rows == nil {
		rows = []models.StoredSignal{}
	}
	return xhttp.ListResponse(c, rows, len(rows), req.Limit)
}

func (h *CanSlimEchoHandler) Screen(c echo.Context) error {
	req := &models.ScreenRequest{}
	if errs := xhttp.ReadAndValidateRequest(c, req); len(errs) > 0 {
		return xhttp.InvalidRequestResponse(c, errs)
	}
	date, _ := util.ParseTime(req.Date)

	rows, err := h.uc.Screen(c.Request().Context(), date)
	if err != nil {
		return h.fail(c, "screen", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.ListResponse(c, rows, len(rows), 0)
}

// Health pings the storage dependencies.
func (h *CanSlimEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, hc := range h.health {
		if err := hc.Health(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("dependency", name), xlogger.Error(err))
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	return xhttp.DataResponse(c, status, checks)
}

// fail maps use-case errors onto API errors.
func (h *CanSlimEchoHandler) fail(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrRunInProgress):
		return xhttp.AppErrorResponse(c, xhttp.ConflictError(err.Error()))
	case errors.Is(err, usecase.ErrInvalidWindow), errors.Is(err, canslim.ErrInvalidCriteria):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("screening failed").WithError(err))
}
