package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"CanSlim/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
	rowsTotal   prometheus.Counter
	tickers     prometheus.Gauge
	letterTrue  *prometheus.GaugeVec
	hitsTotal   prometheus.Counter
	lastHits    prometheus.Gauge
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canslim_runs_total",
				Help: "Total number of screening runs by status",
			},
			[]string{"status"},
		),
		runDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "canslim_run_duration_seconds",
				Help:    "Duration of screening runs in seconds",
				Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		rowsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "canslim_rows_evaluated_total",
				Help: "Total number of candidate bars evaluated",
			},
		),
		tickers: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "canslim_last_run_tickers",
				Help: "Number of candidate tickers in the last run",
			},
		),
		letterTrue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "canslim_last_run_letter_true",
				Help: "Rows where each indicator held in the last run",
			},
			[]string{"letter"},
		),
		hitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "canslim_hits_total",
				Help: "Total number of CANSLI_all hits",
			},
		),
		lastHits: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "canslim_last_run_hits",
				Help: "CANSLI_all hits in the last run",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canslim_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canslim_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(status string, seconds float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(seconds)
}

// RecordRows records the size of the evaluated candidate table.
func (r *Recorder) RecordRows(rows, tickers int) {
	r.rowsTotal.Add(float64(rows))
	r.tickers.Set(float64(tickers))
}

// RecordLetterCounts sets the per-letter gauges.
func (r *Recorder) RecordLetterCounts(counts models.LetterCounts) {
	for letter, n := range counts {
		r.letterTrue.WithLabelValues(string(letter)).Set(float64(n))
	}
}

// RecordHits records the CANSLI_all hits of a run.
func (r *Recorder) RecordHits(n int) {
	r.hitsTotal.Add(float64(n))
	r.lastHits.Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordRun(string, float64)              {}
func (Nop) RecordRows(int, int)                    {}
func (Nop) RecordLetterCounts(models.LetterCounts) {}
func (Nop) RecordHits(int)                         {}
func (Nop) RecordError(string)                     {}
func (Nop) RecordLatency(string, float64)          {}
