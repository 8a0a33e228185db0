package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"CanSlim/internal/domain/models"
	"CanSlim/internal/domain/repository"
)

var (
	_ repository.Metrics = (*Recorder)(nil)
	_ repository.Metrics = Nop{}
)

func TestRecorder(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordRun("ok", 1.5)
	r.RecordRun("ok", 0.5)
	r.RecordRun("failed", 0.1)
	r.RecordRows(100, 4)
	r.RecordRows(50, 2)
	r.RecordLetterCounts(models.LetterCounts{models.LetterC: 3, models.LetterM: 7})
	r.RecordHits(2)
	r.RecordHits(1)
	r.RecordError("load_prices")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 150.0, testutil.ToFloat64(r.rowsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.tickers))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.letterTrue.WithLabelValues("C")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.letterTrue.WithLabelValues("M")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.hitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("load_prices")))
}

func TestRecordersDoNotCollideOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegisterer(prometheus.NewRegistry())
		NewWithRegisterer(prometheus.NewRegistry())
	})
}
