package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	topic   string
	batches []LogBatch
}

func (p *fakePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.(LogBatch))
	return nil
}

func (p *fakePublisher) snapshot() []LogBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]LogBatch(nil), p.batches...)
}

func TestLogger_FieldsAreEncoded(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.Info("run finished",
		String("run_id", "r1"),
		Int("rows", 3),
		Float64("threshold", 0.25),
		Bool("persist", true),
		Strings("tickers", []string{"AAA", "BBB"}),
		Duration("elapsed_ms", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "run finished", got["message"])
	assert.Equal(t, "r1", got["run_id"])
	assert.Equal(t, float64(3), got["rows"])
	assert.Equal(t, 0.25, got["threshold"])
	assert.Equal(t, true, got["persist"])
	assert.Equal(t, "AAA, BBB", got["tickers"])
	assert.Equal(t, float64(1500), got["elapsed_ms"])
	assert.Equal(t, "boom", got["error"])
}

func TestLogger_WithAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel).With(String("component", "scheduler"))

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Warn("visible")
	assert.Contains(t, buf.String(), `"component":"scheduler"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error("nothing", String("k", "v"))
	})
}

func TestCollector_AggregatesRepeatedErrors(t *testing.T) {
	pub := &fakePublisher{}
	l := NewWithWriter(&bytes.Buffer{}, zerolog.DebugLevel)
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "canslim.logs",
		Publisher:      pub,
		Source:         "canslim",
	})

	for i := 0; i < 3; i++ {
		l.Error("load failed", String("table", "daily_prices"))
	}
	l.Error("load failed", String("table", "fundamentals"))
	l.Warn("ignored without CollectWarnings")
	l.Info("never collected")

	l.RemoveCollector()

	batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, "canslim.logs", pub.topic)
	assert.Equal(t, "canslim", batches[0].Source)
	require.Len(t, batches[0].Entries, 2)

	counts := map[string]int{}
	for _, e := range batches[0].Entries {
		assert.Equal(t, "error", e.Level)
		counts[e.Fields["table"].(string)] = e.Count
	}
	assert.Equal(t, map[string]int{"daily_prices": 3, "fundamentals": 1}, counts)
}

func TestCollector_FlushesOnThreshold(t *testing.T) {
	pub := &fakePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub, CollectWarnings: true})
	c.AddLog("warn", "a", nil, "x.go:1")
	c.AddLog("warn", "b", nil, "x.go:2")
	c.Close()

	batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Entries, 2)
}
