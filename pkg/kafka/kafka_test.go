package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeHandler struct {
	topic     string
	fails     int
	calls     int
	panic     bool
	permanent bool
}

func (h *fakeHandler) Topic() string { return h.topic }

func (h *fakeHandler) Handle(_ context.Context, _ []byte) error {
	h.calls++
	if h.panic {
		panic("boom")
	}
	if h.permanent {
		return Permanent(errors.New("bad payload"))
	}
	if h.calls <= h.fails {
		return errors.New("transient")
	}
	return nil
}

func TestProducer_PublishEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "snappy")

	require.NoError(t, p.Publish(context.Background(), "t", []byte("AAA"), map[string]int{"n": 1}))
	require.NoError(t, p.PublishMessage(context.Background(), "logs", "plain"))
	require.NoError(t, p.PublishBatch(context.Background(), "t", []Message{
		{Key: []byte("k1"), Value: []byte("raw")},
		{Key: []byte("k2"), Value: struct {
			Ticker string `json:"ticker"`
		}{"BBB"}},
	}))

	require.Len(t, w.msgs, 4)
	assert.Equal(t, `{"n":1}`, string(w.msgs[0].Value))
	assert.Equal(t, "AAA", string(w.msgs[0].Key))
	assert.Equal(t, "logs", w.msgs[1].Topic)
	assert.Nil(t, w.msgs[1].Key)
	assert.Equal(t, "plain", string(w.msgs[1].Value))
	assert.Equal(t, "raw", string(w.msgs[2].Value))
	assert.Equal(t, `{"ticker":"BBB"}`, string(w.msgs[3].Value))

	require.NoError(t, p.PublishBatch(context.Background(), "t", nil))
	assert.Len(t, w.msgs, 4)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, "gzip")
	err := p.Publish(context.Background(), "t", nil, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	err = newProducer(&fakeWriter{}, "gzip").Publish(context.Background(), "t", nil, func() {})
	assert.ErrorContains(t, err, "marshal value")
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{})
	assert.Error(t, err)
	_, err = NewConsumer()
	assert.Error(t, err)
}

func TestProducerConfig_Writer(t *testing.T) {
	w, err := ProducerConfig{Brokers: []string{"k1:9092", "k2:9092"}, Compression: "snappy"}.writer()
	require.NoError(t, err)
	assert.Equal(t, kafka.Snappy, w.Compression)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, 3, w.MaxAttempts)
	assert.Equal(t, time.Second, w.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)

	_, err = ProducerConfig{Brokers: []string{"k1:9092"}, Compression: "brotli"}.writer()
	assert.ErrorContains(t, err, "unknown compression")
}

func testConsumer(dlq *fakeWriter) *Consumer {
	c := newConsumer(&ConsumerConfig{
		WorkerCount: 1,
		BufferSize:  1,
		RetryMax:    2,
		BackoffMin:  time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
		DLQTopic:    "dlq",
	})
	if dlq != nil {
		c.dlq = dlq
	}
	return c
}

func TestConsumer_ProcessSucceedsAfterRetry(t *testing.T) {
	dlq := &fakeWriter{}
	c := testConsumer(dlq)
	h := &fakeHandler{topic: "in", fails: 1}

	res := c.process(h, &message{topic: "in", data: []byte(`{}`)})
	assert.NoError(t, res.err)
	assert.Equal(t, 2, res.attempts)
	assert.True(t, res.commit)
	assert.False(t, res.dlq)
	assert.Empty(t, dlq.msgs)
}

func TestConsumer_ProcessExhaustsRetriesToDLQ(t *testing.T) {
	dlq := &fakeWriter{}
	c := testConsumer(dlq)
	h := &fakeHandler{topic: "in", fails: 100}

	res := c.process(h, &message{topic: "in", data: []byte(`{"a":1}`), km: kafka.Message{Key: []byte("k")}})
	assert.Error(t, res.err)
	assert.Equal(t, 3, res.attempts, "first try plus RetryMax retries")
	assert.True(t, res.dlq)
	assert.True(t, res.commit)

	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "dlq", dlq.msgs[0].Topic)
	assert.Equal(t, `{"a":1}`, string(dlq.msgs[0].Value))
	assert.Equal(t, "source_topic", dlq.msgs[0].Headers[0].Key)
	assert.Equal(t, "in", string(dlq.msgs[0].Headers[0].Value))
}

func TestConsumer_ProcessWithoutDLQDoesNotCommitFailures(t *testing.T) {
	c := testConsumer(nil)
	c.dlq = nil
	res := c.process(&fakeHandler{topic: "in", fails: 100}, &message{topic: "in", data: []byte(`{}`)})
	assert.Error(t, res.err)
	assert.False(t, res.commit)
}

func TestConsumer_HookRejectionSkipsRetries(t *testing.T) {
	dlq := &fakeWriter{}
	c := testConsumer(dlq)
	c.WithConsumerHook(NewHookChain(JSONPayloadHook{}))
	h := &fakeHandler{topic: "in"}

	res := c.process(h, &message{topic: "in", data: []byte("not json")})
	var he *HookError
	require.ErrorAs(t, res.err, &he)
	assert.Equal(t, "ERR_VALIDATION", he.Code)
	assert.Equal(t, 1, res.attempts)
	assert.Equal(t, 0, h.calls)
	assert.Len(t, dlq.msgs, 1)
}

func TestConsumer_PermanentErrorSkipsRetries(t *testing.T) {
	dlq := &fakeWriter{}
	c := testConsumer(dlq)
	h := &fakeHandler{topic: "in", permanent: true}

	res := c.process(h, &message{topic: "in", data: []byte(`{}`)})
	var pe *PermanentError
	require.ErrorAs(t, res.err, &pe)
	assert.Equal(t, 1, res.attempts)
	assert.Equal(t, 1, h.calls)
	assert.True(t, res.dlq)
	assert.True(t, res.commit)
}

func TestConsumer_HandlerPanicIsRecovered(t *testing.T) {
	dlq := &fakeWriter{}
	c := testConsumer(dlq)
	var res processResult
	require.NotPanics(t, func() {
		res = c.process(&fakeHandler{topic: "in", panic: true}, &message{topic: "in", data: []byte(`{}`)})
	})
	assert.ErrorContains(t, res.err, "panic")
	assert.True(t, res.dlq)

	// the partition lock was released
	res = c.process(&fakeHandler{topic: "in"}, &message{topic: "in", data: []byte(`{}`)})
	assert.NoError(t, res.err)
}

func TestConsumer_StartWithoutHandlers(t *testing.T) {
	c := testConsumer(nil)
	assert.Error(t, c.Start())
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt < 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
}

type recordingHook struct {
	NoopHook
	name  string
	trace *[]string
	fail  bool
	boom  bool
}

func (h recordingHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	*h.trace = append(*h.trace, "before:"+h.name)
	if h.boom {
		panic("hook exploded")
	}
	if h.fail {
		return ctx, km, data, errors.New("rejected")
	}
	return ctx, km, append(data, h.name...), nil
}

func (h recordingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	*h.trace = append(*h.trace, "after:"+h.name)
}

func (h recordingHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	*h.trace = append(*h.trace, "error:"+h.name)
}

func TestHookChain_Order(t *testing.T) {
	var trace []string
	chain := NewHookChain(recordingHook{name: "a", trace: &trace}, nil, recordingHook{name: "b", trace: &trace})

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte(">"))
	require.NoError(t, err)
	assert.Equal(t, ">ab", string(data))

	chain.AfterHandle(context.Background(), "t", kafka.Message{}, data, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, trace)
}

func TestHookChain_FailureAndPanic(t *testing.T) {
	var trace []string
	chain := NewHookChain(recordingHook{name: "a", trace: &trace, fail: true}, recordingHook{name: "b", trace: &trace})
	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"before:a", "error:a", "error:b"}, trace)

	trace = nil
	chain = NewHookChain(recordingHook{name: "x", trace: &trace, boom: true})
	_, _, _, err = chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "ERR_PANIC", he.Code)
}

func TestLoggingHook_TraceID(t *testing.T) {
	h := NewLoggingHook(nil)
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, _, _, err := h.BeforeHandle(context.Background(), "t", km, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", TraceID(ctx))
	_, ok := ctx.Value(CtxStartTime).(time.Time)
	assert.True(t, ok)
	h.AfterHandle(ctx, "t", km, nil, errors.New("x"))
}

func TestJSONPayloadHook(t *testing.T) {
	_, _, _, err := JSONPayloadHook{}.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)
	_, _, _, err = JSONPayloadHook{}.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte(`{"from":"2024-01-01"}`))
	assert.NoError(t, err)
}
