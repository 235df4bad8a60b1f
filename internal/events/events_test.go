package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localmart/internal/logx"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	fail   bool
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("broker down")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestNewOrderEvent_RoundTrip(t *testing.T) {
	env, err := NewOrderEvent(EventOrderStatusChanged, "api", OrderPayload{
		OrderID: "o1", BuyerID: "b1", Status: "Completed", PreviousStatus: "Paid", TotalAmount: 250000,
	})
	require.NoError(t, err)
	assert.Equal(t, "o1", env.CorrelationID)
	assert.NotEmpty(t, env.EventID)

	b, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, err := Decode(kafka.Message{Value: b})
	require.NoError(t, err)
	p, err := decoded.DecodeOrder()
	require.NoError(t, err)
	assert.Equal(t, "Completed", p.Status)
	assert.Equal(t, int64(250000), p.TotalAmount)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(kafka.Message{Value: []byte("{not json"), Offset: 7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 7")
}

func TestProducer_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 4, logx.New(io.Discard, time.UTC))

	for _, id := range []string{"o1", "o2", "o3"} {
		env, _ := NewOrderEvent(EventOrderCreated, "api", OrderPayload{OrderID: id})
		require.NoError(t, p.Publish(context.Background(), env))
	}
	p.Close()

	assert.True(t, w.closed)
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "o2", string(w.msgs[1].Key))
	assert.Equal(t, EventOrderCreated, string(w.msgs[0].Headers[0].Value))

	env, _ := NewOrderEvent(EventOrderCreated, "api", OrderPayload{OrderID: "late"})
	assert.ErrorIs(t, p.Publish(context.Background(), env), ErrProducerClosed)
}

func TestProducer_WriteErrorIsLogged(t *testing.T) {
	var buf safeBuffer
	w := &fakeWriter{fail: true}
	p := newProducer(w, 1, logx.New(&buf, time.UTC))

	env, _ := NewOrderEvent(EventOrderCreated, "api", OrderPayload{OrderID: "o1"})
	require.NoError(t, p.Publish(context.Background(), env))
	p.Close()

	assert.Contains(t, buf.String(), "kafka_write_failed")
}

type safeBuffer struct {
	mu sync.Mutex
	b  []byte
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.b = append(s.b, p...)
	return len(p), nil
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.b)
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func eventMessage(t *testing.T, offset int64, orderID string) kafka.Message {
	t.Helper()
	env, err := NewOrderEvent(EventOrderStatusChanged, "api", OrderPayload{OrderID: orderID, Status: "Completed"})
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: b}
}

func TestConsumer_RetriesHandlerBeforeCommitting(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{eventMessage(t, 11, "o1")}}
	var buf safeBuffer
	c := newConsumer(r, 1, logx.New(&buf, time.UTC))
	c.backoff = time.Millisecond

	var mu sync.Mutex
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(_ context.Context, env Envelope) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls < 3 {
				return errors.New("mongo unavailable")
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool { return len(r.commits()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	assert.Equal(t, 3, calls)
	mu.Unlock()
	assert.Equal(t, []int64{11}, r.commits())
	assert.Contains(t, buf.String(), "event_failed")
	assert.Contains(t, buf.String(), "event_handled")
	assert.NotContains(t, buf.String(), "event_dropped")
	assert.True(t, r.closed)
}

func TestConsumer_DropsAfterLastAttempt(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{
		eventMessage(t, 20, "o1"),
		{Offset: 21, Value: []byte("{not json")},
	}}
	var buf safeBuffer
	c := newConsumer(r, 1, logx.New(&buf, time.UTC))
	c.backoff = time.Millisecond
	c.attempts = 2

	var mu sync.Mutex
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(context.Context, Envelope) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return errors.New("always fails")
		})
	}()

	require.Eventually(t, func() bool { return len(r.commits()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	assert.Equal(t, 2, calls, "malformed messages never reach the handler")
	mu.Unlock()
	assert.Equal(t, []int64{20, 21}, r.commits())
	assert.Contains(t, buf.String(), "event_dropped")
	assert.Contains(t, buf.String(), "event_malformed")
}
