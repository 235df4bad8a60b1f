package notify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localmart/internal/logx"
)

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func newTestConsumer(sink Sink) *Consumer {
	return &Consumer{queue: "notifications", sink: sink, log: logx.New(io.Discard, time.UTC)}
}

func TestDirect_Notify(t *testing.T) {
	var got Message
	d := Direct{Sink: SinkFunc(func(_ context.Context, m Message) error {
		got = m
		return nil
	})}

	require.NoError(t, d.Notify(context.Background(), Message{UserID: "u1", Title: "Order confirmed"}))
	assert.Equal(t, "u1", got.UserID)
}

func TestConsumer_Process(t *testing.T) {
	t.Run("delivers and acks", func(t *testing.T) {
		var got Message
		c := newTestConsumer(SinkFunc(func(_ context.Context, m Message) error {
			got = m
			return nil
		}))
		ack := &ackRecorder{}

		c.process(context.Background(), amqp.Delivery{
			Acknowledger: ack,
			Body:         []byte(`{"user_id":"u1","title":"Hi","message":"hello","type":"Order"}`),
		})

		assert.True(t, ack.acked)
		assert.Equal(t, "hello", got.Message)
	})

	t.Run("malformed is dropped", func(t *testing.T) {
		c := newTestConsumer(SinkFunc(func(context.Context, Message) error {
			t.Fatal("sink must not be called")
			return nil
		}))
		ack := &ackRecorder{}

		c.process(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("not-json")})

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("sink failure requeues once", func(t *testing.T) {
		c := newTestConsumer(SinkFunc(func(context.Context, Message) error {
			return errors.New("mongo down")
		}))

		first := &ackRecorder{}
		c.process(context.Background(), amqp.Delivery{Acknowledger: first, Body: []byte(`{"user_id":"u1"}`)})
		assert.True(t, first.nacked)
		assert.True(t, first.requeue)

		again := &ackRecorder{}
		c.process(context.Background(), amqp.Delivery{Acknowledger: again, Redelivered: true, Body: []byte(`{"user_id":"u1"}`)})
		assert.True(t, again.nacked)
		assert.False(t, again.requeue)
	})
}
