package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"localmart/internal/logx"
)

// ErrProducerClosed is returned by Publish after Close.
var ErrProducerClosed = errors.New("producer closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer hands messages to a single writer goroutine through a buffered inbox.
type Producer struct {
	w      messageWriter
	log    *logx.Logger
	inbox  chan kafka.Message
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewProducer creates a hash-balanced producer for topic.
func NewProducer(brokers []string, topic string, buf int, log *logx.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return newProducer(w, buf, log)
}

func newProducer(w messageWriter, buf int, log *logx.Logger) *Producer {
	if buf <= 0 {
		buf = 256
	}
	p := &Producer{
		w:     w,
		log:   log,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Producer) run() {
	defer close(p.done)
	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.w.WriteMessages(ctx, m); err != nil {
			p.log.Error("events", "kafka_write_failed", err, map[string]any{"key": string(m.Key)})
		}
		cancel()
	}
	if err := p.w.Close(); err != nil {
		p.log.Error("events", "kafka_writer_close_failed", err, nil)
	}
}

// Publish queues the event; it blocks only while the inbox is full or ctx is live.
func (p *Producer) Publish(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: b,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(env.EventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes queued messages and waits for the writer to finish.
func (p *Producer) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.done
}
