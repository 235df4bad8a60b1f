package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"localmart/internal/logx"
)

// Handler processes one event. Returning nil commits the message offset.
type Handler func(ctx context.Context, env Envelope) error

const (
	handleAttempts = 4
	retryBackoff   = 500 * time.Millisecond
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads a topic with a consumer group and fans messages out to a worker pool.
type Consumer struct {
	r        messageReader
	workers  int
	attempts int
	backoff  time.Duration
	log      *logx.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *logx.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r messageReader, workers int, log *logx.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, attempts: handleAttempts, backoff: retryBackoff, log: log}
}

// Decode parses a Kafka message into an Envelope.
func Decode(m kafka.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope at offset %d: %w", m.Offset, err)
	}
	return env, nil
}

// Start blocks until ctx is cancelled or the reader fails.
// Malformed messages are committed and skipped. A failing handler is retried in place with
// doubling backoff; once the attempts run out the message is logged as dropped and committed,
// since a later commit on the partition would pass over it anyway.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, c.workers*4)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for m := range jobs {
				c.handle(ctx, id, m, h)
			}
		}(i)
	}
	defer wg.Wait()
	defer close(jobs)

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Consumer) handle(ctx context.Context, worker int, m kafka.Message, h Handler) {
	env, err := Decode(m)
	if err != nil {
		c.log.Error("events", "event_malformed", err, map[string]any{"worker": worker})
		c.commit(ctx, m)
		return
	}
	start := time.Now()
	if err := c.run(ctx, worker, env, h); err != nil {
		if ctx.Err() != nil {
			return
		}
		c.log.Error("events", "event_dropped", err, map[string]any{
			"worker":     worker,
			"event_id":   env.EventID,
			"event_type": env.EventType,
			"offset":     m.Offset,
			"attempts":   c.attempts,
		})
		c.commit(ctx, m)
		return
	}
	c.log.Info("events", "event_handled", map[string]any{
		"worker":      worker,
		"event_id":    env.EventID,
		"event_type":  env.EventType,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	c.commit(ctx, m)
}

// run calls h until it succeeds, the attempts run out or ctx ends.
func (c *Consumer) run(ctx context.Context, worker int, env Envelope, h Handler) error {
	wait := c.backoff
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = h(ctx, env); err == nil {
			return nil
		}
		c.log.Warn("events", "event_failed", err, map[string]any{
			"worker":     worker,
			"event_id":   env.EventID,
			"event_type": env.EventType,
			"attempt":    attempt,
		})
		if attempt == c.attempts {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
	return err
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.log.Error("events", "kafka_commit_failed", err, map[string]any{"offset": m.Offset})
	}
}
