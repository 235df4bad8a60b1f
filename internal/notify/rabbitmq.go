package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"localmart/internal/logx"
)

// Dial connects to RabbitMQ, retrying while the broker starts up.
func Dial(url string, attempts int, log *logx.Logger) (*amqp.Connection, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < attempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		log.Warn("notify", "rabbitmq_dial_retry", err, map[string]any{"attempt": i + 1})
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

// Publisher writes notifications to a durable queue as persistent JSON messages.
type Publisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(conn *amqp.Connection, queue string) (*Publisher, error) {
	p := &Publisher{conn: conn, queue: queue}
	if err := p.open(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) open() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := declare(ch, p.queue); err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	p.ch = ch
	return nil
}

func (p *Publisher) Notify(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.open(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.ch.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			MessageId:    uuid.NewString(),
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
}

// Consumer drains the notification queue into a Sink, one message at a time.
type Consumer struct {
	conn  *amqp.Connection
	queue string
	sink  Sink
	log   *logx.Logger
}

func NewConsumer(conn *amqp.Connection, queue string, sink Sink, log *logx.Logger) *Consumer {
	return &Consumer{conn: conn, queue: queue, sink: sink, log: log}
}

// Start consumes until ctx is cancelled or the channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, c.queue); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(c.queue, "localmart-notify", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info("notify", "consumer_started", map[string]any{"queue": c.queue})
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.process(ctx, d)
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	var m Message
	if err := json.Unmarshal(d.Body, &m); err != nil || m.UserID == "" {
		if err == nil {
			err = fmt.Errorf("notification without user_id")
		}
		c.log.Error("notify", "notification_malformed", err, map[string]any{"message_id": d.MessageId})
		_ = d.Nack(false, false)
		return
	}

	if err := c.sink.Deliver(ctx, m); err != nil {
		c.log.Error("notify", "notification_deliver_failed", err, map[string]any{
			"message_id": d.MessageId,
			"user_id":    m.UserID,
		})
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	if err := d.Ack(false); err != nil {
		c.log.Error("notify", "notification_ack_failed", err, map[string]any{"message_id": d.MessageId})
	}
}
