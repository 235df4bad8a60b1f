// Package notify delivers user notifications either directly or through a RabbitMQ queue.
package notify

import "context"

// Message is a notification on its way to a user.
type Message struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id,omitempty"`
}

// Notifier is what services call to notify a user.
type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// Sink persists a notification and pushes it to live connections.
type Sink interface {
	Deliver(ctx context.Context, m Message) error
}

// Direct delivers synchronously on the caller's goroutine.
type Direct struct {
	Sink Sink
}

func (d Direct) Notify(ctx context.Context, m Message) error {
	return d.Sink.Deliver(ctx, m)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, m Message) error

func (f SinkFunc) Deliver(ctx context.Context, m Message) error { return f(ctx, m) }
