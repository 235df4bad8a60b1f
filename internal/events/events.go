// Package events carries order domain events between the API and the worker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"localmart/internal/logx"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Envelope wraps every event on the wire.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// OrderPayload is the body of both order events.
type OrderPayload struct {
	OrderID        string `json:"order_id"`
	BuyerID        string `json:"buyer_id"`
	SellerID       string `json:"seller_id"`
	StoreID        string `json:"store_id,omitempty"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	TotalAmount    int64  `json:"total_amount"`
	ChangedBy      string `json:"changed_by,omitempty"`
}

// NewOrderEvent builds an envelope keyed by the order id.
func NewOrderEvent(eventType, producer string, p OrderPayload) (Envelope, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: p.OrderID,
		Payload:       b,
	}, nil
}

// DecodeOrder unmarshals the payload of an order event.
func (e Envelope) DecodeOrder() (OrderPayload, error) {
	var p OrderPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// Publisher sends events. Publish must not block on the broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// LogPublisher writes events to the JSON log. Used when no brokers are configured.
type LogPublisher struct {
	Log *logx.Logger
}

func (p LogPublisher) Publish(_ context.Context, env Envelope) error {
	p.Log.Info("events", "event_published", map[string]any{
		"event_id":       env.EventID,
		"event_type":     env.EventType,
		"correlation_id": env.CorrelationID,
		"sink":           "log",
	})
	return nil
}
