package service

import (
	"context"
	"fmt"

	"localmart/internal/events"
	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
)

const eventProducer = "localmart-api"

// orderFlow applies status transitions and emits their side effects. It is shared by
// the order, payment and proxy services so every path follows the same table.
type orderFlow struct {
	repos    *repository.Repos
	events   events.Publisher
	notifier notify.Notifier
	log      *logx.Logger
}

func newOrderFlow(d Deps) orderFlow {
	pub := d.Events
	if pub == nil {
		pub = events.LogPublisher{Log: d.logger()}
	}
	return orderFlow{repos: d.Repos, events: pub, notifier: d.Notifier, log: d.logger()}
}

// move transitions o to the target status. The write is conditional on the status the
// caller read, so two racing transitions cannot both succeed.
func (f orderFlow) move(ctx context.Context, o *model.Order, to model.OrderStatus, by string, fields repository.Filter) error {
	if !o.Status.CanTransition(to) {
		return badState("cannot move order from %s to %s", o.Status, to)
	}
	now := model.Now()
	set := repository.Filter{"status": to, "updated_at": now}
	for k, v := range fields {
		set[k] = v
	}
	n, err := f.repos.Orders.UpdateMany(ctx, repository.Filter{"_id": o.ID, "status": o.Status}, set)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n == 0 {
		return conflict("order was modified concurrently")
	}

	from := o.Status
	o.Status = to
	o.UpdatedAt = now
	f.publish(ctx, events.EventOrderStatusChanged, o, from, by)
	return nil
}

// restore puts o back to a previous status after a dependent write failed.
// It bypasses the transition table and publishes nothing.
func (f orderFlow) restore(ctx context.Context, o *model.Order, prev model.OrderStatus) {
	n, err := f.repos.Orders.UpdateMany(ctx, repository.Filter{"_id": o.ID, "status": o.Status},
		repository.Filter{"status": prev, "updated_at": model.Now()})
	if err == nil && n == 0 {
		err = fmt.Errorf("order %s left %s", o.ID, o.Status)
	}
	if err != nil {
		f.log.Error("orders", "order_restore_failed", err, map[string]any{"order_id": o.ID, "status": prev})
		return
	}
	o.Status = prev
}

func (f orderFlow) publish(ctx context.Context, eventType string, o *model.Order, from model.OrderStatus, by string) {
	env, err := events.NewOrderEvent(eventType, eventProducer, events.OrderPayload{
		OrderID:        o.ID,
		BuyerID:        o.BuyerID,
		SellerID:       o.SellerID,
		StoreID:        o.StoreID,
		Status:         string(o.Status),
		PreviousStatus: string(from),
		TotalAmount:    o.TotalAmount,
		ChangedBy:      by,
	})
	if err == nil {
		err = f.events.Publish(ctx, env)
	}
	if err != nil {
		f.log.Error("orders", "event_publish_failed", err, map[string]any{
			"order_id":   o.ID,
			"event_type": eventType,
		})
	}
}

// notifyParty tells the side of the order that did not act.
func (f orderFlow) notifyParty(ctx context.Context, o *model.Order, by, title, msg string) {
	to := o.SellerID
	if by == o.SellerID {
		to = o.BuyerID
	}
	notifyUser(ctx, f.notifier, f.log, notify.Message{
		UserID:      to,
		Title:       title,
		Message:     msg,
		Type:        model.NotifyOrder,
		ReferenceID: o.ID,
	})
}
