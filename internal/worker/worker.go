// Package worker reacts to order events consumed from Kafka.
package worker

import (
	"context"
	"fmt"

	"localmart/internal/cache"
	"localmart/internal/events"
	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/service"
)

// LoyaltyHandler recomputes the buyer's loyalty when an order reaches a final
// status. Each event is applied once; a failed recompute releases the dedup marker
// so the uncommitted message can be retried.
func LoyaltyHandler(loyalty service.LoyaltyService, dedup cache.Store, log *logx.Logger) events.Handler {
	return func(ctx context.Context, env events.Envelope) error {
		if env.EventType != events.EventOrderStatusChanged {
			return nil
		}
		p, err := env.DecodeOrder()
		if err != nil {
			log.Warn("worker", "bad_payload", err, map[string]any{"event_id": env.EventID})
			return nil
		}
		switch model.OrderStatus(p.Status) {
		case model.OrderCompleted, model.OrderCancelled:
		default:
			return nil
		}

		key := cache.Key(cache.KeyDedup, "loyalty", env.EventID)
		first, err := dedup.SetNX(ctx, key, p.OrderID, cache.TTLDedup)
		if err != nil {
			return fmt.Errorf("dedup: %w", err)
		}
		if !first {
			log.Info("worker", "duplicate_event", map[string]any{"event_id": env.EventID})
			return nil
		}

		v, err := loyalty.Recompute(ctx, p.BuyerID)
		if err != nil {
			if derr := dedup.Del(ctx, key); derr != nil {
				log.Warn("worker", "dedup_release_failed", derr, map[string]any{"event_id": env.EventID})
			}
			return fmt.Errorf("recompute loyalty for %s: %w", p.BuyerID, err)
		}
		log.Info("worker", "loyalty_recomputed", map[string]any{
			"user_id":  v.UserID,
			"score":    v.Score,
			"tier":     v.Tier,
			"order_id": p.OrderID,
		})
		return nil
	}
}
