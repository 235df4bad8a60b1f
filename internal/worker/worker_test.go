package worker

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localmart/internal/cache"
	"localmart/internal/events"
	"localmart/internal/logx"
	"localmart/internal/service"
)

type fakeLoyalty struct {
	calls []string
	err   error
}

func (f *fakeLoyalty) Recompute(_ context.Context, userID string) (*service.LoyaltyView, error) {
	f.calls = append(f.calls, userID)
	if f.err != nil {
		return nil, f.err
	}
	return &service.LoyaltyView{UserID: userID, Score: 120, Tier: "Silver"}, nil
}

func orderEvent(t *testing.T, eventType, status string) events.Envelope {
	t.Helper()
	env, err := events.NewOrderEvent(eventType, "api", events.OrderPayload{
		OrderID: "o1", BuyerID: "b1", Status: status,
	})
	require.NoError(t, err)
	return env
}

func TestLoyaltyHandler(t *testing.T) {
	ctx := context.Background()
	log := logx.New(&bytes.Buffer{}, nil)

	t.Run("final statuses recompute once", func(t *testing.T) {
		loyalty := &fakeLoyalty{}
		h := LoyaltyHandler(loyalty, cache.NewMemory(), log)
		env := orderEvent(t, events.EventOrderStatusChanged, "Completed")

		require.NoError(t, h(ctx, env))
		require.NoError(t, h(ctx, env))
		require.NoError(t, h(ctx, orderEvent(t, events.EventOrderStatusChanged, "Cancelled")))

		assert.Equal(t, []string{"b1", "b1"}, loyalty.calls)
	})

	t.Run("other events are ignored", func(t *testing.T) {
		loyalty := &fakeLoyalty{}
		h := LoyaltyHandler(loyalty, cache.NewMemory(), log)

		require.NoError(t, h(ctx, orderEvent(t, events.EventOrderCreated, "Pending")))
		require.NoError(t, h(ctx, orderEvent(t, events.EventOrderStatusChanged, "Paid")))

		assert.Empty(t, loyalty.calls)
	})

	t.Run("failure releases the dedup marker", func(t *testing.T) {
		loyalty := &fakeLoyalty{err: errors.New("mongo timeout")}
		h := LoyaltyHandler(loyalty, cache.NewMemory(), log)
		env := orderEvent(t, events.EventOrderStatusChanged, "Completed")

		assert.Error(t, h(ctx, env))
		loyalty.err = nil
		require.NoError(t, h(ctx, env))

		assert.Len(t, loyalty.calls, 2)
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		loyalty := &fakeLoyalty{}
		h := LoyaltyHandler(loyalty, cache.NewMemory(), log)
		env := events.Envelope{EventID: "e1", EventType: events.EventOrderStatusChanged, Payload: []byte(`"oops"`)}

		assert.NoError(t, h(ctx, env))
		assert.Empty(t, loyalty.calls)
	})
}
