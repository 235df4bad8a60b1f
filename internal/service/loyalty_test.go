package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"localmart/internal/model"
	"localmart/internal/repository"
)

func TestLoyaltyScore(t *testing.T) {
	buyer := "b1"
	orders := []model.Order{
		{Status: model.OrderCompleted, TotalAmount: 150000},
		{Status: model.OrderCompleted, TotalAmount: 60000},
		{Status: model.OrderCancelled, CancelledBy: buyer},
		{Status: model.OrderCancelled, CancelledBy: "seller"},
	}
	// 2 completed (20) + 210k spend (2) - 1 buyer cancel (5) + 3 reviews (6)
	assert.Equal(t, 23, LoyaltyScore(buyer, orders, 3))

	onlyCancels := []model.Order{
		{Status: model.OrderCancelled, CancelledBy: buyer},
		{Status: model.OrderCancelled, CancelledBy: buyer},
	}
	assert.Equal(t, 0, LoyaltyScore(buyer, onlyCancels, 0))
}

func TestLoyaltyTier(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, model.TierBronze},
		{99, model.TierBronze},
		{100, model.TierSilver},
		{299, model.TierSilver},
		{300, model.TierGold},
		{699, model.TierGold},
		{700, model.TierPlatinum},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LoyaltyTier(tt.score), "score %d", tt.score)
	}
}

func TestLoyalty_Recompute(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	svc := NewLoyaltyService(d)
	id := model.NewID()

	orders := make([]model.Order, 11)
	for i := range orders {
		orders[i] = model.Order{Status: model.OrderCompleted, TotalAmount: 10000}
	}
	f.users.On("FindByID", ctxArg, id).Return(&model.User{ID: id, LoyaltyTier: model.TierBronze}, nil)
	f.orders.On("FindMany", ctxArg, mock.Anything).Return(orders, nil)
	f.reviews.On("Count", ctxArg, repository.Filter{"user_id": id, "status": model.ReviewActive}).Return(int64(0), nil)
	f.users.On("Update", ctxArg, id, mock.MatchedBy(func(fields repository.Filter) bool {
		return fields["loyalty_score"] == 111 && fields["loyalty_tier"] == model.TierSilver
	})).Return(nil)

	v, err := svc.Recompute(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 111, v.Score)
	assert.Equal(t, model.TierSilver, v.Tier)
	f.users.AssertExpectations(t)
}
