package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"localmart/internal/model"
	"localmart/internal/repository"
)

func TestBargain_Create(t *testing.T) {
	repos, f := newFakes()
	d, in, _ := testDeps(repos)
	svc := NewBargainService(d)
	ctx := context.Background()
	p := &model.Product{ID: model.NewID(), SellerID: model.NewID(), StoreID: model.NewID(), Name: "Cá lóc", Price: 80000, MinimumQuantity: 1, Status: model.ProductActive}
	f.products.On("FindByID", ctxArg, p.ID).Return(p, nil)
	buyer := model.NewID()

	_, err := svc.Create(ctx, p.SellerID, BargainInput{ProductID: p.ID, Price: 70000, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, buyer, BargainInput{ProductID: p.ID, Price: 80000, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, buyer, BargainInput{ProductID: p.ID, Price: 70000, Quantity: 0.5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	f.bargains.On("Count", ctxArg, mock.Anything).Return(int64(0), nil).Once()
	f.bargains.On("Create", ctxArg, mock.Anything).Return(nil)
	b, err := svc.Create(ctx, buyer, BargainInput{ProductID: p.ID, Price: 70000, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, model.BargainPending, b.Status)
	assert.Equal(t, int64(80000), b.OriginalPrice)
	assert.WithinDuration(t, b.CreatedAt.Add(model.BargainTTL), b.ExpiresAt, time.Second)
	assert.Len(t, in.to(p.SellerID), 1)

	f.bargains.On("Count", ctxArg, mock.Anything).Return(int64(1), nil)
	_, err = svc.Create(ctx, buyer, BargainInput{ProductID: p.ID, Price: 70000, Quantity: 2})
	assert.ErrorIs(t, err, ErrConflict)
}

func liveBargain(proposals ...string) *model.FastBargain {
	b := &model.FastBargain{
		ID:            model.NewID(),
		BuyerID:       "buyer",
		SellerID:      "seller",
		OriginalPrice: 100000,
		ExpiresAt:     time.Now().Add(time.Hour),
		Status:        model.BargainPending,
	}
	for i, who := range proposals {
		b.Proposals = append(b.Proposals, model.BargainProposal{UserID: who, Price: int64(70000 + i*5000)})
	}
	return b
}

func TestBargain_Propose_Alternates(t *testing.T) {
	repos, f := newFakes()
	d, in, _ := testDeps(repos)
	svc := NewBargainService(d)
	ctx := context.Background()
	b := liveBargain("buyer")
	f.bargains.On("FindByID", ctxArg, b.ID).Return(b, nil)
	f.bargains.On("UpdateMany", ctxArg, repository.Filter{"_id": b.ID, "status": model.BargainPending}, mock.Anything).Return(int64(1), nil)

	_, err := svc.Propose(ctx, "buyer", b.ID, 75000)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Propose(ctx, "seller", b.ID, 100000)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Propose(ctx, "stranger", b.ID, 90000)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Propose(ctx, "seller", b.ID, 90000)
	require.NoError(t, err)
	assert.Len(t, got.Proposals, 2)
	assert.Equal(t, int64(90000), got.LastProposal().Price)
	assert.Len(t, in.to("buyer"), 1)
}

func TestBargain_Propose_BuyerLimit(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	b := liveBargain("buyer", "seller", "buyer", "seller", "buyer", "seller")
	f.bargains.On("FindByID", ctxArg, b.ID).Return(b, nil)

	_, err := NewBargainService(d).Propose(context.Background(), "buyer", b.ID, 80000)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBargain_Expired(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	b := liveBargain("buyer")
	b.ExpiresAt = time.Now().Add(-time.Minute)
	f.bargains.On("FindByID", ctxArg, b.ID).Return(b, nil)

	_, err := NewBargainService(d).Accept(context.Background(), "seller", b.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBargain_Accept_ByCounterParty(t *testing.T) {
	repos, f := newFakes()
	d, in, _ := testDeps(repos)
	svc := NewBargainService(d)
	ctx := context.Background()
	b := liveBargain("buyer", "seller")
	f.bargains.On("FindByID", ctxArg, b.ID).Return(b, nil)
	f.bargains.On("UpdateMany", ctxArg, mock.Anything, mock.MatchedBy(func(fl repository.Filter) bool {
		return fl["status"] == model.BargainAccepted && fl["final_price"] == int64(75000)
	})).Return(int64(1), nil)

	_, err := svc.Accept(ctx, "seller", b.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	got, err := svc.Accept(ctx, "buyer", b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BargainAccepted, got.Status)
	assert.Equal(t, int64(75000), got.FinalPrice)
	assert.Len(t, in.to("seller"), 1)
}

func TestBargain_ConcurrentAnswer(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	b := liveBargain("buyer")
	f.bargains.On("FindByID", ctxArg, b.ID).Return(b, nil)
	f.bargains.On("UpdateMany", ctxArg, mock.Anything, mock.Anything).Return(int64(0), nil)

	_, err := NewBargainService(d).Reject(context.Background(), "seller", b.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBargain_Cancel_BuyerOnly(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	svc := NewBargainService(d)
	b := liveBargain("buyer")
	f.bargains.On("FindByID", ctxArg, b.ID).Return(b, nil)
	f.bargains.On("UpdateMany", ctxArg, mock.Anything, mock.Anything).Return(int64(1), nil)

	_, err := svc.Cancel(context.Background(), "seller", b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Cancel(context.Background(), "buyer", b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BargainCancelled, got.Status)
}
