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

func TestCart_AddItem_Rules(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	svc := NewCartService(d)
	ctx := context.Background()
	buyer := model.NewID()
	p := &model.Product{ID: model.NewID(), SellerID: model.NewID(), Price: 20000, MinimumQuantity: 1, Status: model.ProductActive}
	own := &model.Product{ID: model.NewID(), SellerID: buyer, Status: model.ProductActive}
	gone := &model.Product{ID: model.NewID(), Status: model.ProductInactive}
	f.products.On("FindByID", ctxArg, p.ID).Return(p, nil)
	f.products.On("FindByID", ctxArg, own.ID).Return(own, nil)
	f.products.On("FindByID", ctxArg, gone.ID).Return(gone, nil)

	_, err := svc.AddItem(ctx, buyer, AddCartItemInput{ProductID: own.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddItem(ctx, buyer, AddCartItemInput{ProductID: gone.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.AddItem(ctx, buyer, AddCartItemInput{ProductID: p.ID, Quantity: 0.5})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCart_AddItem_CreatesThenMerges(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	svc := NewCartService(d)
	ctx := context.Background()
	buyer := model.NewID()
	p := &model.Product{ID: model.NewID(), StoreID: "s1", SellerID: model.NewID(), Name: "Xoài", Unit: "kg", Price: 35000, MinimumQuantity: 0.5, Status: model.ProductActive}
	f.products.On("FindByID", ctxArg, p.ID).Return(p, nil)
	f.products.On("FindMany", ctxArg, mock.Anything).Return([]model.Product{*p}, nil)

	var saved *model.Cart
	f.carts.On("FindOne", ctxArg, repository.Filter{"user_id": buyer}).Return(nil, repository.ErrNotFound).Once()
	f.carts.On("Create", ctxArg, mock.AnythingOfType("*model.Cart")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.Cart)
	}).Return(nil)

	v, err := svc.AddItem(ctx, buyer, AddCartItemInput{ProductID: p.ID, Quantity: 1.5})
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(52500), v.Total)

	f.carts.On("FindOne", ctxArg, repository.Filter{"user_id": buyer}).Return(saved, nil)
	f.carts.On("Update", ctxArg, saved.ID, mock.Anything).Return(nil)
	v, err = svc.AddItem(ctx, buyer, AddCartItemInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 2.5, v.Items[0].Quantity)
	assert.Equal(t, int64(87500), v.Total)
	assert.True(t, v.Items[0].Available)
}

func TestCart_AddItem_WithBargain(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	svc := NewCartService(d)
	ctx := context.Background()
	buyer := model.NewID()
	p := &model.Product{ID: model.NewID(), SellerID: model.NewID(), Price: 50000, MinimumQuantity: 1, Status: model.ProductActive}
	b := &model.FastBargain{ID: model.NewID(), ProductID: p.ID, BuyerID: buyer, Status: model.BargainAccepted, FinalPrice: 42000, Quantity: 2}
	pending := &model.FastBargain{ID: model.NewID(), ProductID: p.ID, BuyerID: buyer, Status: model.BargainPending}

	f.products.On("FindByID", ctxArg, p.ID).Return(p, nil)
	f.products.On("FindMany", ctxArg, mock.Anything).Return([]model.Product{*p}, nil)
	f.bargains.On("FindByID", ctxArg, b.ID).Return(b, nil)
	f.bargains.On("FindByID", ctxArg, pending.ID).Return(pending, nil)
	cart := &model.Cart{ID: model.NewID(), UserID: buyer, Items: []model.CartItem{{ProductID: p.ID, Quantity: 5}}}
	f.carts.On("FindOne", ctxArg, mock.Anything).Return(cart, nil)
	f.carts.On("Update", ctxArg, cart.ID, mock.Anything).Return(nil)

	_, err := svc.AddItem(ctx, buyer, AddCartItemInput{ProductID: p.ID, BargainID: pending.ID})
	assert.ErrorIs(t, err, ErrInvalidState)

	v, err := svc.AddItem(ctx, buyer, AddCartItemInput{ProductID: p.ID, BargainID: b.ID})
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(42000), v.Items[0].UnitPrice)
	assert.Equal(t, int64(84000), v.Total)

	_, err = svc.UpdateItem(ctx, buyer, p.ID, 3)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCart_View_SkipsUnavailable(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	buyer := model.NewID()
	cart := &model.Cart{ID: model.NewID(), UserID: buyer, Items: []model.CartItem{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 1},
		{ProductID: "c", Quantity: 1},
	}}
	f.carts.On("FindOne", ctxArg, mock.Anything).Return(cart, nil)
	f.products.On("FindMany", ctxArg, mock.Anything).Return([]model.Product{
		{ID: "a", Price: 1000, Status: model.ProductActive},
		{ID: "b", Price: 9999, Status: model.ProductOutOfStock},
	}, nil)

	v, err := NewCartService(d).Get(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, v.Items, 3)
	assert.Equal(t, int64(2000), v.Total)
	assert.False(t, v.Items[1].Available)
	assert.Equal(t, model.ProductDeleted, v.Items[2].Status)
}
