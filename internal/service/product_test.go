package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"localmart/internal/cache"
	"localmart/internal/model"
	"localmart/internal/repository"
	"localmart/internal/storage"
	stmocks "localmart/internal/storage/mocks"
)

func newProducts(t *testing.T) (ProductService, *fakes, *stmocks.MockStorage) {
	t.Helper()
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	st := new(stmocks.MockStorage)
	st.On("PresignGet", ctxArg, mock.Anything, time.Hour).Return("https://cdn.test/signed", nil).Maybe()
	d.Storage = st
	d.Cache = cache.NewMemory()
	return NewProductService(d), f, st
}

func TestProduct_Create(t *testing.T) {
	svc, f, _ := newProducts(t)
	ctx := context.Background()
	sellerID, catID := model.NewID(), model.NewID()
	store := &model.Store{ID: model.NewID(), SellerID: sellerID, MarketID: model.NewID(), Status: model.StoreOpen}

	f.stores.On("FindOne", ctxArg, repository.Filter{"seller_id": sellerID}).Return(store, nil)
	f.categories.On("FindByID", ctxArg, catID).Return(&model.Category{ID: catID, Status: model.CategoryActive}, nil)
	f.products.On("Create", ctxArg, mock.AnythingOfType("*model.Product")).Return(nil)

	p, err := svc.Create(ctx, sellerID, ProductInput{CategoryID: catID, Name: "Cải ngọt", Price: 15000, Unit: "kg", MinimumQuantity: 0.5})
	require.NoError(t, err)
	assert.Equal(t, store.ID, p.StoreID)
	assert.Equal(t, store.MarketID, p.MarketID)
	assert.Equal(t, model.ProductActive, p.Status)
	assert.Empty(t, p.ImageURLs)
}

func TestProduct_Create_ClosedStoreOrInactiveCategory(t *testing.T) {
	svc, f, _ := newProducts(t)
	ctx := context.Background()
	closedSeller, openSeller, catID := model.NewID(), model.NewID(), model.NewID()

	f.stores.On("FindOne", ctxArg, repository.Filter{"seller_id": closedSeller}).Return(&model.Store{Status: model.StoreClosed}, nil)
	f.stores.On("FindOne", ctxArg, repository.Filter{"seller_id": openSeller}).Return(&model.Store{Status: model.StoreOpen}, nil)
	f.categories.On("FindByID", ctxArg, catID).Return(&model.Category{ID: catID, Status: model.CategoryInactive}, nil)

	_, err := svc.Create(ctx, closedSeller, ProductInput{CategoryID: catID})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.Create(ctx, openSeller, ProductInput{CategoryID: catID})
	assert.ErrorIs(t, err, ErrInvalidState)
	f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProduct_Get_CachesAndHidesInactive(t *testing.T) {
	svc, f, _ := newProducts(t)
	ctx := context.Background()
	p := &model.Product{ID: model.NewID(), SellerID: model.NewID(), Status: model.ProductActive, ImageKeys: []string{"products/x/1.jpg"}}
	f.products.On("FindByID", ctxArg, p.ID).Return(p, nil).Once()

	got, err := svc.Get(ctx, Actor{}, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/signed"}, got.ImageURLs)

	again, err := svc.Get(ctx, Actor{}, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"products/x/1.jpg"}, again.ImageKeys)
	f.products.AssertNumberOfCalls(t, "FindByID", 1)

	hidden := &model.Product{ID: model.NewID(), SellerID: model.NewID(), Status: model.ProductInactive}
	f.products.On("FindByID", ctxArg, hidden.ID).Return(hidden, nil)
	_, err = svc.Get(ctx, Actor{UserID: model.NewID(), Role: model.RoleBuyer}, hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, Actor{UserID: hidden.SellerID, Role: model.RoleSeller}, hidden.ID)
	assert.NoError(t, err)
}

func TestProduct_Update_InvalidatesCache(t *testing.T) {
	svc, f, _ := newProducts(t)
	ctx := context.Background()
	sellerID := model.NewID()
	p := &model.Product{ID: model.NewID(), SellerID: sellerID, CategoryID: model.NewID(), Status: model.ProductActive, Price: 10}
	f.products.On("FindByID", ctxArg, p.ID).Return(func() *model.Product { c := *p; return &c }(), nil).Once()
	_, err := svc.Get(ctx, Actor{}, p.ID)
	require.NoError(t, err)

	updated := *p
	f.products.On("FindByID", ctxArg, p.ID).Return(&updated, nil)
	f.products.On("Update", ctxArg, p.ID, mock.Anything).Return(nil)
	_, err = svc.Update(ctx, sellerID, p.ID, ProductInput{CategoryID: p.CategoryID, Name: "New", Price: 20, Unit: "kg", MinimumQuantity: 1})
	require.NoError(t, err)

	_, err = svc.Get(ctx, Actor{}, p.ID)
	require.NoError(t, err)
	f.products.AssertNumberOfCalls(t, "FindByID", 3)
}

func TestProduct_Search_Validation(t *testing.T) {
	svc, f, _ := newProducts(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, ProductFilter{SortBy: "name"}, Page{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Search(ctx, ProductFilter{MinPrice: 100, MaxPrice: 50}, Page{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	f.products.On("List", ctxArg, mock.MatchedBy(func(fl repository.Filter) bool {
		price, ok := fl["price"].(repository.Filter)
		return ok && price["$gte"] == int64(1000) && fl["category_id"] == "c1"
	}), repository.PageQuery{Limit: 20, SortBy: "price", Asc: true}).
		Return(&repository.PageResult[model.Product]{Items: []model.Product{{ID: "p"}}, Total: 1}, nil)
	res, err := svc.Search(ctx, ProductFilter{CategoryID: "c1", MinPrice: 1000, SortBy: "price", Asc: true}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
}

func TestProduct_AddImage(t *testing.T) {
	svc, f, st := newProducts(t)
	ctx := context.Background()
	sellerID := model.NewID()
	full := &model.Product{ID: model.NewID(), SellerID: sellerID, Status: model.ProductActive, ImageKeys: []string{"a", "b", "c", "d", "e"}}
	one := &model.Product{ID: model.NewID(), SellerID: sellerID, Status: model.ProductActive, ImageKeys: []string{"a"}}
	f.products.On("FindByID", ctxArg, full.ID).Return(full, nil)
	f.products.On("FindByID", ctxArg, one.ID).Return(one, nil)
	up := Upload{Reader: strings.NewReader("img"), Size: 3, ContentType: "image/png"}

	_, err := svc.AddImage(ctx, sellerID, full.ID, up)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.AddImage(ctx, model.NewID(), one.ID, up)
	assert.ErrorIs(t, err, ErrForbidden)

	st.On("Put", ctxArg, mock.MatchedBy(func(k string) bool { return strings.HasPrefix(k, "products/"+one.ID+"/") }), mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)
	f.products.On("Update", ctxArg, one.ID, mock.Anything).Return(errors.New("write failed")).Once()
	st.On("Delete", ctxArg, mock.Anything).Return(nil).Once()
	_, err = svc.AddImage(ctx, sellerID, one.ID, up)
	assert.Error(t, err)
	st.AssertCalled(t, "Delete", ctxArg, mock.Anything)

	f.products.On("Update", ctxArg, one.ID, mock.Anything).Return(nil)
	p, err := svc.AddImage(ctx, sellerID, one.ID, up)
	require.NoError(t, err)
	assert.Len(t, p.ImageKeys, 2)
}

func TestProduct_AddFavorite_Duplicate(t *testing.T) {
	svc, f, _ := newProducts(t)
	id := model.NewID()
	f.products.On("FindByID", ctxArg, id).Return(&model.Product{ID: id, Status: model.ProductActive}, nil)
	f.favorites.On("Create", ctxArg, mock.Anything).Return(duplicateKey())

	assert.ErrorIs(t, svc.AddFavorite(context.Background(), model.NewID(), id), ErrConflict)
}
