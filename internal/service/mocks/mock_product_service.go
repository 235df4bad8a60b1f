package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"localmart/internal/model"
	"localmart/internal/service"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) product(args mock.Arguments) (*model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Search(ctx context.Context, f service.ProductFilter, p service.Page) (*service.ListResult[model.Product], error) {
	args := m.Called(ctx, f, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Product]), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, viewer service.Actor, id string) (*model.Product, error) {
	return m.product(m.Called(ctx, viewer, id))
}

func (m *MockProductService) ListByStore(ctx context.Context, storeID string, p service.Page) (*service.ListResult[model.Product], error) {
	args := m.Called(ctx, storeID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Product]), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, sellerID string, in service.ProductInput) (*model.Product, error) {
	return m.product(m.Called(ctx, sellerID, in))
}

func (m *MockProductService) Update(ctx context.Context, sellerID, id string, in service.ProductInput) (*model.Product, error) {
	return m.product(m.Called(ctx, sellerID, id, in))
}

func (m *MockProductService) SetStatus(ctx context.Context, sellerID, id, status string) error {
	return m.Called(ctx, sellerID, id, status).Error(0)
}

func (m *MockProductService) Delete(ctx context.Context, sellerID, id string) error {
	return m.Called(ctx, sellerID, id).Error(0)
}

func (m *MockProductService) AddImage(ctx context.Context, sellerID, id string, file service.Upload) (*model.Product, error) {
	return m.product(m.Called(ctx, sellerID, id, file))
}

func (m *MockProductService) RemoveImage(ctx context.Context, sellerID, id string, index int) (*model.Product, error) {
	return m.product(m.Called(ctx, sellerID, id, index))
}

func (m *MockProductService) AddFavorite(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *MockProductService) RemoveFavorite(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *MockProductService) Favorites(ctx context.Context, userID string) ([]model.Product, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}
