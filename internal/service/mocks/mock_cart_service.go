package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"localmart/internal/service"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) view(args mock.Arguments) (*service.CartView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CartView), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, userID string) (*service.CartView, error) {
	return m.view(m.Called(ctx, userID))
}

func (m *MockCartService) AddItem(ctx context.Context, userID string, in service.AddCartItemInput) (*service.CartView, error) {
	return m.view(m.Called(ctx, userID, in))
}

func (m *MockCartService) UpdateItem(ctx context.Context, userID, productID string, qty float64) (*service.CartView, error) {
	return m.view(m.Called(ctx, userID, productID, qty))
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, productID string) (*service.CartView, error) {
	return m.view(m.Called(ctx, userID, productID))
}

func (m *MockCartService) Clear(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
