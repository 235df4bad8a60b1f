package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"localmart/internal/model"
	"localmart/internal/service"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) list(args mock.Arguments) (*service.ListResult[model.Order], error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Order]), args.Error(1)
}

func (m *MockOrderService) Checkout(ctx context.Context, buyerID string, in service.CheckoutInput) ([]model.Order, error) {
	args := m.Called(ctx, buyerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) Mine(ctx context.Context, buyerID string, f service.OrderFilter, p service.Page) (*service.ListResult[model.Order], error) {
	return m.list(m.Called(ctx, buyerID, f, p))
}

func (m *MockOrderService) ForStore(ctx context.Context, sellerID string, f service.OrderFilter, p service.Page) (*service.ListResult[model.Order], error) {
	return m.list(m.Called(ctx, sellerID, f, p))
}

func (m *MockOrderService) Get(ctx context.Context, actor service.Actor, id string) (*model.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) Confirm(ctx context.Context, actor service.Actor, id string) (*model.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) Cancel(ctx context.Context, actor service.Actor, id, reason string) (*model.Order, error) {
	return m.order(m.Called(ctx, actor, id, reason))
}

func (m *MockOrderService) MarkPaid(ctx context.Context, actor service.Actor, id string) (*model.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) Complete(ctx context.Context, actor service.Actor, id string) (*model.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) ExportCSV(ctx context.Context, w io.Writer, f service.OrderFilter) error {
	return m.Called(ctx, w, f).Error(0)
}

func (m *MockOrderService) RemindPending(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}
