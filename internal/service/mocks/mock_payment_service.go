package mocks

import (
	"context"
	"net/url"

	"github.com/stretchr/testify/mock"

	"localmart/internal/model"
	"localmart/internal/service"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) PayOrder(ctx context.Context, actor service.Actor, orderID, clientIP string) (*service.PaymentInit, error) {
	args := m.Called(ctx, actor, orderID, clientIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentInit), args.Error(1)
}

func (m *MockPaymentService) PayMarketFee(ctx context.Context, actor service.Actor, feePaymentID, clientIP string) (*service.PaymentInit, error) {
	args := m.Called(ctx, actor, feePaymentID, clientIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentInit), args.Error(1)
}

func (m *MockPaymentService) HandleCallback(ctx context.Context, params url.Values) *service.CallbackResult {
	return m.Called(ctx, params).Get(0).(*service.CallbackResult)
}

func (m *MockPaymentService) History(ctx context.Context, userID string, p service.Page) (*service.ListResult[model.PaymentTransaction], error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.PaymentTransaction]), args.Error(1)
}
