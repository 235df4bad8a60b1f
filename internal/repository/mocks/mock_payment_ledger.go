package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"localmart/internal/model"
	"localmart/internal/repository"
)

type MockPaymentLedger struct {
	mock.Mock
}

func (m *MockPaymentLedger) Create(ctx context.Context, txn *model.PaymentTransaction) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentLedger) FindByTxnRef(ctx context.Context, txnRef string) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, txnRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentLedger) Finalize(ctx context.Context, txn *model.PaymentTransaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentLedger) MarkRefundPending(ctx context.Context, txnRef string) (bool, error) {
	args := m.Called(ctx, txnRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentLedger) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.PaymentTransaction], error) {
	args := m.Called(ctx, userID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.PaymentTransaction]), args.Error(1)
}
