package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"localmart/internal/model"
	"localmart/internal/repository"
)

func TestMarketFee_Create_Validation(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	svc := NewMarketFeeService(d)
	ctx := context.Background()
	marketID := model.NewID()

	_, err := svc.Create(ctx, MarketFeeInput{MarketID: marketID, Name: "Rent", Amount: 0, PaymentDay: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, MarketFeeInput{MarketID: marketID, Name: "Rent", Amount: 500000, PaymentDay: 31})
	assert.ErrorIs(t, err, ErrInvalidInput)

	f.markets.On("FindByID", ctxArg, marketID).Return(&model.Market{ID: marketID}, nil)
	f.marketFees.On("Create", ctxArg, mock.Anything).Return(nil)
	fee, err := svc.Create(ctx, MarketFeeInput{MarketID: marketID, Name: " Rent ", FeeType: "Rent", Amount: 500000, PaymentDay: 5})
	require.NoError(t, err)
	assert.Equal(t, "Rent", fee.Name)
	assert.Equal(t, model.FeeActive, fee.Status)
}

func TestMarketFee_Update_CannotMoveMarket(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	fee := &model.MarketFee{ID: model.NewID(), MarketID: model.NewID()}
	f.marketFees.On("FindByID", ctxArg, fee.ID).Return(fee, nil)

	_, err := NewMarketFeeService(d).Update(context.Background(), fee.ID, MarketFeeInput{MarketID: model.NewID(), Amount: 1, PaymentDay: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMarketFee_GenerateMonthly(t *testing.T) {
	repos, f := newFakes()
	d, in, _ := testDeps(repos)
	svc := NewMarketFeeService(d)
	now := time.Date(2024, 5, 1, 0, 5, 0, 0, time.UTC)
	fee := model.MarketFee{ID: model.NewID(), MarketID: model.NewID(), Name: "Rent", Amount: 500000, PaymentDay: 10, Status: model.FeeActive}
	paid := model.Store{ID: model.NewID(), SellerID: "s1"}
	fresh := model.Store{ID: model.NewID(), SellerID: "s2"}

	f.marketFees.On("FindMany", ctxArg, repository.Filter{"status": model.FeeActive}).Return([]model.MarketFee{fee}, nil)
	f.stores.On("FindMany", ctxArg, repository.Filter{"market_id": fee.MarketID, "status": model.StoreOpen}).Return([]model.Store{paid, fresh}, nil)
	f.feePayments.On("Create", ctxArg, mock.MatchedBy(func(p *model.MarketFeePayment) bool { return p.StoreID == paid.ID })).Return(duplicateKey())
	f.feePayments.On("Create", ctxArg, mock.MatchedBy(func(p *model.MarketFeePayment) bool {
		return p.StoreID == fresh.ID && p.Period == "2024-05" && p.Amount == 500000 &&
			p.DueDate.Equal(time.Date(2024, 5, 10, 23, 59, 59, 0, time.UTC)) && p.Status == model.FeePaymentPending
	})).Return(nil)

	n, err := svc.GenerateMonthly(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, in.to("s1"))
	assert.Len(t, in.to("s2"), 1)
}

func TestMarketFee_GenerateMonthly_StoreError(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	f.marketFees.On("FindMany", ctxArg, mock.Anything).Return([]model.MarketFee{{ID: model.NewID(), PaymentDay: 1}}, nil)
	f.stores.On("FindMany", ctxArg, mock.Anything).Return(nil, errors.New("mongo down"))

	_, err := NewMarketFeeService(d).GenerateMonthly(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestMarketFee_MarkPaid(t *testing.T) {
	repos, f := newFakes()
	d, in, _ := testDeps(repos)
	svc := NewMarketFeeService(d)
	done := &model.MarketFeePayment{ID: model.NewID(), Status: model.FeePaymentCompleted}
	late := &model.MarketFeePayment{ID: model.NewID(), SellerID: "s1", Status: model.FeePaymentOverdue}
	f.feePayments.On("FindByID", ctxArg, done.ID).Return(done, nil)
	f.feePayments.On("FindByID", ctxArg, late.ID).Return(late, nil)
	f.feePayments.On("Update", ctxArg, late.ID, mock.MatchedBy(func(fl repository.Filter) bool {
		return fl["status"] == model.FeePaymentCompleted
	})).Return(nil)
	admin := Actor{UserID: "a", Role: model.RoleAdmin}

	assert.ErrorIs(t, svc.MarkPaid(context.Background(), admin, done.ID), ErrInvalidState)
	require.NoError(t, svc.MarkPaid(context.Background(), admin, late.ID))
	assert.Len(t, in.to("s1"), 1)
}

func TestMarketFee_Payments_PeriodFormat(t *testing.T) {
	repos, _ := newFakes()
	d, _, _ := testDeps(repos)

	_, err := NewMarketFeeService(d).Payments(context.Background(), FeePaymentFilter{Period: "May 2024"}, Page{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
