package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
)

type MarketFeeInput struct {
	MarketID    string `json:"market_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=200"`
	FeeType     string `json:"fee_type" validate:"required,max=50"`
	Amount      int64  `json:"amount" validate:"gt=0"`
	PaymentDay  int    `json:"payment_day" validate:"min=1,max=28"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

type FeePaymentFilter struct {
	MarketID string
	Status   string
	Period   string
}

// periodLayout formats billing periods such as 2024-05.
const periodLayout = "2006-01"

type MarketFeeService interface {
	ForMarket(ctx context.Context, marketID string) ([]model.MarketFee, error)
	Create(ctx context.Context, in MarketFeeInput) (*model.MarketFee, error)
	Update(ctx context.Context, id string, in MarketFeeInput) (*model.MarketFee, error)
	Delete(ctx context.Context, id string) error
	Payments(ctx context.Context, f FeePaymentFilter, p Page) (*ListResult[model.MarketFeePayment], error)
	MyPayments(ctx context.Context, sellerID string, p Page) (*ListResult[model.MarketFeePayment], error)
	// MarkPaid records a fee paid in cash at the market office.
	MarkPaid(ctx context.Context, actor Actor, id string) error
	// GenerateMonthly creates the period's Pending payment for every active fee and open
	// store, skipping pairs that already have one. It returns the number created.
	GenerateMonthly(ctx context.Context, now time.Time) (int, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type marketFeeService struct {
	repos    *repository.Repos
	notifier notify.Notifier
	log      *logx.Logger
}

func NewMarketFeeService(d Deps) MarketFeeService {
	return &marketFeeService{repos: d.Repos, notifier: d.Notifier, log: d.logger()}
}

func validateFee(in MarketFeeInput) error {
	if in.Amount <= 0 {
		return invalid("amount must be greater than zero")
	}
	if in.PaymentDay < 1 || in.PaymentDay > 28 {
		return invalid("payment_day must be between 1 and 28")
	}
	return nil
}

func (s *marketFeeService) ForMarket(ctx context.Context, marketID string) ([]model.MarketFee, error) {
	if _, err := lookup(ctx, s.repos.Markets, marketID, "market"); err != nil {
		return nil, err
	}
	return s.repos.MarketFees.FindMany(ctx, repository.Filter{"market_id": marketID})
}

func (s *marketFeeService) Create(ctx context.Context, in MarketFeeInput) (*model.MarketFee, error) {
	if err := validateFee(in); err != nil {
		return nil, err
	}
	if _, err := lookup(ctx, s.repos.Markets, in.MarketID, "market"); err != nil {
		return nil, err
	}
	now := model.Now()
	f := &model.MarketFee{
		ID:          model.NewID(),
		MarketID:    in.MarketID,
		Name:        strings.TrimSpace(in.Name),
		FeeType:     in.FeeType,
		Amount:      in.Amount,
		PaymentDay:  in.PaymentDay,
		Description: in.Description,
		Status:      model.FeeActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.MarketFees.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create market fee: %w", err)
	}
	return f, nil
}

func (s *marketFeeService) Update(ctx context.Context, id string, in MarketFeeInput) (*model.MarketFee, error) {
	if err := validateFee(in); err != nil {
		return nil, err
	}
	f, err := lookup(ctx, s.repos.MarketFees, id, "market fee")
	if err != nil {
		return nil, err
	}
	if in.MarketID != f.MarketID {
		return nil, invalid("a fee cannot move to another market")
	}
	f.Name = strings.TrimSpace(in.Name)
	f.FeeType = in.FeeType
	f.Amount = in.Amount
	f.PaymentDay = in.PaymentDay
	f.Description = in.Description
	f.UpdatedAt = model.Now()
	if err := s.repos.MarketFees.Update(ctx, id, repository.Filter{
		"name":        f.Name,
		"fee_type":    f.FeeType,
		"amount":      f.Amount,
		"payment_day": f.PaymentDay,
		"description": f.Description,
		"updated_at":  f.UpdatedAt,
	}); err != nil {
		return nil, fmt.Errorf("update market fee: %w", err)
	}
	return f, nil
}

func (s *marketFeeService) Delete(ctx context.Context, id string) error {
	if _, err := lookup(ctx, s.repos.MarketFees, id, "market fee"); err != nil {
		return err
	}
	return s.repos.MarketFees.Update(ctx, id, repository.Filter{"status": model.FeeInactive, "updated_at": model.Now()})
}

func (s *marketFeeService) Payments(ctx context.Context, f FeePaymentFilter, p Page) (*ListResult[model.MarketFeePayment], error) {
	filter := repository.Filter{}
	if f.MarketID != "" {
		filter["market_id"] = f.MarketID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Period != "" {
		if _, err := time.Parse(periodLayout, f.Period); err != nil {
			return nil, invalid("period must look like 2024-05")
		}
		filter["period"] = f.Period
	}
	pq := p.query("due_date", false)
	res, err := s.repos.FeePayments.List(ctx, filter, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *marketFeeService) MyPayments(ctx context.Context, sellerID string, p Page) (*ListResult[model.MarketFeePayment], error) {
	pq := p.query("due_date", false)
	res, err := s.repos.FeePayments.List(ctx, repository.Filter{"seller_id": sellerID}, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *marketFeeService) MarkPaid(ctx context.Context, _ Actor, id string) error {
	fp, err := lookup(ctx, s.repos.FeePayments, id, "fee payment")
	if err != nil {
		return err
	}
	if fp.Status != model.FeePaymentPending && fp.Status != model.FeePaymentOverdue {
		return badState("fee payment is %s", fp.Status)
	}
	now := model.Now()
	if err := s.repos.FeePayments.Update(ctx, id, repository.Filter{
		"status":     model.FeePaymentCompleted,
		"paid_at":    now,
		"updated_at": now,
	}); err != nil {
		return fmt.Errorf("mark fee paid: %w", err)
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      fp.SellerID,
		Title:       "Market fee paid",
		Message:     fmt.Sprintf("%s for %s was recorded as paid.", fp.FeeName, fp.Period),
		Type:        model.NotifyFee,
		ReferenceID: fp.ID,
	})
	return nil
}

func (s *marketFeeService) GenerateMonthly(ctx context.Context, now time.Time) (int, error) {
	fees, err := s.repos.MarketFees.FindMany(ctx, repository.Filter{"status": model.FeeActive})
	if err != nil {
		return 0, err
	}
	period := now.Format(periodLayout)
	created := 0
	for _, fee := range fees {
		stores, err := s.repos.Stores.FindMany(ctx, repository.Filter{"market_id": fee.MarketID, "status": model.StoreOpen})
		if err != nil {
			return created, err
		}
		due := time.Date(now.Year(), now.Month(), fee.PaymentDay, 23, 59, 59, 0, now.Location())
		for _, st := range stores {
			ts := model.Now()
			err := s.repos.FeePayments.Create(ctx, &model.MarketFeePayment{
				ID:          model.NewID(),
				MarketFeeID: fee.ID,
				MarketID:    fee.MarketID,
				StoreID:     st.ID,
				SellerID:    st.SellerID,
				FeeName:     fee.Name,
				Amount:      fee.Amount,
				Period:      period,
				DueDate:     due,
				Status:      model.FeePaymentPending,
				CreatedAt:   ts,
				UpdatedAt:   ts,
			})
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			if err != nil {
				return created, fmt.Errorf("create fee payment: %w", err)
			}
			created++
			notifyUser(ctx, s.notifier, s.log, notify.Message{
				UserID:  st.SellerID,
				Title:   "Market fee due",
				Message: fmt.Sprintf("%s of %d VND is due on %s.", fee.Name, fee.Amount, due.Format("2006-01-02")),
				Type:    model.NotifyFee,
			})
		}
	}
	return created, nil
}

func (s *marketFeeService) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	return s.repos.FeePayments.UpdateMany(ctx,
		repository.Filter{"status": model.FeePaymentPending, "due_date": repository.Filter{"$lt": now}},
		repository.Filter{"status": model.FeePaymentOverdue, "updated_at": now})
}
