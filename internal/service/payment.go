package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/payment"
	"localmart/internal/repository"
)

// PaymentInit is returned when a gateway payment is started.
type PaymentInit struct {
	TxnRef     string `json:"txn_ref"`
	Amount     int64  `json:"amount"`
	PaymentURL string `json:"payment_url"`
}

// CallbackResult is the outcome of a gateway callback in the gateway's own codes.
type CallbackResult struct {
	Code    string                    `json:"RspCode"`
	Message string                    `json:"Message"`
	Txn     *model.PaymentTransaction `json:"-"`
}

type PaymentService interface {
	PayOrder(ctx context.Context, actor Actor, orderID, clientIP string) (*PaymentInit, error)
	PayMarketFee(ctx context.Context, actor Actor, feePaymentID, clientIP string) (*PaymentInit, error)
	// HandleCallback verifies and applies a gateway callback. Repeated callbacks for the
	// same transaction are answered without changing anything.
	HandleCallback(ctx context.Context, params url.Values) *CallbackResult
	History(ctx context.Context, userID string, p Page) (*ListResult[model.PaymentTransaction], error)
}

type paymentService struct {
	orderFlow
	ledger  repository.PaymentLedger
	gateway payment.Gateway
}

func NewPaymentService(d Deps) PaymentService {
	return &paymentService{orderFlow: newOrderFlow(d), ledger: d.Ledger, gateway: d.Gateway}
}

func (s *paymentService) available() error {
	if s.gateway == nil || s.ledger == nil {
		return badState("online payments are not available")
	}
	return nil
}

func (s *paymentService) start(ctx context.Context, purpose, refID, userID, info, clientIP string, amount int64) (*PaymentInit, error) {
	now := model.Now()
	txn, err := s.ledger.Create(ctx, &model.PaymentTransaction{
		TxnRef:      payment.NewTxnRef(now, uuid.NewString()),
		Purpose:     purpose,
		ReferenceID: refID,
		UserID:      userID,
		Amount:      amount,
		Provider:    payment.Provider,
		Status:      model.TxnPending,
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	u, err := s.gateway.PaymentURL(payment.Request{
		TxnRef:    txn.TxnRef,
		Amount:    amount,
		OrderInfo: info,
		IPAddr:    clientIP,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("build payment url: %w", err)
	}
	return &PaymentInit{TxnRef: txn.TxnRef, Amount: amount, PaymentURL: u}, nil
}

func (s *paymentService) PayOrder(ctx context.Context, actor Actor, orderID, clientIP string) (*PaymentInit, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	o, err := lookup(ctx, s.repos.Orders, orderID, "order")
	if err != nil {
		return nil, err
	}
	if o.BuyerID != actor.UserID {
		return nil, forbidden("only the buyer can pay for the order")
	}
	if o.PaymentStatus == model.PaymentPaid {
		return nil, badState("order is already paid")
	}
	prepay := o.Status == model.OrderPending && o.PaymentMethod == model.PaymentMethodVNPay
	if o.Status != model.OrderConfirmed && !prepay {
		return nil, badState("order is %s", o.Status)
	}
	return s.start(ctx, model.PurposeOrder, o.ID, actor.UserID, "Payment for order "+o.ID, clientIP, o.TotalAmount)
}

func (s *paymentService) PayMarketFee(ctx context.Context, actor Actor, feePaymentID, clientIP string) (*PaymentInit, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	fp, err := lookup(ctx, s.repos.FeePayments, feePaymentID, "fee payment")
	if err != nil {
		return nil, err
	}
	if fp.SellerID != actor.UserID {
		return nil, forbidden("not your fee payment")
	}
	if fp.Status != model.FeePaymentPending && fp.Status != model.FeePaymentOverdue {
		return nil, badState("fee payment is %s", fp.Status)
	}
	info := fmt.Sprintf("Market fee %s for %s", fp.FeeName, fp.Period)
	return s.start(ctx, model.PurposeMarketFee, fp.ID, actor.UserID, info, clientIP, fp.Amount)
}

func (s *paymentService) HandleCallback(ctx context.Context, params url.Values) *CallbackResult {
	if err := s.available(); err != nil {
		return &CallbackResult{Code: payment.IPNUnknownError, Message: "Payments disabled"}
	}
	res, err := s.gateway.Verify(params)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return &CallbackResult{Code: payment.IPNInvalidSignature, Message: "Invalid signature"}
		}
		if errors.Is(err, payment.ErrInvalidAmount) {
			return &CallbackResult{Code: payment.IPNInvalidAmount, Message: "Invalid amount"}
		}
		return &CallbackResult{Code: payment.IPNUnknownError, Message: "Invalid request"}
	}
	txn, err := s.ledger.FindByTxnRef(ctx, res.TxnRef)
	if err != nil {
		if isNotFound(err) {
			return &CallbackResult{Code: payment.IPNOrderNotFound, Message: "Order not found"}
		}
		s.log.Error("payments", "ledger_lookup_failed", err, map[string]any{"txn_ref": res.TxnRef})
		return &CallbackResult{Code: payment.IPNUnknownError, Message: "Unknown error"}
	}
	if txn.Amount != res.Amount {
		return &CallbackResult{Code: payment.IPNInvalidAmount, Message: "Invalid amount", Txn: txn}
	}
	if txn.Status != model.TxnPending {
		return &CallbackResult{Code: payment.IPNAlreadyConfirmed, Message: "Order already confirmed", Txn: txn}
	}

	txn.Status = model.TxnFailed
	if res.Success {
		txn.Status = model.TxnSucceeded
	}
	txn.ProviderTxnNo = res.TransactionNo
	txn.BankCode = res.BankCode
	txn.ResponseCode = res.ResponseCode
	changed, err := s.ledger.Finalize(ctx, txn)
	if err != nil {
		s.log.Error("payments", "ledger_finalize_failed", err, map[string]any{"txn_ref": txn.TxnRef})
		return &CallbackResult{Code: payment.IPNUnknownError, Message: "Unknown error", Txn: txn}
	}
	if !changed {
		return &CallbackResult{Code: payment.IPNAlreadyConfirmed, Message: "Order already confirmed", Txn: txn}
	}

	s.log.Info("payments", "payment_finalized", map[string]any{
		"txn_ref":       txn.TxnRef,
		"purpose":       txn.Purpose,
		"reference_id":  txn.ReferenceID,
		"payment_state": txn.Status,
		"response_code": txn.ResponseCode,
	})
	switch {
	case res.Success:
		if err := s.apply(ctx, txn); errors.Is(err, ErrInvalidState) {
			s.refund(ctx, txn, err)
		} else if err != nil {
			s.log.Error("payments", "payment_apply_failed", err, map[string]any{"txn_ref": txn.TxnRef})
		}
	case txn.Purpose == model.PurposeOrder:
		s.orderPaymentFailed(ctx, txn.ReferenceID)
	}
	return &CallbackResult{Code: payment.IPNConfirmed, Message: "Confirm Success", Txn: txn}
}

// apply marks the paid target once the ledger records success.
func (s *paymentService) apply(ctx context.Context, txn *model.PaymentTransaction) error {
	switch txn.Purpose {
	case model.PurposeOrder:
		return s.orderPaid(ctx, txn.ReferenceID)
	case model.PurposeMarketFee:
		return s.feePaid(ctx, txn.ReferenceID)
	}
	return fmt.Errorf("unknown payment purpose %q", txn.Purpose)
}

func (s *paymentService) orderPaid(ctx context.Context, orderID string) error {
	var o *model.Order
	var err error
	// One re-read covers a buyer or seller action landing between the read and the write.
	for attempt := 0; attempt < 2; attempt++ {
		if o, err = s.repos.Orders.FindByID(ctx, orderID); err != nil {
			return err
		}
		err = s.move(ctx, o, model.OrderPaid, "", repository.Filter{"payment_status": model.PaymentPaid})
		if !errors.Is(err, ErrConflict) {
			break
		}
	}
	if err != nil {
		return err
	}
	if o.ProxyRequestID != "" {
		if _, err := s.repos.ProxyRequests.UpdateMany(ctx,
			repository.Filter{"_id": o.ProxyRequestID, "status": model.ProxyAwaitingPayment},
			repository.Filter{"status": model.ProxyInProgress, "updated_at": model.Now()}); err != nil {
			return fmt.Errorf("start proxy request: %w", err)
		}
	}
	s.notifyParty(ctx, o, o.BuyerID, "Order paid", fmt.Sprintf("Order %s was paid online.", o.ID))
	return nil
}

func (s *paymentService) feePaid(ctx context.Context, feePaymentID string) error {
	now := model.Now()
	n, err := s.repos.FeePayments.UpdateMany(ctx,
		repository.Filter{"_id": feePaymentID, "status": repository.Filter{"$in": []string{model.FeePaymentPending, model.FeePaymentOverdue}}},
		repository.Filter{"status": model.FeePaymentCompleted, "paid_at": now, "updated_at": now})
	if err != nil {
		return err
	}
	if n == 0 {
		return badState("fee payment %s is not payable", feePaymentID)
	}
	fp, err := s.repos.FeePayments.FindByID(ctx, feePaymentID)
	if err != nil {
		return err
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      fp.SellerID,
		Title:       "Market fee paid",
		Message:     fmt.Sprintf("%s for %s was paid.", fp.FeeName, fp.Period),
		Type:        model.NotifyFee,
		ReferenceID: fp.ID,
	})
	return nil
}

// orderPaymentFailed records a declined attempt on an order that is still unpaid.
// The buyer may start another payment afterwards.
func (s *paymentService) orderPaymentFailed(ctx context.Context, orderID string) {
	_, err := s.repos.Orders.UpdateMany(ctx,
		repository.Filter{"_id": orderID, "payment_status": model.PaymentPending},
		repository.Filter{"payment_status": model.PaymentFailed, "updated_at": model.Now()})
	if err != nil {
		s.log.Error("payments", "order_payment_failed_update", err, map[string]any{"order_id": orderID})
	}
}

// refund flags money the gateway captured for a target that can no longer accept it,
// such as an order cancelled while the buyer was at the gateway. The refund itself is
// settled outside the system.
func (s *paymentService) refund(ctx context.Context, txn *model.PaymentTransaction, cause error) {
	s.log.Warn("payments", "refund_required", cause, map[string]any{
		"txn_ref":      txn.TxnRef,
		"purpose":      txn.Purpose,
		"reference_id": txn.ReferenceID,
		"amount":       txn.Amount,
	})
	if _, err := s.ledger.MarkRefundPending(ctx, txn.TxnRef); err != nil {
		s.log.Error("payments", "ledger_refund_flag_failed", err, map[string]any{"txn_ref": txn.TxnRef})
	} else {
		txn.Status = model.TxnRefundPending
	}

	notifyType := model.NotifyFee
	if txn.Purpose == model.PurposeOrder {
		notifyType = model.NotifyOrder
		// An order already paid by another transaction keeps its Paid status.
		if _, err := s.repos.Orders.UpdateMany(ctx,
			repository.Filter{"_id": txn.ReferenceID, "payment_status": repository.Filter{"$ne": model.PaymentPaid}},
			repository.Filter{"payment_status": model.PaymentRefunded, "updated_at": model.Now()}); err != nil {
			s.log.Error("payments", "order_refund_flag_failed", err, map[string]any{"order_id": txn.ReferenceID})
		}
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      txn.UserID,
		Title:       "Refund pending",
		Message:     fmt.Sprintf("Payment %s could not be applied and will be refunded.", txn.TxnRef),
		Type:        notifyType,
		ReferenceID: txn.ReferenceID,
	})
}

func (s *paymentService) History(ctx context.Context, userID string, p Page) (*ListResult[model.PaymentTransaction], error) {
	if s.ledger == nil {
		return &ListResult[model.PaymentTransaction]{Items: []model.PaymentTransaction{}}, nil
	}
	pq := p.query("created_at", false)
	res, err := s.ledger.ListByUser(ctx, userID, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}
