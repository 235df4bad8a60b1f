package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"localmart/internal/events"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
	"localmart/internal/storage"
)

type ProxyRequestInput struct {
	MarketID        string                   `json:"market_id" validate:"required"`
	Items           []model.ProxyRequestItem `json:"items" validate:"required,min=1,max=20,dive"`
	DeliveryAddress string                   `json:"delivery_address" validate:"required,max=255"`
	Note            string                   `json:"note" validate:"omitempty,max=1000"`
}

type ProposalItemInput struct {
	ProductID string  `json:"product_id" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
}

type ProposalInput struct {
	Items    []ProposalItemInput `json:"items" validate:"required,min=1,max=20,dive"`
	ProxyFee int64               `json:"proxy_fee" validate:"gte=0"`
	Note     string              `json:"note" validate:"omitempty,max=1000"`
}

// ProxyService runs the proxy shopping negotiation on a single request document.
type ProxyService interface {
	Create(ctx context.Context, buyerID string, in ProxyRequestInput) (*model.ProxyRequest, error)
	Mine(ctx context.Context, buyerID, status string, p Page) (*ListResult[model.ProxyRequest], error)
	Available(ctx context.Context, marketID string, p Page) (*ListResult[model.ProxyRequest], error)
	Assigned(ctx context.Context, proxyID, status string, p Page) (*ListResult[model.ProxyRequest], error)
	Get(ctx context.Context, actor Actor, id string) (*model.ProxyRequest, error)
	Accept(ctx context.Context, proxyID, id string) (*model.ProxyRequest, error)
	Propose(ctx context.Context, proxyID, id string, in ProposalInput) (*model.ProxyRequest, error)
	RejectProposal(ctx context.Context, buyerID, id, reason string) (*model.ProxyRequest, error)
	// ApproveProposal creates the order the buyer pays through the payments flow.
	ApproveProposal(ctx context.Context, buyerID, id string) (*model.Order, error)
	Start(ctx context.Context, proxyID, id string) (*model.ProxyRequest, error)
	Complete(ctx context.Context, proxyID, id string, proof *Upload) (*model.ProxyRequest, error)
	Cancel(ctx context.Context, actor Actor, id, reason string) (*model.ProxyRequest, error)
	// ExpireOpen marks requests nobody accepted in time as Expired.
	ExpireOpen(ctx context.Context, now time.Time) (int64, error)
}

type proxyService struct {
	orderFlow
	storage storage.Storage
}

func NewProxyService(d Deps) ProxyService {
	st := d.Storage
	if st == nil {
		st = storage.Disabled()
	}
	return &proxyService{orderFlow: newOrderFlow(d), storage: st}
}

// swap moves r from its current status only if nobody changed it meanwhile.
func (s *proxyService) swap(ctx context.Context, r *model.ProxyRequest, to model.ProxyStatus, fields repository.Filter) error {
	now := model.Now()
	set := repository.Filter{"status": to, "updated_at": now}
	for k, v := range fields {
		set[k] = v
	}
	n, err := s.repos.ProxyRequests.UpdateMany(ctx, repository.Filter{"_id": r.ID, "status": r.Status}, set)
	if err != nil {
		return fmt.Errorf("update proxy request: %w", err)
	}
	if n == 0 {
		return conflict("proxy request was modified concurrently")
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

func (s *proxyService) tell(ctx context.Context, userID, title, msg, refID string) {
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      userID,
		Title:       title,
		Message:     msg,
		Type:        model.NotifyProxy,
		ReferenceID: refID,
	})
}

func (s *proxyService) Create(ctx context.Context, buyerID string, in ProxyRequestInput) (*model.ProxyRequest, error) {
	if len(in.Items) == 0 || len(in.Items) > model.MaxProxyItems {
		return nil, invalid("a request needs between 1 and %d items", model.MaxProxyItems)
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.Name) == "" || strings.TrimSpace(it.Unit) == "" || it.Quantity <= 0 {
			return nil, invalid("every item needs a name, a unit and a positive quantity")
		}
	}
	m, err := lookup(ctx, s.repos.Markets, in.MarketID, "market")
	if err != nil {
		return nil, err
	}
	if m.Status != model.MarketActive {
		return nil, badState("market is not active")
	}
	now := model.Now()
	r := &model.ProxyRequest{
		ID:              model.NewID(),
		BuyerID:         buyerID,
		MarketID:        m.ID,
		Items:           in.Items,
		DeliveryAddress: in.DeliveryAddress,
		Note:            in.Note,
		Status:          model.ProxyOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repos.ProxyRequests.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create proxy request: %w", err)
	}
	return r, nil
}

func (s *proxyService) list(ctx context.Context, f repository.Filter, p Page) (*ListResult[model.ProxyRequest], error) {
	pq := p.query("created_at", false)
	res, err := s.repos.ProxyRequests.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *proxyService) Mine(ctx context.Context, buyerID, status string, p Page) (*ListResult[model.ProxyRequest], error) {
	f := repository.Filter{"buyer_id": buyerID}
	if status != "" {
		f["status"] = status
	}
	return s.list(ctx, f, p)
}

func (s *proxyService) Available(ctx context.Context, marketID string, p Page) (*ListResult[model.ProxyRequest], error) {
	f := repository.Filter{"status": model.ProxyOpen}
	if marketID != "" {
		f["market_id"] = marketID
	}
	return s.list(ctx, f, p)
}

func (s *proxyService) Assigned(ctx context.Context, proxyID, status string, p Page) (*ListResult[model.ProxyRequest], error) {
	f := repository.Filter{"proxy_shopper_id": proxyID}
	if status != "" {
		f["status"] = status
	}
	return s.list(ctx, f, p)
}

func (s *proxyService) Get(ctx context.Context, actor Actor, id string) (*model.ProxyRequest, error) {
	r, err := lookup(ctx, s.repos.ProxyRequests, id, "proxy request")
	if err != nil {
		return nil, err
	}
	visible := r.BuyerID == actor.UserID || r.ProxyShopperID == actor.UserID || actor.IsAdmin() ||
		(r.Status == model.ProxyOpen && actor.Role == model.RoleProxyShopper)
	if !visible {
		return nil, forbidden("not a party to this request")
	}
	return r, nil
}

func (s *proxyService) assigned(ctx context.Context, proxyID, id string) (*model.ProxyRequest, error) {
	r, err := lookup(ctx, s.repos.ProxyRequests, id, "proxy request")
	if err != nil {
		return nil, err
	}
	if r.ProxyShopperID != proxyID {
		return nil, forbidden("request is not assigned to you")
	}
	return r, nil
}

func (s *proxyService) owned(ctx context.Context, buyerID, id string) (*model.ProxyRequest, error) {
	r, err := lookup(ctx, s.repos.ProxyRequests, id, "proxy request")
	if err != nil {
		return nil, err
	}
	if r.BuyerID != buyerID {
		return nil, forbidden("not your request")
	}
	return r, nil
}

func (s *proxyService) Accept(ctx context.Context, proxyID, id string) (*model.ProxyRequest, error) {
	r, err := lookup(ctx, s.repos.ProxyRequests, id, "proxy request")
	if err != nil {
		return nil, err
	}
	if r.BuyerID == proxyID {
		return nil, invalid("cannot accept your own request")
	}
	if r.Status != model.ProxyOpen {
		return nil, badState("request is %s", r.Status)
	}
	if err := s.swap(ctx, r, model.ProxyAccepted, repository.Filter{"proxy_shopper_id": proxyID}); err != nil {
		return nil, err
	}
	r.ProxyShopperID = proxyID
	s.tell(ctx, r.BuyerID, "Proxy request accepted", "A proxy shopper accepted your request.", r.ID)
	return r, nil
}

func (s *proxyService) Propose(ctx context.Context, proxyID, id string, in ProposalInput) (*model.ProxyRequest, error) {
	if len(in.Items) == 0 || len(in.Items) > model.MaxProxyItems {
		return nil, invalid("a proposal needs between 1 and %d items", model.MaxProxyItems)
	}
	if in.ProxyFee < 0 {
		return nil, invalid("proxy_fee cannot be negative")
	}
	r, err := s.assigned(ctx, proxyID, id)
	if err != nil {
		return nil, err
	}
	if r.Status != model.ProxyAccepted {
		return nil, badState("request is %s", r.Status)
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	subtotals := make([]int64, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, invalid("quantity must be greater than zero")
		}
		p, err := lookup(ctx, s.repos.Products, it.ProductID, "product")
		if err != nil {
			return nil, err
		}
		if !p.Purchasable() || p.MarketID != r.MarketID {
			return nil, invalid("product %q is not available in this market", p.Name)
		}
		sub := lineTotal(p.Price, it.Quantity)
		items = append(items, model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Unit:      p.Unit,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			Subtotal:  sub,
		})
		subtotals = append(subtotals, sub)
	}
	productTotal := sumAmounts(subtotals...)
	if !withinPercent(in.ProxyFee, productTotal, model.MaxProxyFeePercent) {
		return nil, invalid("proxy_fee cannot exceed %d%% of the product total", model.MaxProxyFeePercent)
	}
	proposal := &model.ProxyProposal{
		Items:        items,
		ProductTotal: productTotal,
		ProxyFee:     in.ProxyFee,
		TotalAmount:  sumAmounts(productTotal, in.ProxyFee),
		Note:         in.Note,
		ProposedAt:   model.Now(),
	}
	if err := s.swap(ctx, r, model.ProxyProposed, repository.Filter{"proposal": proposal, "reject_reason": ""}); err != nil {
		return nil, err
	}
	r.Proposal = proposal
	r.RejectReason = ""
	s.tell(ctx, r.BuyerID, "New proxy proposal",
		fmt.Sprintf("Your proxy shopper proposed a total of %d VND.", proposal.TotalAmount), r.ID)
	return r, nil
}

func (s *proxyService) RejectProposal(ctx context.Context, buyerID, id, reason string) (*model.ProxyRequest, error) {
	r, err := s.owned(ctx, buyerID, id)
	if err != nil {
		return nil, err
	}
	if r.Status != model.ProxyProposed {
		return nil, badState("request is %s", r.Status)
	}
	if err := s.swap(ctx, r, model.ProxyAccepted, repository.Filter{"proposal": nil, "reject_reason": reason}); err != nil {
		return nil, err
	}
	r.Proposal = nil
	r.RejectReason = reason
	s.tell(ctx, r.ProxyShopperID, "Proposal rejected", reason, r.ID)
	return r, nil
}

func (s *proxyService) ApproveProposal(ctx context.Context, buyerID, id string) (*model.Order, error) {
	r, err := s.owned(ctx, buyerID, id)
	if err != nil {
		return nil, err
	}
	if r.Status != model.ProxyProposed || r.Proposal == nil {
		return nil, badState("request is %s", r.Status)
	}

	now := model.Now()
	o := &model.Order{
		ID:              model.NewID(),
		BuyerID:         r.BuyerID,
		SellerID:        r.ProxyShopperID,
		ProxyRequestID:  r.ID,
		Items:           r.Proposal.Items,
		TotalAmount:     r.Proposal.TotalAmount,
		DeliveryAddress: r.DeliveryAddress,
		Note:            r.Proposal.Note,
		PaymentMethod:   model.PaymentMethodVNPay,
		PaymentStatus:   model.PaymentPending,
		Status:          model.OrderConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repos.Orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create proxy order: %w", err)
	}
	if err := s.swap(ctx, r, model.ProxyAwaitingPayment, repository.Filter{"order_id": o.ID}); err != nil {
		if derr := s.repos.Orders.Delete(ctx, o.ID); derr != nil {
			s.log.Error("proxy", "orphan_order_cleanup_failed", derr, map[string]any{"order_id": o.ID, "proxy_request_id": r.ID})
		}
		return nil, err
	}
	r.OrderID = o.ID
	s.publish(ctx, events.EventOrderCreated, o, "", buyerID)
	s.tell(ctx, r.ProxyShopperID, "Proposal approved", "The buyer approved your proposal and will pay shortly.", r.ID)
	return o, nil
}

func (s *proxyService) Start(ctx context.Context, proxyID, id string) (*model.ProxyRequest, error) {
	r, err := s.assigned(ctx, proxyID, id)
	if err != nil {
		return nil, err
	}
	if r.Status == model.ProxyInProgress {
		return r, nil
	}
	if r.Status != model.ProxyAwaitingPayment {
		return nil, badState("request is %s", r.Status)
	}
	o, err := lookup(ctx, s.repos.Orders, r.OrderID, "order")
	if err != nil {
		return nil, err
	}
	if o.Status != model.OrderPaid {
		return nil, badState("order is not paid yet")
	}
	if err := s.swap(ctx, r, model.ProxyInProgress, nil); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *proxyService) Complete(ctx context.Context, proxyID, id string, proof *Upload) (*model.ProxyRequest, error) {
	r, err := s.assigned(ctx, proxyID, id)
	if err != nil {
		return nil, err
	}
	if r.Status != model.ProxyInProgress {
		return nil, badState("request is %s", r.Status)
	}
	o, err := lookup(ctx, s.repos.Orders, r.OrderID, "order")
	if err != nil {
		return nil, err
	}

	fields := repository.Filter{}
	var key string
	if proof != nil {
		key, err = putObject(ctx, s.storage, storage.KindProof, r.ID, *proof)
		if err != nil {
			return nil, err
		}
		fields["proof_image_key"] = key
	}
	if err := s.move(ctx, o, model.OrderCompleted, proxyID, nil); err != nil {
		dropObject(ctx, s.storage, s.log, key)
		return nil, err
	}
	if err := s.swap(ctx, r, model.ProxyCompleted, fields); err != nil {
		s.restore(ctx, o, model.OrderPaid)
		dropObject(ctx, s.storage, s.log, key)
		return nil, err
	}
	r.ProofImageKey = key
	s.tell(ctx, r.BuyerID, "Proxy shopping completed", "Your proxy shopper delivered the order.", r.ID)
	return r, nil
}

func (s *proxyService) Cancel(ctx context.Context, actor Actor, id, reason string) (*model.ProxyRequest, error) {
	r, err := lookup(ctx, s.repos.ProxyRequests, id, "proxy request")
	if err != nil {
		return nil, err
	}
	switch actor.UserID {
	case r.BuyerID:
		switch r.Status {
		case model.ProxyOpen, model.ProxyAccepted, model.ProxyProposed:
		default:
			return nil, badState("request is %s", r.Status)
		}
		if err := s.swap(ctx, r, model.ProxyCancelled, repository.Filter{"reject_reason": reason}); err != nil {
			return nil, err
		}
		s.tell(ctx, r.ProxyShopperID, "Proxy request cancelled", "The buyer cancelled the request.", r.ID)
	case r.ProxyShopperID:
		if r.Status != model.ProxyAccepted {
			return nil, badState("request is %s", r.Status)
		}
		if err := s.swap(ctx, r, model.ProxyOpen, repository.Filter{"proxy_shopper_id": ""}); err != nil {
			return nil, err
		}
		r.ProxyShopperID = ""
		s.tell(ctx, r.BuyerID, "Proxy shopper withdrew", "Your request is open again.", r.ID)
	default:
		return nil, forbidden("not a party to this request")
	}
	return r, nil
}

func (s *proxyService) ExpireOpen(ctx context.Context, now time.Time) (int64, error) {
	return s.repos.ProxyRequests.UpdateMany(ctx,
		repository.Filter{"status": model.ProxyOpen, "created_at": repository.Filter{"$lt": now.Add(-model.ProxyRequestTimeout)}},
		repository.Filter{"status": model.ProxyExpired, "updated_at": now})
}
