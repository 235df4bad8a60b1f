package service

import (
	"context"
	"fmt"
	"time"

	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
)

type BargainInput struct {
	ProductID string  `json:"product_id" validate:"required"`
	Price     int64   `json:"price" validate:"gt=0"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
}

type BargainService interface {
	Create(ctx context.Context, buyerID string, in BargainInput) (*model.FastBargain, error)
	// Propose adds a counter offer. Buyer and seller must alternate.
	Propose(ctx context.Context, userID, id string, price int64) (*model.FastBargain, error)
	Accept(ctx context.Context, userID, id string) (*model.FastBargain, error)
	Reject(ctx context.Context, userID, id string) (*model.FastBargain, error)
	Cancel(ctx context.Context, buyerID, id string) (*model.FastBargain, error)
	Mine(ctx context.Context, buyerID, status string, p Page) (*ListResult[model.FastBargain], error)
	ForSeller(ctx context.Context, sellerID, status string, p Page) (*ListResult[model.FastBargain], error)
	Get(ctx context.Context, userID, id string) (*model.FastBargain, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

type bargainService struct {
	repos    *repository.Repos
	notifier notify.Notifier
	log      *logx.Logger
}

func NewBargainService(d Deps) BargainService {
	return &bargainService{repos: d.Repos, notifier: d.Notifier, log: d.logger()}
}

func (s *bargainService) tell(ctx context.Context, userID, title, msg, refID string) {
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      userID,
		Title:       title,
		Message:     msg,
		Type:        model.NotifyBargain,
		ReferenceID: refID,
	})
}

func (s *bargainService) Create(ctx context.Context, buyerID string, in BargainInput) (*model.FastBargain, error) {
	p, err := lookup(ctx, s.repos.Products, in.ProductID, "product")
	if err != nil {
		return nil, err
	}
	switch {
	case !p.Purchasable():
		return nil, badState("product is not available")
	case p.SellerID == buyerID:
		return nil, invalid("cannot bargain on your own product")
	case in.Price <= 0 || in.Price >= p.Price:
		return nil, invalid("price must be between 0 and %d", p.Price)
	case in.Quantity < p.MinimumQuantity:
		return nil, invalid("quantity must be at least %g", p.MinimumQuantity)
	}
	open, err := exists(ctx, s.repos.Bargains, repository.Filter{
		"buyer_id":   buyerID,
		"product_id": p.ID,
		"status":     model.BargainPending,
	})
	if err != nil {
		return nil, err
	}
	if open {
		return nil, conflict("a bargain on this product is already pending")
	}

	now := model.Now()
	b := &model.FastBargain{
		ID:            model.NewID(),
		ProductID:     p.ID,
		StoreID:       p.StoreID,
		SellerID:      p.SellerID,
		BuyerID:       buyerID,
		OriginalPrice: p.Price,
		Quantity:      in.Quantity,
		Proposals:     []model.BargainProposal{{UserID: buyerID, Price: in.Price, ProposedAt: now}},
		ExpiresAt:     now.Add(model.BargainTTL),
		Status:        model.BargainPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repos.Bargains.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create bargain: %w", err)
	}
	s.tell(ctx, b.SellerID, "New bargain", fmt.Sprintf("A buyer offered %d VND for %s.", in.Price, p.Name), b.ID)
	return b, nil
}

// live loads a bargain the user takes part in that is still open for moves.
func (s *bargainService) live(ctx context.Context, userID, id string) (*model.FastBargain, error) {
	b, err := lookup(ctx, s.repos.Bargains, id, "bargain")
	if err != nil {
		return nil, err
	}
	if b.BuyerID != userID && b.SellerID != userID {
		return nil, forbidden("not a party to this bargain")
	}
	if b.Status != model.BargainPending {
		return nil, badState("bargain is %s", b.Status)
	}
	if !model.Now().Before(b.ExpiresAt) {
		return nil, badState("bargain has expired")
	}
	return b, nil
}

// counterParty returns the user on the other side of userID.
func counterParty(b *model.FastBargain, userID string) string {
	if userID == b.BuyerID {
		return b.SellerID
	}
	return b.BuyerID
}

func (s *bargainService) Propose(ctx context.Context, userID, id string, price int64) (*model.FastBargain, error) {
	b, err := s.live(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if last := b.LastProposal(); last != nil && last.UserID == userID {
		return nil, badState("wait for the other party to respond")
	}
	if price <= 0 || price >= b.OriginalPrice {
		return nil, invalid("price must be between 0 and %d", b.OriginalPrice)
	}
	if userID == b.BuyerID && b.BuyerProposalCount() >= model.MaxBuyerProposals {
		return nil, badState("buyer may propose at most %d times", model.MaxBuyerProposals)
	}

	now := model.Now()
	proposals := append(append([]model.BargainProposal{}, b.Proposals...), model.BargainProposal{UserID: userID, Price: price, ProposedAt: now})
	if err := s.update(ctx, b, repository.Filter{"proposals": proposals, "updated_at": now}); err != nil {
		return nil, err
	}
	b.Proposals = proposals
	b.UpdatedAt = now
	s.tell(ctx, counterParty(b, userID), "New counter offer", fmt.Sprintf("Counter offer: %d VND.", price), b.ID)
	return b, nil
}

// update writes to the bargain only while it is still Pending.
func (s *bargainService) update(ctx context.Context, b *model.FastBargain, fields repository.Filter) error {
	n, err := s.repos.Bargains.UpdateMany(ctx, repository.Filter{"_id": b.ID, "status": model.BargainPending}, fields)
	if err != nil {
		return fmt.Errorf("update bargain: %w", err)
	}
	if n == 0 {
		return conflict("bargain was modified concurrently")
	}
	return nil
}

func (s *bargainService) respond(ctx context.Context, userID, id string, to model.BargainStatus) (*model.FastBargain, error) {
	b, err := s.live(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	last := b.LastProposal()
	if last == nil || last.UserID == userID {
		return nil, badState("only the other party can answer the last offer")
	}
	now := model.Now()
	fields := repository.Filter{"status": to, "updated_at": now}
	if to == model.BargainAccepted {
		fields["final_price"] = last.Price
	}
	if err := s.update(ctx, b, fields); err != nil {
		return nil, err
	}
	b.Status = to
	b.UpdatedAt = now
	if to == model.BargainAccepted {
		b.FinalPrice = last.Price
	}
	s.tell(ctx, last.UserID, "Bargain "+string(to), fmt.Sprintf("Your offer of %d VND was %s.", last.Price, to), b.ID)
	return b, nil
}

func (s *bargainService) Accept(ctx context.Context, userID, id string) (*model.FastBargain, error) {
	return s.respond(ctx, userID, id, model.BargainAccepted)
}

func (s *bargainService) Reject(ctx context.Context, userID, id string) (*model.FastBargain, error) {
	return s.respond(ctx, userID, id, model.BargainRejected)
}

func (s *bargainService) Cancel(ctx context.Context, buyerID, id string) (*model.FastBargain, error) {
	b, err := lookup(ctx, s.repos.Bargains, id, "bargain")
	if err != nil {
		return nil, err
	}
	if b.BuyerID != buyerID {
		return nil, forbidden("only the buyer can cancel")
	}
	if b.Status != model.BargainPending {
		return nil, badState("bargain is %s", b.Status)
	}
	now := model.Now()
	if err := s.update(ctx, b, repository.Filter{"status": model.BargainCancelled, "updated_at": now}); err != nil {
		return nil, err
	}
	b.Status = model.BargainCancelled
	b.UpdatedAt = now
	return b, nil
}

func (s *bargainService) list(ctx context.Context, f repository.Filter, status string, p Page) (*ListResult[model.FastBargain], error) {
	if status != "" {
		f["status"] = status
	}
	pq := p.query("created_at", false)
	res, err := s.repos.Bargains.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *bargainService) Mine(ctx context.Context, buyerID, status string, p Page) (*ListResult[model.FastBargain], error) {
	return s.list(ctx, repository.Filter{"buyer_id": buyerID}, status, p)
}

func (s *bargainService) ForSeller(ctx context.Context, sellerID, status string, p Page) (*ListResult[model.FastBargain], error) {
	return s.list(ctx, repository.Filter{"seller_id": sellerID}, status, p)
}

func (s *bargainService) Get(ctx context.Context, userID, id string) (*model.FastBargain, error) {
	b, err := lookup(ctx, s.repos.Bargains, id, "bargain")
	if err != nil {
		return nil, err
	}
	if b.BuyerID != userID && b.SellerID != userID {
		return nil, forbidden("not a party to this bargain")
	}
	return b, nil
}

func (s *bargainService) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	return s.repos.Bargains.UpdateMany(ctx,
		repository.Filter{"status": model.BargainPending, "expires_at": repository.Filter{"$lte": now}},
		repository.Filter{"status": model.BargainExpired, "updated_at": now})
}
