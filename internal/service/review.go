package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	"localmart/internal/cache"
	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/repository"
)

type ReviewInput struct {
	OrderID    string `json:"order_id" validate:"required"`
	TargetType string `json:"target_type" validate:"required,oneof=Product Store"`
	TargetID   string `json:"target_id"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	Comment    string `json:"comment" validate:"omitempty,max=2000"`
}

type ReviewUpdateInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

type ReviewService interface {
	Create(ctx context.Context, userID string, in ReviewInput) (*model.Review, error)
	ForTarget(ctx context.Context, targetType, targetID string, p Page) (*ListResult[model.Review], error)
	Update(ctx context.Context, userID, id string, in ReviewUpdateInput) (*model.Review, error)
	// Delete hides the review; the author or an admin may do it.
	Delete(ctx context.Context, actor Actor, id string) error
	Respond(ctx context.Context, sellerID, id, response string) (*model.Review, error)
}

type reviewService struct {
	repos *repository.Repos
	cache cache.Store
	log   *logx.Logger
}

func NewReviewService(d Deps) ReviewService {
	return &reviewService{repos: d.Repos, cache: d.Cache, log: d.logger()}
}

func (s *reviewService) Create(ctx context.Context, userID string, in ReviewInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	o, err := lookup(ctx, s.repos.Orders, in.OrderID, "order")
	if err != nil {
		return nil, err
	}
	if o.BuyerID != userID {
		return nil, forbidden("not your order")
	}
	if o.Status != model.OrderCompleted {
		return nil, badState("only completed orders can be reviewed")
	}

	switch in.TargetType {
	case model.TargetProduct:
		if !o.HasProduct(in.TargetID) {
			return nil, invalid("product is not part of this order")
		}
	case model.TargetStore:
		if o.StoreID == "" {
			return nil, invalid("order has no store")
		}
		if in.TargetID != "" && in.TargetID != o.StoreID {
			return nil, invalid("store does not match the order")
		}
		in.TargetID = o.StoreID
	default:
		return nil, invalid("target_type must be Product or Store")
	}

	now := model.Now()
	r := &model.Review{
		ID:         model.NewID(),
		UserID:     userID,
		OrderID:    o.ID,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
		Status:     model.ReviewActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repos.Reviews.Create(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, conflict("this order was already reviewed for the target")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	if err := s.recompute(ctx, r.TargetType, r.TargetID); err != nil {
		return nil, err
	}
	return r, nil
}

// recompute refreshes the rating average and count on the reviewed record.
func (s *reviewService) recompute(ctx context.Context, targetType, targetID string) error {
	reviews, err := s.repos.Reviews.FindMany(ctx, repository.Filter{
		"target_type": targetType,
		"target_id":   targetID,
		"status":      model.ReviewActive,
	})
	if err != nil {
		return err
	}
	avg := 0.0
	if len(reviews) > 0 {
		sum := decimal.Zero
		for _, r := range reviews {
			sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
		}
		avg, _ = sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2).Float64()
	}
	fields := repository.Filter{"rating": avg, "review_count": len(reviews)}
	switch targetType {
	case model.TargetProduct:
		err = s.repos.Products.Update(ctx, targetID, fields)
		if err == nil {
			evictProduct(ctx, s.cache, s.log, targetID)
		}
	case model.TargetStore:
		err = s.repos.Stores.Update(ctx, targetID, fields)
	}
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return nil
}

func (s *reviewService) ForTarget(ctx context.Context, targetType, targetID string, p Page) (*ListResult[model.Review], error) {
	pq := p.query("created_at", false)
	res, err := s.repos.Reviews.List(ctx, repository.Filter{
		"target_type": targetType,
		"target_id":   targetID,
		"status":      model.ReviewActive,
	}, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *reviewService) Update(ctx context.Context, userID, id string, in ReviewUpdateInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	r, err := lookup(ctx, s.repos.Reviews, id, "review")
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, forbidden("not your review")
	}
	if r.Status != model.ReviewActive {
		return nil, notFound("review")
	}
	r.Rating = in.Rating
	r.Comment = strings.TrimSpace(in.Comment)
	r.UpdatedAt = model.Now()
	if err := s.repos.Reviews.Update(ctx, id, repository.Filter{
		"rating":     r.Rating,
		"comment":    r.Comment,
		"updated_at": r.UpdatedAt,
	}); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if err := s.recompute(ctx, r.TargetType, r.TargetID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *reviewService) Delete(ctx context.Context, actor Actor, id string) error {
	r, err := lookup(ctx, s.repos.Reviews, id, "review")
	if err != nil {
		return err
	}
	if r.UserID != actor.UserID && !actor.IsAdmin() {
		return forbidden("not your review")
	}
	if r.Status == model.ReviewHidden {
		return nil
	}
	if err := s.repos.Reviews.Update(ctx, id, repository.Filter{"status": model.ReviewHidden, "updated_at": model.Now()}); err != nil {
		return fmt.Errorf("hide review: %w", err)
	}
	return s.recompute(ctx, r.TargetType, r.TargetID)
}

func (s *reviewService) Respond(ctx context.Context, sellerID, id, response string) (*model.Review, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, invalid("response is required")
	}
	r, err := lookup(ctx, s.repos.Reviews, id, "review")
	if err != nil {
		return nil, err
	}
	owner, err := s.targetSeller(ctx, r)
	if err != nil {
		return nil, err
	}
	if owner != sellerID {
		return nil, forbidden("only the seller of the reviewed store can respond")
	}
	r.SellerResponse = response
	r.UpdatedAt = model.Now()
	if err := s.repos.Reviews.Update(ctx, id, repository.Filter{"seller_response": response, "updated_at": r.UpdatedAt}); err != nil {
		return nil, fmt.Errorf("respond to review: %w", err)
	}
	return r, nil
}

func (s *reviewService) targetSeller(ctx context.Context, r *model.Review) (string, error) {
	switch r.TargetType {
	case model.TargetProduct:
		p, err := lookup(ctx, s.repos.Products, r.TargetID, "product")
		if err != nil {
			return "", err
		}
		return p.SellerID, nil
	case model.TargetStore:
		st, err := lookup(ctx, s.repos.Stores, r.TargetID, "store")
		if err != nil {
			return "", err
		}
		return st.SellerID, nil
	}
	return "", badState("review target cannot be answered")
}
