package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"localmart/internal/model"
	"localmart/internal/repository"
)

// Loyalty scoring weights.
const (
	pointsPerCompletedOrder = 10
	pointsPerActiveReview   = 2
	penaltyPerBuyerCancel   = 5
	spendPerPoint           = 100000
)

type LoyaltyView struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
	Tier   string `json:"tier"`
}

// LoyaltyScore computes a buyer's score from their orders and the number of active reviews they wrote.
func LoyaltyScore(buyerID string, orders []model.Order, activeReviews int) int {
	score := activeReviews * pointsPerActiveReview
	spend := decimal.Zero
	for _, o := range orders {
		switch o.Status {
		case model.OrderCompleted:
			score += pointsPerCompletedOrder
			spend = spend.Add(decimal.NewFromInt(o.TotalAmount))
		case model.OrderCancelled:
			if o.CancelledBy == buyerID {
				score -= penaltyPerBuyerCancel
			}
		}
	}
	score += int(spend.Div(decimal.NewFromInt(spendPerPoint)).IntPart())
	if score < 0 {
		return 0
	}
	return score
}

// LoyaltyTier maps a score to its tier.
func LoyaltyTier(score int) string {
	switch {
	case score >= 700:
		return model.TierPlatinum
	case score >= 300:
		return model.TierGold
	case score >= 100:
		return model.TierSilver
	default:
		return model.TierBronze
	}
}

// LoyaltyService recomputes and stores loyalty scores.
type LoyaltyService interface {
	Recompute(ctx context.Context, userID string) (*LoyaltyView, error)
}

type loyaltyService struct {
	repos *repository.Repos
}

func NewLoyaltyService(d Deps) LoyaltyService {
	return &loyaltyService{repos: d.Repos}
}

func (s *loyaltyService) Recompute(ctx context.Context, userID string) (*LoyaltyView, error) {
	u, err := lookup(ctx, s.repos.Users, userID, "user")
	if err != nil {
		return nil, err
	}
	orders, err := s.repos.Orders.FindMany(ctx, repository.Filter{
		"buyer_id": userID,
		"status":   repository.Filter{"$in": []model.OrderStatus{model.OrderCompleted, model.OrderCancelled}},
	})
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	reviews, err := s.repos.Reviews.Count(ctx, repository.Filter{"user_id": userID, "status": model.ReviewActive})
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	score := LoyaltyScore(userID, orders, int(reviews))
	tier := LoyaltyTier(score)
	if score != u.LoyaltyScore || tier != u.LoyaltyTier {
		if err := s.repos.Users.Update(ctx, userID, repository.Filter{
			"loyalty_score": score,
			"loyalty_tier":  tier,
			"updated_at":    model.Now(),
		}); err != nil {
			return nil, fmt.Errorf("store loyalty: %w", err)
		}
	}
	return &LoyaltyView{UserID: userID, Score: score, Tier: tier}, nil
}
