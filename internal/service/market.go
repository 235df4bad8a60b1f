package service

import (
	"context"
	"fmt"
	"strings"

	"localmart/internal/model"
	"localmart/internal/repository"
)

type MarketInput struct {
	Name           string `json:"name" validate:"required,max=200"`
	Address        string `json:"address" validate:"required,max=255"`
	ContactInfo    string `json:"contact_info" validate:"omitempty,max=255"`
	OperatingHours string `json:"operating_hours" validate:"omitempty,max=100"`
	Description    string `json:"description" validate:"omitempty,max=2000"`
}

type MarketFilter struct {
	Status  string
	Keyword string
}

// MarketService manages markets and their embedded rules.
type MarketService interface {
	List(ctx context.Context, f MarketFilter, p Page) (*ListResult[model.Market], error)
	Get(ctx context.Context, id string) (*model.Market, error)
	Create(ctx context.Context, in MarketInput) (*model.Market, error)
	Update(ctx context.Context, id string, in MarketInput) (*model.Market, error)
	SetStatus(ctx context.Context, id, status string) error
	// Delete removes a market that has no open stores left.
	Delete(ctx context.Context, id string) error
	SetRules(ctx context.Context, id string, rules []model.MarketRule) (*model.Market, error)
}

type marketService struct {
	repos *repository.Repos
}

func NewMarketService(d Deps) MarketService {
	return &marketService{repos: d.Repos}
}

func (s *marketService) List(ctx context.Context, f MarketFilter, p Page) (*ListResult[model.Market], error) {
	filter := repository.Filter{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Keyword != "" {
		filter["name"] = keyword(f.Keyword)
	}
	pq := p.query("name", true)
	res, err := s.repos.Markets.List(ctx, filter, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *marketService) Get(ctx context.Context, id string) (*model.Market, error) {
	return lookup(ctx, s.repos.Markets, id, "market")
}

func (s *marketService) nameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	f := repository.Filter{"name": name}
	if exceptID != "" {
		f["_id"] = repository.Filter{"$ne": exceptID}
	}
	return exists(ctx, s.repos.Markets, f)
}

func (s *marketService) Create(ctx context.Context, in MarketInput) (*model.Market, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	taken, err := s.nameTaken(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("market %q already exists", name)
	}

	now := model.Now()
	m := &model.Market{
		ID:             model.NewID(),
		Name:           name,
		Address:        in.Address,
		ContactInfo:    in.ContactInfo,
		OperatingHours: in.OperatingHours,
		Description:    in.Description,
		Rules:          []model.MarketRule{},
		Status:         model.MarketActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repos.Markets.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create market: %w", err)
	}
	return m, nil
}

func (s *marketService) Update(ctx context.Context, id string, in MarketInput) (*model.Market, error) {
	m, err := lookup(ctx, s.repos.Markets, id, "market")
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if name != m.Name {
		taken, err := s.nameTaken(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, conflict("market %q already exists", name)
		}
	}

	m.Name = name
	m.Address = in.Address
	m.ContactInfo = in.ContactInfo
	m.OperatingHours = in.OperatingHours
	m.Description = in.Description
	m.UpdatedAt = model.Now()
	if err := s.repos.Markets.Replace(ctx, id, m); err != nil {
		return nil, fmt.Errorf("update market: %w", err)
	}
	return m, nil
}

func (s *marketService) SetStatus(ctx context.Context, id, status string) error {
	if status != model.MarketActive && status != model.MarketSuspended {
		return invalid("status must be Active or Suspended")
	}
	if _, err := lookup(ctx, s.repos.Markets, id, "market"); err != nil {
		return err
	}
	return s.repos.Markets.Update(ctx, id, repository.Filter{"status": status, "updated_at": model.Now()})
}

func (s *marketService) Delete(ctx context.Context, id string) error {
	if _, err := lookup(ctx, s.repos.Markets, id, "market"); err != nil {
		return err
	}
	open, err := exists(ctx, s.repos.Stores, repository.Filter{"market_id": id, "status": model.StoreOpen})
	if err != nil {
		return err
	}
	if open {
		return conflict("market still has open stores")
	}
	return s.repos.Markets.Delete(ctx, id)
}

func (s *marketService) SetRules(ctx context.Context, id string, rules []model.MarketRule) (*model.Market, error) {
	m, err := lookup(ctx, s.repos.Markets, id, "market")
	if err != nil {
		return nil, err
	}
	for i, r := range rules {
		if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Content) == "" {
			return nil, invalid("rule %d needs a title and content", i+1)
		}
	}
	if rules == nil {
		rules = []model.MarketRule{}
	}
	m.Rules = rules
	m.UpdatedAt = model.Now()
	if err := s.repos.Markets.Update(ctx, id, repository.Filter{"rules": rules, "updated_at": m.UpdatedAt}); err != nil {
		return nil, fmt.Errorf("update rules: %w", err)
	}
	return m, nil
}
