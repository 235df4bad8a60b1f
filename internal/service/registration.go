package service

import (
	"context"
	"fmt"
	"strings"

	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
)

type SellerRegistrationInput struct {
	MarketID      string `json:"market_id" validate:"required"`
	StoreName     string `json:"store_name" validate:"required,max=200"`
	StoreAddress  string `json:"store_address" validate:"required,max=255"`
	ContactNumber string `json:"contact_number" validate:"omitempty,max=20"`
	Description   string `json:"description" validate:"omitempty,max=2000"`
}

type ProxyRegistrationInput struct {
	OperatingArea   string `json:"operating_area" validate:"required,max=255"`
	TransportMethod string `json:"transport_method" validate:"required,max=100"`
}

// RegistrationService handles applications to become a seller or a proxy shopper.
type RegistrationService interface {
	SubmitSeller(ctx context.Context, userID string, in SellerRegistrationInput) (*model.SellerRegistration, error)
	MySeller(ctx context.Context, userID string) ([]model.SellerRegistration, error)
	ListSeller(ctx context.Context, status string, p Page) (*ListResult[model.SellerRegistration], error)
	// ApproveSeller opens the store and promotes the applicant to Seller.
	ApproveSeller(ctx context.Context, actor Actor, id string) (*model.Store, error)
	RejectSeller(ctx context.Context, actor Actor, id, reason string) error

	SubmitProxy(ctx context.Context, userID string, in ProxyRegistrationInput) (*model.ProxyShopperRegistration, error)
	MyProxy(ctx context.Context, userID string) ([]model.ProxyShopperRegistration, error)
	ListProxy(ctx context.Context, status string, p Page) (*ListResult[model.ProxyShopperRegistration], error)
	ApproveProxy(ctx context.Context, actor Actor, id string) error
	RejectProxy(ctx context.Context, actor Actor, id, reason string) error
}

type registrationService struct {
	repos    *repository.Repos
	notifier notify.Notifier
	log      *logx.Logger
}

func NewRegistrationService(d Deps) RegistrationService {
	return &registrationService{repos: d.Repos, notifier: d.Notifier, log: d.logger()}
}

var openRegistration = repository.Filter{"$in": []string{model.RegistrationPending, model.RegistrationApproved}}

func (s *registrationService) SubmitSeller(ctx context.Context, userID string, in SellerRegistrationInput) (*model.SellerRegistration, error) {
	u, err := lookup(ctx, s.repos.Users, userID, "user")
	if err != nil {
		return nil, err
	}
	if u.Role != model.RoleBuyer {
		return nil, forbidden("only buyers can apply to become sellers")
	}
	market, err := lookup(ctx, s.repos.Markets, in.MarketID, "market")
	if err != nil {
		return nil, err
	}
	if market.Status != model.MarketActive {
		return nil, badState("market is not active")
	}
	dup, err := exists(ctx, s.repos.SellerRegs, repository.Filter{"user_id": userID, "status": openRegistration})
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, conflict("a seller registration is already pending or approved")
	}

	now := model.Now()
	r := &model.SellerRegistration{
		ID:            model.NewID(),
		UserID:        userID,
		MarketID:      market.ID,
		StoreName:     strings.TrimSpace(in.StoreName),
		StoreAddress:  in.StoreAddress,
		ContactNumber: in.ContactNumber,
		Description:   in.Description,
		Status:        model.RegistrationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repos.SellerRegs.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create seller registration: %w", err)
	}
	return r, nil
}

func (s *registrationService) MySeller(ctx context.Context, userID string) ([]model.SellerRegistration, error) {
	return s.repos.SellerRegs.FindMany(ctx, repository.Filter{"user_id": userID})
}

func (s *registrationService) ListSeller(ctx context.Context, status string, p Page) (*ListResult[model.SellerRegistration], error) {
	f := repository.Filter{}
	if status != "" {
		f["status"] = status
	}
	pq := p.query("created_at", false)
	res, err := s.repos.SellerRegs.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *registrationService) ApproveSeller(ctx context.Context, actor Actor, id string) (*model.Store, error) {
	r, err := lookup(ctx, s.repos.SellerRegs, id, "registration")
	if err != nil {
		return nil, err
	}
	if r.Status != model.RegistrationPending {
		return nil, badState("registration is %s", r.Status)
	}
	hasStore, err := exists(ctx, s.repos.Stores, repository.Filter{"seller_id": r.UserID})
	if err != nil {
		return nil, err
	}
	if hasStore {
		return nil, conflict("applicant already owns a store")
	}

	now := model.Now()
	store := &model.Store{
		ID:            model.NewID(),
		SellerID:      r.UserID,
		MarketID:      r.MarketID,
		Name:          r.StoreName,
		Address:       r.StoreAddress,
		ContactNumber: r.ContactNumber,
		Description:   r.Description,
		Status:        model.StoreOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repos.Stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := s.repos.SellerRegs.Update(ctx, id, repository.Filter{
		"status":      model.RegistrationApproved,
		"reviewed_by": actor.UserID,
		"updated_at":  now,
	}); err != nil {
		return nil, fmt.Errorf("approve registration: %w", err)
	}
	if err := s.repos.Users.Update(ctx, r.UserID, repository.Filter{"role": model.RoleSeller, "updated_at": now}); err != nil {
		return nil, fmt.Errorf("promote user: %w", err)
	}

	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      r.UserID,
		Title:       "Seller registration approved",
		Message:     fmt.Sprintf("Your store %q is now open.", store.Name),
		Type:        model.NotifyRegistration,
		ReferenceID: store.ID,
	})
	return store, nil
}

func (s *registrationService) RejectSeller(ctx context.Context, actor Actor, id, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return invalid("reason is required")
	}
	r, err := lookup(ctx, s.repos.SellerRegs, id, "registration")
	if err != nil {
		return err
	}
	if r.Status != model.RegistrationPending {
		return badState("registration is %s", r.Status)
	}
	if err := s.repos.SellerRegs.Update(ctx, id, repository.Filter{
		"status":           model.RegistrationRejected,
		"rejection_reason": reason,
		"reviewed_by":      actor.UserID,
		"updated_at":       model.Now(),
	}); err != nil {
		return fmt.Errorf("reject registration: %w", err)
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      r.UserID,
		Title:       "Seller registration rejected",
		Message:     reason,
		Type:        model.NotifyRegistration,
		ReferenceID: r.ID,
	})
	return nil
}

func (s *registrationService) SubmitProxy(ctx context.Context, userID string, in ProxyRegistrationInput) (*model.ProxyShopperRegistration, error) {
	u, err := lookup(ctx, s.repos.Users, userID, "user")
	if err != nil {
		return nil, err
	}
	if u.Role != model.RoleBuyer {
		return nil, forbidden("only buyers can apply to become proxy shoppers")
	}
	dup, err := exists(ctx, s.repos.ProxyRegs, repository.Filter{"user_id": userID, "status": openRegistration})
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, conflict("a proxy shopper registration is already pending or approved")
	}

	now := model.Now()
	r := &model.ProxyShopperRegistration{
		ID:              model.NewID(),
		UserID:          userID,
		OperatingArea:   in.OperatingArea,
		TransportMethod: in.TransportMethod,
		Status:          model.RegistrationPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repos.ProxyRegs.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create proxy registration: %w", err)
	}
	return r, nil
}

func (s *registrationService) MyProxy(ctx context.Context, userID string) ([]model.ProxyShopperRegistration, error) {
	return s.repos.ProxyRegs.FindMany(ctx, repository.Filter{"user_id": userID})
}

func (s *registrationService) ListProxy(ctx context.Context, status string, p Page) (*ListResult[model.ProxyShopperRegistration], error) {
	f := repository.Filter{}
	if status != "" {
		f["status"] = status
	}
	pq := p.query("created_at", false)
	res, err := s.repos.ProxyRegs.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *registrationService) ApproveProxy(ctx context.Context, actor Actor, id string) error {
	r, err := lookup(ctx, s.repos.ProxyRegs, id, "registration")
	if err != nil {
		return err
	}
	if r.Status != model.RegistrationPending {
		return badState("registration is %s", r.Status)
	}
	now := model.Now()
	if err := s.repos.ProxyRegs.Update(ctx, id, repository.Filter{"status": model.RegistrationApproved, "updated_at": now}); err != nil {
		return fmt.Errorf("approve registration: %w", err)
	}
	if err := s.repos.Users.Update(ctx, r.UserID, repository.Filter{"role": model.RoleProxyShopper, "updated_at": now}); err != nil {
		return fmt.Errorf("promote user: %w", err)
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      r.UserID,
		Title:       "Proxy shopper registration approved",
		Message:     "You can now accept proxy shopping requests.",
		Type:        model.NotifyRegistration,
		ReferenceID: r.ID,
	})
	return nil
}

func (s *registrationService) RejectProxy(ctx context.Context, actor Actor, id, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return invalid("reason is required")
	}
	r, err := lookup(ctx, s.repos.ProxyRegs, id, "registration")
	if err != nil {
		return err
	}
	if r.Status != model.RegistrationPending {
		return badState("registration is %s", r.Status)
	}
	if err := s.repos.ProxyRegs.Update(ctx, id, repository.Filter{
		"status":           model.RegistrationRejected,
		"rejection_reason": reason,
		"updated_at":       model.Now(),
	}); err != nil {
		return fmt.Errorf("reject registration: %w", err)
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      r.UserID,
		Title:       "Proxy shopper registration rejected",
		Message:     reason,
		Type:        model.NotifyRegistration,
		ReferenceID: r.ID,
	})
	return nil
}
