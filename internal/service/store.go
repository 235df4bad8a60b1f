package service

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/repository"
	"localmart/internal/storage"
)

type StoreFilter struct {
	MarketID string
	Status   string
	Keyword  string
}

type StoreInput struct {
	Name          string `json:"name" validate:"required,max=200"`
	Address       string `json:"address" validate:"required,max=255"`
	ContactNumber string `json:"contact_number" validate:"omitempty,max=20"`
	Description   string `json:"description" validate:"omitempty,max=2000"`
}

type StoreService interface {
	List(ctx context.Context, f StoreFilter, p Page) (*ListResult[model.Store], error)
	Get(ctx context.Context, id string) (*model.Store, error)
	Mine(ctx context.Context, sellerID string) (*model.Store, error)
	UpdateMine(ctx context.Context, sellerID string, in StoreInput) (*model.Store, error)
	// SetMineStatus toggles Open and Closed. A suspended store stays suspended.
	SetMineStatus(ctx context.Context, sellerID, status string) error
	Suspend(ctx context.Context, actor Actor, id string) error
	Unsuspend(ctx context.Context, actor Actor, id string) error
	UploadLogo(ctx context.Context, sellerID string, file Upload) (*model.Store, error)
	Follow(ctx context.Context, userID, storeID string) error
	Unfollow(ctx context.Context, userID, storeID string) error
	Followed(ctx context.Context, userID string) ([]model.Store, error)
}

type storeService struct {
	repos   *repository.Repos
	storage storage.Storage
	log     *logx.Logger
}

func NewStoreService(d Deps) StoreService {
	st := d.Storage
	if st == nil {
		st = storage.Disabled()
	}
	return &storeService{repos: d.Repos, storage: st, log: d.logger()}
}

func (s *storeService) withLogo(ctx context.Context, st *model.Store) *model.Store {
	st.LogoURL = presign(ctx, s.storage, st.LogoKey, imageURLExpiry)
	return st
}

func (s *storeService) List(ctx context.Context, f StoreFilter, p Page) (*ListResult[model.Store], error) {
	filter := repository.Filter{}
	if f.MarketID != "" {
		filter["market_id"] = f.MarketID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Keyword != "" {
		filter["name"] = keyword(f.Keyword)
	}
	pq := p.query("rating", false)
	res, err := s.repos.Stores.List(ctx, filter, pq)
	if err != nil {
		return nil, err
	}
	for i := range res.Items {
		s.withLogo(ctx, &res.Items[i])
	}
	return toList(res, pq), nil
}

func (s *storeService) Get(ctx context.Context, id string) (*model.Store, error) {
	st, err := lookup(ctx, s.repos.Stores, id, "store")
	if err != nil {
		return nil, err
	}
	return s.withLogo(ctx, st), nil
}

func (s *storeService) mine(ctx context.Context, sellerID string) (*model.Store, error) {
	st, err := s.repos.Stores.FindOne(ctx, repository.Filter{"seller_id": sellerID})
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("store")
		}
		return nil, err
	}
	return st, nil
}

func (s *storeService) Mine(ctx context.Context, sellerID string) (*model.Store, error) {
	st, err := s.mine(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return s.withLogo(ctx, st), nil
}

func (s *storeService) UpdateMine(ctx context.Context, sellerID string, in StoreInput) (*model.Store, error) {
	st, err := s.mine(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	st.Name = strings.TrimSpace(in.Name)
	st.Address = in.Address
	st.ContactNumber = in.ContactNumber
	st.Description = in.Description
	st.UpdatedAt = model.Now()
	if err := s.repos.Stores.Update(ctx, st.ID, repository.Filter{
		"name":           st.Name,
		"address":        st.Address,
		"contact_number": st.ContactNumber,
		"description":    st.Description,
		"updated_at":     st.UpdatedAt,
	}); err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}
	return s.withLogo(ctx, st), nil
}

func (s *storeService) SetMineStatus(ctx context.Context, sellerID, status string) error {
	if status != model.StoreOpen && status != model.StoreClosed {
		return invalid("status must be Open or Closed")
	}
	st, err := s.mine(ctx, sellerID)
	if err != nil {
		return err
	}
	if st.Status == model.StoreSuspended {
		return badState("store is suspended")
	}
	return s.repos.Stores.Update(ctx, st.ID, repository.Filter{"status": status, "updated_at": model.Now()})
}

func (s *storeService) Suspend(ctx context.Context, _ Actor, id string) error {
	st, err := lookup(ctx, s.repos.Stores, id, "store")
	if err != nil {
		return err
	}
	if st.Status == model.StoreSuspended {
		return badState("store is already suspended")
	}
	return s.repos.Stores.Update(ctx, id, repository.Filter{"status": model.StoreSuspended, "updated_at": model.Now()})
}

// Unsuspend reopens the store as Closed so the seller decides when to trade again.
func (s *storeService) Unsuspend(ctx context.Context, _ Actor, id string) error {
	st, err := lookup(ctx, s.repos.Stores, id, "store")
	if err != nil {
		return err
	}
	if st.Status != model.StoreSuspended {
		return badState("store is not suspended")
	}
	return s.repos.Stores.Update(ctx, id, repository.Filter{"status": model.StoreClosed, "updated_at": model.Now()})
}

func (s *storeService) UploadLogo(ctx context.Context, sellerID string, file Upload) (*model.Store, error) {
	st, err := s.mine(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	key, err := putObject(ctx, s.storage, storage.KindStore, st.ID, file)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Stores.Update(ctx, st.ID, repository.Filter{"logo_key": key, "updated_at": model.Now()}); err != nil {
		dropObject(ctx, s.storage, s.log, key)
		return nil, fmt.Errorf("update store logo: %w", err)
	}
	dropObject(ctx, s.storage, s.log, st.LogoKey)
	st.LogoKey = key
	return s.withLogo(ctx, st), nil
}

func (s *storeService) Follow(ctx context.Context, userID, storeID string) error {
	st, err := lookup(ctx, s.repos.Stores, storeID, "store")
	if err != nil {
		return err
	}
	if st.SellerID == userID {
		return invalid("cannot follow your own store")
	}
	err = s.repos.Follows.Create(ctx, &model.StoreFollow{
		ID:        model.NewID(),
		StoreID:   storeID,
		UserID:    userID,
		CreatedAt: model.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return conflict("already following this store")
	}
	if err != nil {
		return fmt.Errorf("follow store: %w", err)
	}
	return s.syncFollowers(ctx, storeID)
}

func (s *storeService) Unfollow(ctx context.Context, userID, storeID string) error {
	f, err := s.repos.Follows.FindOne(ctx, repository.Filter{"store_id": storeID, "user_id": userID})
	if err != nil {
		if isNotFound(err) {
			return notFound("follow")
		}
		return err
	}
	if err := s.repos.Follows.Delete(ctx, f.ID); err != nil {
		return fmt.Errorf("unfollow store: %w", err)
	}
	return s.syncFollowers(ctx, storeID)
}

func (s *storeService) syncFollowers(ctx context.Context, storeID string) error {
	n, err := s.repos.Follows.Count(ctx, repository.Filter{"store_id": storeID})
	if err != nil {
		return err
	}
	return s.repos.Stores.Update(ctx, storeID, repository.Filter{"follower_count": n})
}

func (s *storeService) Followed(ctx context.Context, userID string) ([]model.Store, error) {
	follows, err := s.repos.Follows.FindMany(ctx, repository.Filter{"user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(follows) == 0 {
		return []model.Store{}, nil
	}
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.StoreID
	}
	stores, err := s.repos.Stores.FindMany(ctx, repository.Filter{"_id": repository.Filter{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for i := range stores {
		s.withLogo(ctx, &stores[i])
	}
	return stores, nil
}
