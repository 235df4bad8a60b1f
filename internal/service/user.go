package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"localmart/internal/cache"
	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/repository"
)

type UserFilter struct {
	Role    string
	Status  string
	Keyword string
}

type ProfileInput struct {
	FullName    string `json:"full_name" validate:"required,max=100"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	Address     string `json:"address" validate:"omitempty,max=255"`
}

// UserService manages accounts from the admin side and the user's own profile.
type UserService interface {
	List(ctx context.Context, f UserFilter, p Page) (*ListResult[model.User], error)
	Get(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, in ProfileInput) (*model.User, error)
	SetStatus(ctx context.Context, actor Actor, id, status string) error
	SetRole(ctx context.Context, actor Actor, id, role string) error
	Delete(ctx context.Context, actor Actor, id string) error
	Loyalty(ctx context.Context, id string) (*LoyaltyView, error)
	// Standing returns the stored role and status used to admit a bearer token.
	// A missing user yields empty values and no error.
	Standing(ctx context.Context, id string) (role, status string, err error)
}

type userService struct {
	users repository.Repository[model.User]
	cache cache.Store
	log   *logx.Logger
}

func NewUserService(d Deps) UserService {
	c := d.Cache
	if c == nil {
		c = cache.NewMemory()
	}
	return &userService{users: d.Repos.Users, cache: c, log: d.logger()}
}

func (s *userService) List(ctx context.Context, f UserFilter, p Page) (*ListResult[model.User], error) {
	filter := repository.Filter{"status": repository.Filter{"$ne": model.UserDeleted}}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Keyword != "" {
		filter["$or"] = []repository.Filter{
			{"username": keyword(f.Keyword)},
			{"email": keyword(f.Keyword)},
			{"full_name": keyword(f.Keyword)},
		}
	}
	pq := p.query("created_at", false)
	res, err := s.users.List(ctx, filter, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	return lookup(ctx, s.users, id, "user")
}

func (s *userService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*model.User, error) {
	u, err := lookup(ctx, s.users, id, "user")
	if err != nil {
		return nil, err
	}
	u.FullName = in.FullName
	u.PhoneNumber = in.PhoneNumber
	u.Address = in.Address
	u.UpdatedAt = model.Now()
	if err := s.users.Update(ctx, id, repository.Filter{
		"full_name":    u.FullName,
		"phone_number": u.PhoneNumber,
		"address":      u.Address,
		"updated_at":   u.UpdatedAt,
	}); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *userService) SetStatus(ctx context.Context, actor Actor, id, status string) error {
	if status != model.UserActive && status != model.UserDisabled {
		return invalid("status must be Active or Disabled")
	}
	if actor.UserID == id {
		return forbidden("cannot change your own status")
	}
	return s.update(ctx, id, repository.Filter{"status": status})
}

func (s *userService) SetRole(ctx context.Context, actor Actor, id, role string) error {
	if !model.IsValidRole(role) {
		return invalid("unknown role %q", role)
	}
	if actor.UserID == id {
		return forbidden("cannot change your own role")
	}
	return s.update(ctx, id, repository.Filter{"role": role})
}

func (s *userService) Delete(ctx context.Context, actor Actor, id string) error {
	if actor.UserID == id {
		return forbidden("cannot delete your own account")
	}
	return s.update(ctx, id, repository.Filter{"status": model.UserDeleted})
}

func (s *userService) update(ctx context.Context, id string, fields repository.Filter) error {
	u, err := lookup(ctx, s.users, id, "user")
	if err != nil {
		return err
	}
	if u.Status == model.UserDeleted {
		return badState("user is deleted")
	}
	fields["updated_at"] = model.Now()
	if err := s.users.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user")
		}
		return err
	}
	key := cache.Key(cache.KeyUserStanding, id)
	if err := s.cache.Del(ctx, key); err != nil {
		s.log.Warn("cache", "cache_del_failed", err, map[string]any{"key": key})
	}
	return nil
}

func (s *userService) Standing(ctx context.Context, id string) (string, string, error) {
	key := cache.Key(cache.KeyUserStanding, id)
	raw, err := s.cache.Get(ctx, key)
	if err == nil {
		if role, status, ok := strings.Cut(raw, "|"); ok {
			return role, status, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("cache", "cache_get_failed", err, map[string]any{"key": key})
	}

	u, err := lookup(ctx, s.users, id, "user")
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", "", nil
		}
		return "", "", err
	}
	if err := s.cache.Set(ctx, key, u.Role+"|"+u.Status, cache.TTLUserStanding); err != nil {
		s.log.Warn("cache", "cache_set_failed", err, map[string]any{"key": key})
	}
	return u.Role, u.Status, nil
}

func (s *userService) Loyalty(ctx context.Context, id string) (*LoyaltyView, error) {
	u, err := lookup(ctx, s.users, id, "user")
	if err != nil {
		return nil, err
	}
	tier := u.LoyaltyTier
	if tier == "" {
		tier = LoyaltyTier(u.LoyaltyScore)
	}
	return &LoyaltyView{UserID: u.ID, Score: u.LoyaltyScore, Tier: tier}, nil
}
