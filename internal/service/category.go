package service

import (
	"context"
	"fmt"
	"strings"

	"localmart/internal/model"
	"localmart/internal/repository"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

type CategoryService interface {
	// List returns categories; admins see inactive ones too.
	List(ctx context.Context, includeInactive bool) ([]model.Category, error)
	Get(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, in CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id string, in CategoryInput) (*model.Category, error)
	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	categories repository.Repository[model.Category]
}

func NewCategoryService(d Deps) CategoryService {
	return &categoryService{categories: d.Repos.Categories}
}

func (s *categoryService) List(ctx context.Context, includeInactive bool) ([]model.Category, error) {
	f := repository.Filter{"status": model.CategoryActive}
	if includeInactive {
		f = nil
	}
	return s.categories.FindMany(ctx, f)
}

func (s *categoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	return lookup(ctx, s.categories, id, "category")
}

func (s *categoryService) checkName(ctx context.Context, name, exceptID string) error {
	f := repository.Filter{"name": name}
	if exceptID != "" {
		f["_id"] = repository.Filter{"$ne": exceptID}
	}
	taken, err := exists(ctx, s.categories, f)
	if err != nil {
		return err
	}
	if taken {
		return conflict("category %q already exists", name)
	}
	return nil
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if err := s.checkName(ctx, name, ""); err != nil {
		return nil, err
	}
	now := model.Now()
	c := &model.Category{
		ID:          model.NewID(),
		Name:        name,
		Description: in.Description,
		Status:      model.CategoryActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, id string, in CategoryInput) (*model.Category, error) {
	c, err := lookup(ctx, s.categories, id, "category")
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if name != c.Name {
		if err := s.checkName(ctx, name, id); err != nil {
			return nil, err
		}
	}
	c.Name = name
	c.Description = in.Description
	c.UpdatedAt = model.Now()
	if err := s.categories.Replace(ctx, id, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (s *categoryService) SetStatus(ctx context.Context, id, status string) error {
	if status != model.CategoryActive && status != model.CategoryInactive {
		return invalid("status must be Active or Inactive")
	}
	if _, err := lookup(ctx, s.categories, id, "category"); err != nil {
		return err
	}
	return s.categories.Update(ctx, id, repository.Filter{"status": status, "updated_at": model.Now()})
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	return s.SetStatus(ctx, id, model.CategoryInactive)
}
