package service

import (
	"context"
	"fmt"

	"localmart/internal/model"
	"localmart/internal/repository"
)

type FAQInput struct {
	Question string `json:"question" validate:"required,max=500"`
	Answer   string `json:"answer" validate:"required"`
	Category string `json:"category" validate:"omitempty,max=100"`
}

type FAQService interface {
	List(ctx context.Context, category string, p Page) (*ListResult[model.FAQ], error)
	Get(ctx context.Context, id string) (*model.FAQ, error)
	Create(ctx context.Context, in FAQInput) (*model.FAQ, error)
	Update(ctx context.Context, id string, in FAQInput) (*model.FAQ, error)
	Delete(ctx context.Context, id string) error
}

type faqService struct {
	faqs repository.Repository[model.FAQ]
}

func NewFAQService(d Deps) FAQService {
	return &faqService{faqs: d.Repos.FAQs}
}

func (s *faqService) List(ctx context.Context, category string, p Page) (*ListResult[model.FAQ], error) {
	f := repository.Filter{}
	if category != "" {
		f["category"] = category
	}
	pq := p.query("created_at", true)
	res, err := s.faqs.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *faqService) Get(ctx context.Context, id string) (*model.FAQ, error) {
	return lookup(ctx, s.faqs, id, "faq")
}

func (s *faqService) Create(ctx context.Context, in FAQInput) (*model.FAQ, error) {
	now := model.Now()
	f := &model.FAQ{
		ID:        model.NewID(),
		Question:  in.Question,
		Answer:    in.Answer,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.faqs.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create faq: %w", err)
	}
	return f, nil
}

func (s *faqService) Update(ctx context.Context, id string, in FAQInput) (*model.FAQ, error) {
	f, err := lookup(ctx, s.faqs, id, "faq")
	if err != nil {
		return nil, err
	}
	f.Question, f.Answer, f.Category = in.Question, in.Answer, in.Category
	f.UpdatedAt = model.Now()
	if err := s.faqs.Replace(ctx, id, f); err != nil {
		return nil, fmt.Errorf("update faq: %w", err)
	}
	return f, nil
}

func (s *faqService) Delete(ctx context.Context, id string) error {
	if !model.IsID(id) {
		return notFound("faq")
	}
	if err := s.faqs.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return notFound("faq")
		}
		return err
	}
	return nil
}
