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

type SupportInput struct {
	Subject     string `json:"subject" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
}

type SupportService interface {
	Create(ctx context.Context, userID string, in SupportInput) (*model.SupportRequest, error)
	Mine(ctx context.Context, userID string, p Page) (*ListResult[model.SupportRequest], error)
	List(ctx context.Context, status string, p Page) (*ListResult[model.SupportRequest], error)
	// Respond answers the request and marks it Resolved.
	Respond(ctx context.Context, actor Actor, id, response string) error
	SetStatus(ctx context.Context, actor Actor, id, status string) error
}

type supportService struct {
	repos    *repository.Repos
	notifier notify.Notifier
	log      *logx.Logger
}

func NewSupportService(d Deps) SupportService {
	return &supportService{repos: d.Repos, notifier: d.Notifier, log: d.logger()}
}

var supportStatuses = map[string]bool{
	model.SupportOpen:       true,
	model.SupportInProgress: true,
	model.SupportResolved:   true,
	model.SupportClosed:     true,
}

func (s *supportService) Create(ctx context.Context, userID string, in SupportInput) (*model.SupportRequest, error) {
	now := model.Now()
	r := &model.SupportRequest{
		ID:          model.NewID(),
		UserID:      userID,
		Subject:     strings.TrimSpace(in.Subject),
		Description: in.Description,
		Status:      model.SupportOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Support.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create support request: %w", err)
	}
	return r, nil
}

func (s *supportService) Mine(ctx context.Context, userID string, p Page) (*ListResult[model.SupportRequest], error) {
	pq := p.query("created_at", false)
	res, err := s.repos.Support.List(ctx, repository.Filter{"user_id": userID}, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *supportService) List(ctx context.Context, status string, p Page) (*ListResult[model.SupportRequest], error) {
	f := repository.Filter{}
	if status != "" {
		f["status"] = status
	}
	pq := p.query("created_at", false)
	res, err := s.repos.Support.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *supportService) Respond(ctx context.Context, actor Actor, id, response string) error {
	response = strings.TrimSpace(response)
	if response == "" {
		return invalid("response is required")
	}
	r, err := lookup(ctx, s.repos.Support, id, "support request")
	if err != nil {
		return err
	}
	if r.Status == model.SupportClosed {
		return badState("support request is closed")
	}
	if err := s.repos.Support.Update(ctx, id, repository.Filter{
		"response":     response,
		"responded_by": actor.UserID,
		"status":       model.SupportResolved,
		"updated_at":   model.Now(),
	}); err != nil {
		return fmt.Errorf("respond to support request: %w", err)
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      r.UserID,
		Title:       "Support: " + r.Subject,
		Message:     response,
		Type:        model.NotifySupport,
		ReferenceID: r.ID,
	})
	return nil
}

func (s *supportService) SetStatus(ctx context.Context, _ Actor, id, status string) error {
	if !supportStatuses[status] {
		return invalid("unknown status %q", status)
	}
	if _, err := lookup(ctx, s.repos.Support, id, "support request"); err != nil {
		return err
	}
	return s.repos.Support.Update(ctx, id, repository.Filter{"status": status, "updated_at": model.Now()})
}
