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

type ReportInput struct {
	TargetType  string `json:"target_type" validate:"required,oneof=Product Store User Review"`
	TargetID    string `json:"target_id" validate:"required"`
	Reason      string `json:"reason" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

type ReportFilter struct {
	Status     string
	TargetType string
}

type ReportService interface {
	Create(ctx context.Context, userID string, in ReportInput) (*model.Report, error)
	Mine(ctx context.Context, userID string, p Page) (*ListResult[model.Report], error)
	List(ctx context.Context, f ReportFilter, p Page) (*ListResult[model.Report], error)
	Resolve(ctx context.Context, actor Actor, id, note string) error
	Dismiss(ctx context.Context, actor Actor, id, note string) error
}

type reportService struct {
	repos    *repository.Repos
	notifier notify.Notifier
	log      *logx.Logger
}

func NewReportService(d Deps) ReportService {
	return &reportService{repos: d.Repos, notifier: d.Notifier, log: d.logger()}
}

func (s *reportService) targetExists(ctx context.Context, targetType, id string) error {
	var err error
	switch targetType {
	case model.TargetProduct:
		_, err = lookup(ctx, s.repos.Products, id, "product")
	case model.TargetStore:
		_, err = lookup(ctx, s.repos.Stores, id, "store")
	case model.TargetUser:
		_, err = lookup(ctx, s.repos.Users, id, "user")
	case model.TargetReview:
		_, err = lookup(ctx, s.repos.Reviews, id, "review")
	default:
		err = invalid("unknown target_type %q", targetType)
	}
	return err
}

func (s *reportService) Create(ctx context.Context, userID string, in ReportInput) (*model.Report, error) {
	if err := s.targetExists(ctx, in.TargetType, in.TargetID); err != nil {
		return nil, err
	}
	if in.TargetType == model.TargetUser && in.TargetID == userID {
		return nil, invalid("cannot report yourself")
	}
	now := model.Now()
	r := &model.Report{
		ID:          model.NewID(),
		ReporterID:  userID,
		TargetType:  in.TargetType,
		TargetID:    in.TargetID,
		Reason:      strings.TrimSpace(in.Reason),
		Description: in.Description,
		Status:      model.ReportPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Reports.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return r, nil
}

func (s *reportService) Mine(ctx context.Context, userID string, p Page) (*ListResult[model.Report], error) {
	pq := p.query("created_at", false)
	res, err := s.repos.Reports.List(ctx, repository.Filter{"reporter_id": userID}, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *reportService) List(ctx context.Context, f ReportFilter, p Page) (*ListResult[model.Report], error) {
	filter := repository.Filter{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.TargetType != "" {
		filter["target_type"] = f.TargetType
	}
	pq := p.query("created_at", false)
	res, err := s.repos.Reports.List(ctx, filter, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *reportService) Resolve(ctx context.Context, actor Actor, id, note string) error {
	return s.close(ctx, actor, id, model.ReportResolved, note)
}

func (s *reportService) Dismiss(ctx context.Context, actor Actor, id, note string) error {
	return s.close(ctx, actor, id, model.ReportDismissed, note)
}

func (s *reportService) close(ctx context.Context, actor Actor, id, status, note string) error {
	r, err := lookup(ctx, s.repos.Reports, id, "report")
	if err != nil {
		return err
	}
	if r.Status != model.ReportPending {
		return badState("report is %s", r.Status)
	}
	if err := s.repos.Reports.Update(ctx, id, repository.Filter{
		"status":     status,
		"admin_note": note,
		"handled_by": actor.UserID,
		"updated_at": model.Now(),
	}); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	msg := fmt.Sprintf("Your report about %s was %s.", strings.ToLower(r.TargetType), strings.ToLower(status))
	if note != "" {
		msg += " " + note
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      r.ReporterID,
		Title:       "Report " + strings.ToLower(status),
		Message:     msg,
		Type:        model.NotifyReport,
		ReferenceID: r.ID,
	})
	return nil
}
