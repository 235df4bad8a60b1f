package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
	"localmart/internal/storage"
)

type LicenseInput struct {
	LicenseType   string     `json:"license_type" validate:"required,max=100"`
	LicenseNumber string     `json:"license_number" validate:"required,max=100"`
	IssueDate     *time.Time `json:"issue_date"`
	ExpiryDate    *time.Time `json:"expiry_date"`
}

type LicenseService interface {
	Upload(ctx context.Context, sellerID string, in LicenseInput, file Upload) (*model.SellerLicense, error)
	Mine(ctx context.Context, sellerID string) ([]model.SellerLicense, error)
	List(ctx context.Context, status string, p Page) (*ListResult[model.SellerLicense], error)
	DocumentURL(ctx context.Context, actor Actor, id string) (string, error)
	Verify(ctx context.Context, actor Actor, id, note string) error
	Reject(ctx context.Context, actor Actor, id, note string) error
}

type licenseService struct {
	repos    *repository.Repos
	storage  storage.Storage
	notifier notify.Notifier
	log      *logx.Logger
}

func NewLicenseService(d Deps) LicenseService {
	st := d.Storage
	if st == nil {
		st = storage.Disabled()
	}
	return &licenseService{repos: d.Repos, storage: st, notifier: d.Notifier, log: d.logger()}
}

func (s *licenseService) Upload(ctx context.Context, sellerID string, in LicenseInput, file Upload) (*model.SellerLicense, error) {
	if in.IssueDate != nil && in.ExpiryDate != nil && !in.ExpiryDate.After(*in.IssueDate) {
		return nil, invalid("expiry_date must be after issue_date")
	}
	key, err := putObject(ctx, s.storage, storage.KindLicense, sellerID, file)
	if err != nil {
		return nil, err
	}

	now := model.Now()
	l := &model.SellerLicense{
		ID:            model.NewID(),
		SellerID:      sellerID,
		LicenseType:   strings.TrimSpace(in.LicenseType),
		LicenseNumber: strings.TrimSpace(in.LicenseNumber),
		DocumentKey:   key,
		IssueDate:     in.IssueDate,
		ExpiryDate:    in.ExpiryDate,
		Status:        model.LicensePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repos.Licenses.Create(ctx, l); err != nil {
		dropObject(ctx, s.storage, s.log, key)
		return nil, fmt.Errorf("create license: %w", err)
	}
	return l, nil
}

func (s *licenseService) Mine(ctx context.Context, sellerID string) ([]model.SellerLicense, error) {
	return s.repos.Licenses.FindMany(ctx, repository.Filter{"seller_id": sellerID})
}

func (s *licenseService) List(ctx context.Context, status string, p Page) (*ListResult[model.SellerLicense], error) {
	f := repository.Filter{}
	if status != "" {
		f["status"] = status
	}
	pq := p.query("created_at", false)
	res, err := s.repos.Licenses.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *licenseService) DocumentURL(ctx context.Context, actor Actor, id string) (string, error) {
	l, err := lookup(ctx, s.repos.Licenses, id, "license")
	if err != nil {
		return "", err
	}
	if l.SellerID != actor.UserID && !actor.IsStaff() {
		return "", forbidden("not allowed to view this document")
	}
	u, err := s.storage.PresignGet(ctx, l.DocumentKey, documentURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign license: %w", err)
	}
	return u, nil
}

func (s *licenseService) Verify(ctx context.Context, actor Actor, id, note string) error {
	return s.review(ctx, actor, id, model.LicenseVerified, note)
}

func (s *licenseService) Reject(ctx context.Context, actor Actor, id, note string) error {
	if strings.TrimSpace(note) == "" {
		return invalid("note is required")
	}
	return s.review(ctx, actor, id, model.LicenseRejected, note)
}

func (s *licenseService) review(ctx context.Context, actor Actor, id, status, note string) error {
	l, err := lookup(ctx, s.repos.Licenses, id, "license")
	if err != nil {
		return err
	}
	if l.Status != model.LicensePending {
		return badState("license is %s", l.Status)
	}
	if err := s.repos.Licenses.Update(ctx, id, repository.Filter{
		"status":        status,
		"reviewer_note": note,
		"updated_at":    model.Now(),
	}); err != nil {
		return fmt.Errorf("update license: %w", err)
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:      l.SellerID,
		Title:       "License " + strings.ToLower(status),
		Message:     fmt.Sprintf("Your %s license %s was %s.", l.LicenseType, l.LicenseNumber, strings.ToLower(status)),
		Type:        model.NotifyRegistration,
		ReferenceID: l.ID,
	})
	return nil
}
