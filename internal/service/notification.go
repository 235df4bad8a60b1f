package service

import (
	"context"
	"fmt"

	"localmart/internal/chat"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
)

type NotificationService interface {
	List(ctx context.Context, userID string, p Page) (*ListResult[model.Notification], error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	notify.Sink
}

type notificationService struct {
	notifications repository.Repository[model.Notification]
	pusher        Pusher
}

// NewNotificationService builds the service that also acts as the delivery sink:
// notifications are stored and pushed to the user's live connections.
func NewNotificationService(d Deps) NotificationService {
	return &notificationService{notifications: d.Repos.Notifications, pusher: d.Pusher}
}

func (s *notificationService) Deliver(ctx context.Context, m notify.Message) error {
	if m.UserID == "" {
		return invalid("notification has no recipient")
	}
	n := &model.Notification{
		ID:          model.NewID(),
		UserID:      m.UserID,
		Title:       m.Title,
		Message:     m.Message,
		Type:        m.Type,
		ReferenceID: m.ReferenceID,
		CreatedAt:   model.Now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if s.pusher != nil {
		s.pusher.Send(n.UserID, chat.Frame{Type: chat.FrameNotification, Data: n})
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, userID string, p Page) (*ListResult[model.Notification], error) {
	pq := p.query("created_at", false)
	res, err := s.notifications.List(ctx, repository.Filter{"user_id": userID}, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notifications.Count(ctx, repository.Filter{"user_id": userID, "is_read": false})
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	n, err := lookup(ctx, s.notifications, id, "notification")
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return notFound("notification")
	}
	if n.IsRead {
		return nil
	}
	return s.notifications.Update(ctx, id, repository.Filter{"is_read": true})
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.UpdateMany(ctx, repository.Filter{"user_id": userID, "is_read": false}, repository.Filter{"is_read": true})
}
