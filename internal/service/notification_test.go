package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"localmart/internal/chat"
	"localmart/internal/model"
	"localmart/internal/notify"
)

func TestNotification_Deliver(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	p := &pushes{}
	d.Pusher = p
	svc := NewNotificationService(d)

	err := svc.Deliver(context.Background(), notify.Message{Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	f.notifications.On("Create", ctxArg, mock.MatchedBy(func(n *model.Notification) bool {
		return n.UserID == "u1" && n.Type == model.NotifyOrder && !n.IsRead
	})).Return(nil)
	require.NoError(t, svc.Deliver(context.Background(), notify.Message{UserID: "u1", Title: "Order", Type: model.NotifyOrder}))
	require.Len(t, p.frames["u1"], 1)
	assert.Equal(t, chat.FrameNotification, p.frames["u1"][0].Type)
}

func TestNotification_MarkRead_OwnerOnly(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	svc := NewNotificationService(d)
	n := &model.Notification{ID: model.NewID(), UserID: "u1"}
	f.notifications.On("FindByID", ctxArg, n.ID).Return(n, nil)
	f.notifications.On("Update", ctxArg, n.ID, mock.Anything).Return(nil)

	assert.ErrorIs(t, svc.MarkRead(context.Background(), "u2", n.ID), ErrNotFound)
	require.NoError(t, svc.MarkRead(context.Background(), "u1", n.ID))
	f.notifications.AssertNumberOfCalls(t, "Update", 1)
}
