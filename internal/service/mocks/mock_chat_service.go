package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"localmart/internal/model"
	"localmart/internal/service"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Send(ctx context.Context, senderID string, in service.SendMessageInput) (*model.ChatMessage, error) {
	args := m.Called(ctx, senderID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *MockChatService) Conversations(ctx context.Context, userID string) ([]service.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Conversation), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, userID, partnerID string, p service.Page) (*service.ListResult[model.ChatMessage], error) {
	args := m.Called(ctx, userID, partnerID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.ChatMessage]), args.Error(1)
}

func (m *MockChatService) MarkRead(ctx context.Context, userID, partnerID string) (int64, error) {
	args := m.Called(ctx, userID, partnerID)
	return args.Get(0).(int64), args.Error(1)
}
