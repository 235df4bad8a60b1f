package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"localmart/internal/chat"
	"localmart/internal/model"
	"localmart/internal/repository"
)

const maxChatMessage = 2000

// SendMessageInput is a frame sent by a chat client.
type SendMessageInput struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	ProductID  string `json:"product_id,omitempty"`
}

// Conversation summarizes the exchange with one partner.
type Conversation struct {
	PartnerID   string            `json:"partner_id"`
	LastMessage model.ChatMessage `json:"last_message"`
	Unread      int               `json:"unread"`
}

type ChatService interface {
	// Send stores the message and pushes it to the receiver and back to the sender.
	Send(ctx context.Context, senderID string, in SendMessageInput) (*model.ChatMessage, error)
	Conversations(ctx context.Context, userID string) ([]Conversation, error)
	History(ctx context.Context, userID, partnerID string, p Page) (*ListResult[model.ChatMessage], error)
	MarkRead(ctx context.Context, userID, partnerID string) (int64, error)
}

type chatService struct {
	repos  *repository.Repos
	pusher Pusher
}

func NewChatService(d Deps) ChatService {
	return &chatService{repos: d.Repos, pusher: d.Pusher}
}

func (s *chatService) Send(ctx context.Context, senderID string, in SendMessageInput) (*model.ChatMessage, error) {
	content := strings.TrimSpace(in.Content)
	switch {
	case content == "":
		return nil, invalid("content is required")
	case utf8.RuneCountInString(content) > maxChatMessage:
		return nil, invalid("message is longer than %d characters", maxChatMessage)
	case in.ReceiverID == senderID:
		return nil, invalid("cannot message yourself")
	}
	receiver, err := lookup(ctx, s.repos.Users, in.ReceiverID, "receiver")
	if err != nil {
		return nil, err
	}
	if receiver.Status != model.UserActive {
		return nil, badState("receiver is not active")
	}
	if in.ProductID != "" {
		if _, err := lookup(ctx, s.repos.Products, in.ProductID, "product"); err != nil {
			return nil, err
		}
	}

	m := &model.ChatMessage{
		ID:         model.NewID(),
		SenderID:   senderID,
		ReceiverID: receiver.ID,
		ProductID:  in.ProductID,
		Content:    content,
		CreatedAt:  model.Now(),
	}
	if err := s.repos.Messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	if s.pusher != nil {
		f := chat.Frame{Type: chat.FrameMessage, Data: m}
		s.pusher.Send(m.ReceiverID, f)
		s.pusher.Send(m.SenderID, f)
	}
	return m, nil
}

func between(a, b string) repository.Filter {
	return repository.Filter{"$or": []repository.Filter{
		{"sender_id": a, "receiver_id": b},
		{"sender_id": b, "receiver_id": a},
	}}
}

func (s *chatService) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	msgs, err := s.repos.Messages.FindMany(ctx, repository.Filter{"$or": []repository.Filter{
		{"sender_id": userID},
		{"receiver_id": userID},
	}})
	if err != nil {
		return nil, err
	}
	// msgs are newest first, so the first message seen per partner is the latest.
	index := map[string]int{}
	out := []Conversation{}
	for _, m := range msgs {
		partner := m.ReceiverID
		if partner == userID {
			partner = m.SenderID
		}
		i, ok := index[partner]
		if !ok {
			i = len(out)
			index[partner] = i
			out = append(out, Conversation{PartnerID: partner, LastMessage: m})
		}
		if m.ReceiverID == userID && !m.IsRead {
			out[i].Unread++
		}
	}
	return out, nil
}

func (s *chatService) History(ctx context.Context, userID, partnerID string, p Page) (*ListResult[model.ChatMessage], error) {
	pq := p.query("created_at", false)
	res, err := s.repos.Messages.List(ctx, between(userID, partnerID), pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *chatService) MarkRead(ctx context.Context, userID, partnerID string) (int64, error) {
	return s.repos.Messages.UpdateMany(ctx,
		repository.Filter{"sender_id": partnerID, "receiver_id": userID, "is_read": false},
		repository.Filter{"is_read": true})
}
