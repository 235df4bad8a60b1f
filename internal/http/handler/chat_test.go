package handler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"localmart/internal/chat"
	"localmart/internal/model"
	"localmart/internal/service"
	serviceMocks "localmart/internal/service/mocks"
)

type scriptedConn struct {
	mu      sync.Mutex
	frames  [][]byte
	written []chat.Frame
	closed  bool
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	if len(c.frames) == 0 {
		return 0, nil, errors.New("websocket: close 1000 (normal)")
	}
	f := c.frames[0]
	c.frames = c.frames[1:]
	return 1, f, nil
}

func (c *scriptedConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, v.(chat.Frame))
	return nil
}

func (c *scriptedConn) Close() error {
	c.closed = true
	return nil
}

func TestServeChat(t *testing.T) {
	svc := new(serviceMocks.MockChatService)
	hub := chat.NewHub(nil)
	conn := &scriptedConn{frames: [][]byte{
		[]byte(`{"receiver_id":"u2","content":"con rau muong khong?"}`),
		[]byte(`not json`),
		[]byte(`{"receiver_id":"u1","content":"talking to myself"}`),
	}}
	client := hub.Register("u1", conn)
	defer hub.Unregister(client)

	svc.On("Send", mock.Anything, "u1", service.SendMessageInput{ReceiverID: "u2", Content: "con rau muong khong?"}).
		Return(&model.ChatMessage{ID: "m1"}, nil).Once()
	svc.On("Send", mock.Anything, "u1", service.SendMessageInput{ReceiverID: "u1", Content: "talking to myself"}).
		Return(nil, &service.Error{Kind: service.ErrInvalidInput, Msg: "cannot message yourself"}).Once()

	serveChat(context.Background(), svc, hub, client, "u1", conn)

	svc.AssertExpectations(t)
	if assert.Len(t, conn.written, 2) {
		assert.Equal(t, chat.Frame{Type: chat.FrameError, Data: errorEnvelope{Code: "BAD_REQUEST", Message: "malformed frame"}}, conn.written[0])
		assert.Equal(t, chat.Frame{Type: chat.FrameError, Data: errorEnvelope{Code: "VALIDATION_ERROR", Message: "cannot message yourself"}}, conn.written[1])
	}
}

func TestErrorFrame_HidesInternalErrors(t *testing.T) {
	f := errorFrame(errors.New("mongo: write concern timeout"))

	assert.Equal(t, chat.FrameError, f.Type)
	assert.Equal(t, errorEnvelope{Code: "INTERNAL_ERROR", Message: "internal server error"}, f.Data)
}
