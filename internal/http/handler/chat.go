package handler

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"localmart/internal/chat"
	"localmart/internal/http/middleware"
	"localmart/internal/logx"
	"localmart/internal/service"
)

// ChatHub is the part of the connection hub the websocket handler uses.
type ChatHub interface {
	Register(userID string, conn chat.Conn) *chat.Client
	Unregister(c *chat.Client)
	Reply(c *chat.Client, f chat.Frame) error
}

func Conversations(svc service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.Conversations(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

func ChatHistory(svc service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.History(c.UserContext(), userID(c), c.Params("userId"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func MarkChatRead(svc service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.MarkRead(c.UserContext(), userID(c), c.Params("userId"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"updated": n})
	}
}

// RequireUpgrade rejects plain HTTP requests on websocket routes.
func RequireUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// ChatSocket serves an authenticated chat connection. Claims are set by
// middleware.QueryAuth before the upgrade.
func ChatSocket(svc service.ChatService, hub ChatHub, log *logx.Logger) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		claims := middleware.GetClaimsFrom(conn.Locals(middleware.ClaimsLocalKey))
		if claims == nil {
			return
		}
		uid := claims.UserID()
		client := hub.Register(uid, conn)
		defer hub.Unregister(client)

		log.Info("chat", "connected", map[string]any{"user_id": uid})
		serveChat(context.Background(), svc, hub, client, uid, conn)
		log.Info("chat", "disconnected", map[string]any{"user_id": uid})
	})
}

type frameReader interface {
	ReadMessage() (messageType int, p []byte, err error)
}

// serveChat reads client frames until the connection fails. Each frame is sent as
// a chat message; failures are answered with an error frame on the same connection.
func serveChat(ctx context.Context, svc service.ChatService, hub ChatHub, client *chat.Client, uid string, r frameReader) {
	for {
		_, data, err := r.ReadMessage()
		if err != nil {
			return
		}
		var in service.SendMessageInput
		if err := json.Unmarshal(data, &in); err != nil {
			_ = hub.Reply(client, errorFrame(badRequest("BAD_REQUEST", "malformed frame")))
			continue
		}
		if _, err := svc.Send(ctx, uid, in); err != nil {
			_ = hub.Reply(client, errorFrame(err))
		}
	}
}

func errorFrame(err error) chat.Frame {
	_, code, msg := classify(err)
	return chat.Frame{Type: chat.FrameError, Data: errorEnvelope{Code: code, Message: msg}}
}
