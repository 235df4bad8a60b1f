package service

import (
	"time"

	"localmart/internal/cache"
	"localmart/internal/chat"
	"localmart/internal/events"
	"localmart/internal/logx"
	"localmart/internal/notify"
	"localmart/internal/payment"
	"localmart/internal/repository"
	"localmart/internal/storage"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID, role string) (string, time.Time, error)
}

// Pusher writes frames to a user's live connections.
type Pusher interface {
	Send(userID string, f chat.Frame) int
}

// Deps carries the collaborators shared by services. Nil side systems are allowed
// where a service documents a fallback.
type Deps struct {
	Repos    *repository.Repos
	Ledger   repository.PaymentLedger
	Storage  storage.Storage
	Cache    cache.Store
	Events   events.Publisher
	Notifier notify.Notifier
	Pusher   Pusher
	Gateway  payment.Gateway
	Tokens   TokenIssuer
	Log      *logx.Logger
}

func (d Deps) logger() *logx.Logger {
	if d.Log == nil {
		return logx.Default()
	}
	return d.Log
}
