// Package service holds the use cases. Services validate state, call repositories
// and side systems, and return sentinel-classified errors that handlers map to HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a classified error whose message is safe to show to clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newErr(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func notFound(what string) error { return newErr(ErrNotFound, "%s not found", what) }
func forbidden(format string, args ...any) error {
	return newErr(ErrForbidden, format, args...)
}
func conflict(format string, args ...any) error { return newErr(ErrConflict, format, args...) }
func invalid(format string, args ...any) error  { return newErr(ErrInvalidInput, format, args...) }
func badState(format string, args ...any) error { return newErr(ErrInvalidState, format, args...) }

// lookup maps repository.ErrNotFound to a classified not-found error.
func lookup[T any](ctx context.Context, repo repository.Repository[T], id, what string) (*T, error) {
	if !model.IsID(id) {
		return nil, notFound(what)
	}
	v, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(what)
		}
		return nil, fmt.Errorf("find %s: %w", what, err)
	}
	return v, nil
}

func isNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }

// exists reports whether any record matches f.
func exists[T any](ctx context.Context, repo repository.Repository[T], f repository.Filter) (bool, error) {
	n, err := repo.Count(ctx, f)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// IsStaff reports whether the caller may moderate market data.
func (a Actor) IsStaff() bool { return a.Role == model.RoleAdmin || a.Role == model.RoleMarketStaff }

// Page holds normalized limit/offset pagination.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func (p Page) query(sortBy string, asc bool) repository.PageQuery {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return repository.PageQuery{Limit: p.Limit, Offset: p.Offset, SortBy: sortBy, Asc: asc}
}

// ListResult is the paginated response body.
type ListResult[T any] struct {
	Items  []T   `json:"data"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func toList[T any](res *repository.PageResult[T], pq repository.PageQuery) *ListResult[T] {
	return &ListResult[T]{Items: res.Items, Total: res.Total, Limit: pq.Limit, Offset: pq.Offset}
}

// keyword builds a case-insensitive substring match.
func keyword(s string) repository.Filter {
	return repository.Filter{"$regex": regexp.QuoteMeta(strings.TrimSpace(s)), "$options": "i"}
}

// notifyUser sends a notification and logs delivery failures without failing the caller.
func notifyUser(ctx context.Context, n notify.Notifier, log *logx.Logger, m notify.Message) {
	if n == nil || m.UserID == "" {
		return
	}
	if err := n.Notify(ctx, m); err != nil {
		log.Error("service", "notify_failed", err, map[string]any{
			"user_id": m.UserID,
			"type":    m.Type,
		})
	}
}
