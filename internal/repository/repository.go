// Package repository contains data access layer abstractions.
// Implementations live in subpackages (mongo for the document store, postgres for the payment ledger).
package repository

import (
	"context"
	"errors"

	"localmart/internal/model"
)

// ErrNotFound is returned when no record matches an id or filter.
var ErrNotFound = errors.New("record not found")

// Filter is a driver-level query document (field -> value or operator map).
type Filter map[string]any

// PageQuery holds limit/offset pagination parameters and an optional sort field.
type PageQuery struct {
	Limit  int
	Offset int
	SortBy string
	Asc    bool
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int64
}

// Repository is the generic per-entity data access contract. It contains no business
// logic; every method is a single store round trip.
type Repository[T any] interface {
	// Create inserts a new record. The caller sets the id and timestamps.
	Create(ctx context.Context, doc *T) error

	// FindByID returns the record with the given id or ErrNotFound.
	FindByID(ctx context.Context, id string) (*T, error)

	// FindOne returns the first record matching the filter or ErrNotFound.
	FindOne(ctx context.Context, f Filter) (*T, error)

	// FindMany returns every record matching the filter, newest first.
	FindMany(ctx context.Context, f Filter) ([]T, error)

	// List returns one page of records matching the filter plus the total count.
	List(ctx context.Context, f Filter, pq PageQuery) (*PageResult[T], error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, f Filter) (int64, error)

	// Replace overwrites the whole record. Returns ErrNotFound if the id is unknown.
	Replace(ctx context.Context, id string, doc *T) error

	// Update sets the given fields on one record. Returns ErrNotFound if the id is unknown.
	Update(ctx context.Context, id string, fields Filter) error

	// UpdateMany sets the given fields on every matching record and returns the modified count.
	UpdateMany(ctx context.Context, f Filter, fields Filter) (int64, error)

	// Delete removes a record by id. Returns ErrNotFound if nothing was removed.
	Delete(ctx context.Context, id string) error
}

// PaymentLedger stores gateway payment attempts in the relational database.
type PaymentLedger interface {
	// Create inserts a pending transaction.
	Create(ctx context.Context, txn *model.PaymentTransaction) (*model.PaymentTransaction, error)

	// FindByTxnRef returns a transaction by its gateway reference or ErrNotFound.
	FindByTxnRef(ctx context.Context, txnRef string) (*model.PaymentTransaction, error)

	// Finalize moves a pending transaction to a final status. It returns false when the
	// transaction was already final, which makes repeated gateway callbacks harmless.
	Finalize(ctx context.Context, txn *model.PaymentTransaction) (bool, error)

	// MarkRefundPending flags a succeeded transaction for a manual refund.
	MarkRefundPending(ctx context.Context, txnRef string) (bool, error)

	// ListByUser returns the user's transactions, newest first.
	ListByUser(ctx context.Context, userID string, pq PageQuery) (*PageResult[model.PaymentTransaction], error)
}
