package postgres

import (
	"context"
	"database/sql"
	"errors"

	"localmart/internal/model"
	"localmart/internal/repository"
)

// PaymentPostgres is a PostgreSQL implementation of repository.PaymentLedger.
// It uses database/sql with parameterized queries and contains no business logic.
type PaymentPostgres struct {
	db *sql.DB
}

// NewPaymentPostgres creates a new PaymentPostgres ledger.
func NewPaymentPostgres(db *sql.DB) *PaymentPostgres {
	return &PaymentPostgres{db: db}
}

var _ repository.PaymentLedger = (*PaymentPostgres)(nil)

const paymentColumns = `id, txn_ref, purpose, reference_id, user_id, amount, provider, status,
		provider_txn_no, bank_code, response_code, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (*model.PaymentTransaction, error) {
	var p model.PaymentTransaction
	if err := s.Scan(
		&p.ID,
		&p.TxnRef,
		&p.Purpose,
		&p.ReferenceID,
		&p.UserID,
		&p.Amount,
		&p.Provider,
		&p.Status,
		&p.ProviderTxnNo,
		&p.BankCode,
		&p.ResponseCode,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a pending transaction and returns the stored record.
func (r *PaymentPostgres) Create(ctx context.Context, txn *model.PaymentTransaction) (*model.PaymentTransaction, error) {
	const q = `
		INSERT INTO payment_transactions (id, txn_ref, purpose, reference_id, user_id, amount, provider, status,
			provider_txn_no, bank_code, response_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + paymentColumns
	row := r.db.QueryRowContext(ctx, q,
		txn.ID,
		txn.TxnRef,
		txn.Purpose,
		txn.ReferenceID,
		txn.UserID,
		txn.Amount,
		txn.Provider,
		txn.Status,
		txn.ProviderTxnNo,
		txn.BankCode,
		txn.ResponseCode,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	return scanPayment(row)
}

// FindByTxnRef fetches a transaction by the reference sent to the gateway.
func (r *PaymentPostgres) FindByTxnRef(ctx context.Context, txnRef string) (*model.PaymentTransaction, error) {
	q := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE txn_ref = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, txnRef))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Finalize records the gateway outcome on a still-pending transaction.
// It reports false when the transaction had already been finalized.
func (r *PaymentPostgres) Finalize(ctx context.Context, txn *model.PaymentTransaction) (bool, error) {
	const q = `
		UPDATE payment_transactions
		SET status = $2, provider_txn_no = $3, bank_code = $4, response_code = $5, updated_at = $6
		WHERE txn_ref = $1 AND status = 'Pending'
	`
	res, err := r.db.ExecContext(ctx, q,
		txn.TxnRef,
		txn.Status,
		txn.ProviderTxnNo,
		txn.BankCode,
		txn.ResponseCode,
		txn.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkRefundPending moves a succeeded transaction to RefundPending.
func (r *PaymentPostgres) MarkRefundPending(ctx context.Context, txnRef string) (bool, error) {
	const q = `
		UPDATE payment_transactions
		SET status = 'RefundPending', updated_at = $2
		WHERE txn_ref = $1 AND status = 'Succeeded'
	`
	res, err := r.db.ExecContext(ctx, q, txnRef, model.Now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListByUser returns a user's transactions newest first with a total count.
func (r *PaymentPostgres) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.PaymentTransaction], error) {
	const qCount = `SELECT COUNT(*) FROM payment_transactions WHERE user_id = $1`
	var total int64
	if err := r.db.QueryRowContext(ctx, qCount, userID).Scan(&total); err != nil {
		return nil, err
	}

	qList := `SELECT ` + paymentColumns + `
		FROM payment_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, qList, userID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.PaymentTransaction, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.PaymentTransaction]{
		Items: items,
		Total: total,
	}, nil
}
