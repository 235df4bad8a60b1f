package model

import "time"

const (
	PurposeOrder     = "order"
	PurposeMarketFee = "market_fee"
)

const (
	TxnPending   = "Pending"
	TxnSucceeded = "Succeeded"
	TxnFailed    = "Failed"
	// TxnRefundPending marks captured money whose order or fee could no longer take it.
	TxnRefundPending = "RefundPending"
)

// PaymentTransaction is a gateway payment attempt, kept in the relational ledger.
type PaymentTransaction struct {
	ID            string    `json:"id"`
	TxnRef        string    `json:"txn_ref"`
	Purpose       string    `json:"purpose"`
	ReferenceID   string    `json:"reference_id"`
	UserID        string    `json:"user_id"`
	Amount        int64     `json:"amount"`
	Provider      string    `json:"provider"`
	Status        string    `json:"status"`
	ProviderTxnNo string    `json:"provider_txn_no,omitempty"`
	BankCode      string    `json:"bank_code,omitempty"`
	ResponseCode  string    `json:"response_code,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
