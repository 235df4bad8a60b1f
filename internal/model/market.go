package model

import "time"

const (
	MarketActive    = "Active"
	MarketSuspended = "Suspended"
)

type MarketRule struct {
	Title   string `json:"title" bson:"title" validate:"required,max=200"`
	Content string `json:"content" bson:"content" validate:"required"`
}

type Market struct {
	ID             string       `json:"id" bson:"_id"`
	Name           string       `json:"name" bson:"name"`
	Address        string       `json:"address" bson:"address"`
	ContactInfo    string       `json:"contact_info" bson:"contact_info"`
	OperatingHours string       `json:"operating_hours" bson:"operating_hours"`
	Description    string       `json:"description" bson:"description"`
	Rules          []MarketRule `json:"rules" bson:"rules"`
	Status         string       `json:"status" bson:"status"`
	CreatedAt      time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" bson:"updated_at"`
}

const (
	FeeActive   = "Active"
	FeeInactive = "Inactive"
)

// MarketFee is a recurring monthly charge levied on every open store of a market.
type MarketFee struct {
	ID          string    `json:"id" bson:"_id"`
	MarketID    string    `json:"market_id" bson:"market_id"`
	Name        string    `json:"name" bson:"name"`
	FeeType     string    `json:"fee_type" bson:"fee_type"`
	Amount      int64     `json:"amount" bson:"amount"`
	PaymentDay  int       `json:"payment_day" bson:"payment_day"`
	Description string    `json:"description" bson:"description"`
	Status      string    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	FeePaymentPending   = "Pending"
	FeePaymentCompleted = "Completed"
	FeePaymentOverdue   = "Overdue"
)

type MarketFeePayment struct {
	ID          string     `json:"id" bson:"_id"`
	MarketFeeID string     `json:"market_fee_id" bson:"market_fee_id"`
	MarketID    string     `json:"market_id" bson:"market_id"`
	StoreID     string     `json:"store_id" bson:"store_id"`
	SellerID    string     `json:"seller_id" bson:"seller_id"`
	FeeName     string     `json:"fee_name" bson:"fee_name"`
	Amount      int64      `json:"amount" bson:"amount"`
	Period      string     `json:"period" bson:"period"`
	DueDate     time.Time  `json:"due_date" bson:"due_date"`
	PaidAt      *time.Time `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	Status      string     `json:"status" bson:"status"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}
