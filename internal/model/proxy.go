package model

import "time"

type ProxyStatus string

const (
	ProxyOpen            ProxyStatus = "Open"
	ProxyAccepted        ProxyStatus = "Accepted"
	ProxyProposed        ProxyStatus = "Proposed"
	ProxyAwaitingPayment ProxyStatus = "AwaitingPayment"
	ProxyInProgress      ProxyStatus = "InProgress"
	ProxyCompleted       ProxyStatus = "Completed"
	ProxyCancelled       ProxyStatus = "Cancelled"
	ProxyExpired         ProxyStatus = "Expired"
)

// Limits for a proxy shopping request.
const (
	MaxProxyItems       = 20
	MaxProxyFeePercent  = 50
	ProxyRequestTimeout = 24 * time.Hour
)

type ProxyRequestItem struct {
	Name     string  `json:"name" bson:"name" validate:"required,max=200"`
	Quantity float64 `json:"quantity" bson:"quantity" validate:"gt=0"`
	Unit     string  `json:"unit" bson:"unit" validate:"required,max=30"`
}

type ProxyProposal struct {
	Items        []OrderItem `json:"items" bson:"items"`
	ProductTotal int64       `json:"product_total" bson:"product_total"`
	ProxyFee     int64       `json:"proxy_fee" bson:"proxy_fee"`
	TotalAmount  int64       `json:"total_amount" bson:"total_amount"`
	Note         string      `json:"note,omitempty" bson:"note"`
	ProposedAt   time.Time   `json:"proposed_at" bson:"proposed_at"`
}

type ProxyRequest struct {
	ID              string             `json:"id" bson:"_id"`
	BuyerID         string             `json:"buyer_id" bson:"buyer_id"`
	ProxyShopperID  string             `json:"proxy_shopper_id,omitempty" bson:"proxy_shopper_id"`
	MarketID        string             `json:"market_id" bson:"market_id"`
	Items           []ProxyRequestItem `json:"items" bson:"items"`
	DeliveryAddress string             `json:"delivery_address" bson:"delivery_address"`
	Note            string             `json:"note,omitempty" bson:"note"`
	Proposal        *ProxyProposal     `json:"proposal,omitempty" bson:"proposal,omitempty"`
	RejectReason    string             `json:"reject_reason,omitempty" bson:"reject_reason,omitempty"`
	OrderID         string             `json:"order_id,omitempty" bson:"order_id,omitempty"`
	ProofImageKey   string             `json:"-" bson:"proof_image_key,omitempty"`
	Status          ProxyStatus        `json:"status" bson:"status"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}
