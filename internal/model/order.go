package model

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderConfirmed OrderStatus = "Confirmed"
	OrderPaid      OrderStatus = "Paid"
	OrderCompleted OrderStatus = "Completed"
	OrderCancelled OrderStatus = "Cancelled"
)

var orderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderConfirmed: true, OrderPaid: true, OrderCancelled: true},
	OrderConfirmed: {OrderPaid: true, OrderCancelled: true},
	OrderPaid:      {OrderCompleted: true},
	OrderCompleted: {},
	OrderCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return orderNext[s][to]
}

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	_, ok := orderNext[s]
	return ok
}

const (
	PaymentMethodCOD   = "COD"
	PaymentMethodVNPay = "VNPay"
)

const (
	PaymentPending  = "Pending"
	PaymentPaid     = "Paid"
	PaymentFailed   = "Failed"
	PaymentRefunded = "Refunded"
)

type OrderItem struct {
	ProductID string  `json:"product_id" bson:"product_id"`
	Name      string  `json:"name" bson:"name"`
	Unit      string  `json:"unit" bson:"unit"`
	Quantity  float64 `json:"quantity" bson:"quantity"`
	UnitPrice int64   `json:"unit_price" bson:"unit_price"`
	Subtotal  int64   `json:"subtotal" bson:"subtotal"`
	BargainID string  `json:"bargain_id,omitempty" bson:"bargain_id,omitempty"`
}

type Order struct {
	ID              string      `json:"id" bson:"_id"`
	BuyerID         string      `json:"buyer_id" bson:"buyer_id"`
	SellerID        string      `json:"seller_id" bson:"seller_id"`
	StoreID         string      `json:"store_id,omitempty" bson:"store_id"`
	ProxyRequestID  string      `json:"proxy_request_id,omitempty" bson:"proxy_request_id,omitempty"`
	Items           []OrderItem `json:"items" bson:"items"`
	TotalAmount     int64       `json:"total_amount" bson:"total_amount"`
	DeliveryAddress string      `json:"delivery_address" bson:"delivery_address"`
	Note            string      `json:"note,omitempty" bson:"note"`
	PaymentMethod   string      `json:"payment_method" bson:"payment_method"`
	PaymentStatus   string      `json:"payment_status" bson:"payment_status"`
	CancelReason    string      `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CancelledBy     string      `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	Status          OrderStatus `json:"status" bson:"status"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" bson:"updated_at"`
}

// HasProduct reports whether productID is one of the order lines.
func (o *Order) HasProduct(productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
