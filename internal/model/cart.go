package model

import "time"

type CartItem struct {
	ProductID string    `json:"product_id" bson:"product_id"`
	Quantity  float64   `json:"quantity" bson:"quantity"`
	BargainID string    `json:"bargain_id,omitempty" bson:"bargain_id,omitempty"`
	UnitPrice int64     `json:"unit_price,omitempty" bson:"unit_price,omitempty"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
}

// Cart is one document per user; items are embedded.
type Cart struct {
	ID        string     `json:"id" bson:"_id"`
	UserID    string     `json:"user_id" bson:"user_id"`
	Items     []CartItem `json:"items" bson:"items"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// ItemIndex returns the position of productID in the cart or -1.
func (c *Cart) ItemIndex(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
