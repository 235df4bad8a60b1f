package model

import "time"

const (
	CategoryActive   = "Active"
	CategoryInactive = "Inactive"
)

type Category struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Status      string    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	ProductActive     = "Active"
	ProductOutOfStock = "OutOfStock"
	ProductInactive   = "Inactive"
	ProductDeleted    = "Deleted"
)

// MaxProductImages caps the number of images per product.
const MaxProductImages = 5

type Product struct {
	ID              string    `json:"id" bson:"_id"`
	StoreID         string    `json:"store_id" bson:"store_id"`
	SellerID        string    `json:"seller_id" bson:"seller_id"`
	MarketID        string    `json:"market_id" bson:"market_id"`
	CategoryID      string    `json:"category_id" bson:"category_id"`
	Name            string    `json:"name" bson:"name"`
	Description     string    `json:"description" bson:"description"`
	Price           int64     `json:"price" bson:"price"`
	Unit            string    `json:"unit" bson:"unit"`
	MinimumQuantity float64   `json:"minimum_quantity" bson:"minimum_quantity"`
	ImageKeys       []string  `json:"-" bson:"image_keys"`
	ImageURLs       []string  `json:"image_urls" bson:"-"`
	Rating          float64   `json:"rating" bson:"rating"`
	ReviewCount     int       `json:"review_count" bson:"review_count"`
	Status          string    `json:"status" bson:"status"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// Purchasable reports whether the product can be put in a cart.
func (p *Product) Purchasable() bool {
	return p.Status == ProductActive
}

type FavoriteProduct struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	ProductID string    `json:"product_id" bson:"product_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
