package model

import "time"

const (
	StoreOpen      = "Open"
	StoreClosed    = "Closed"
	StoreSuspended = "Suspended"
)

type Store struct {
	ID            string    `json:"id" bson:"_id"`
	SellerID      string    `json:"seller_id" bson:"seller_id"`
	MarketID      string    `json:"market_id" bson:"market_id"`
	Name          string    `json:"name" bson:"name"`
	Address       string    `json:"address" bson:"address"`
	ContactNumber string    `json:"contact_number" bson:"contact_number"`
	Description   string    `json:"description" bson:"description"`
	LogoKey       string    `json:"-" bson:"logo_key"`
	LogoURL       string    `json:"logo_url,omitempty" bson:"-"`
	Rating        float64   `json:"rating" bson:"rating"`
	ReviewCount   int       `json:"review_count" bson:"review_count"`
	FollowerCount int       `json:"follower_count" bson:"follower_count"`
	Status        string    `json:"status" bson:"status"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

type StoreFollow struct {
	ID        string    `json:"id" bson:"_id"`
	StoreID   string    `json:"store_id" bson:"store_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Registration statuses shared by seller and proxy shopper applications.
const (
	RegistrationPending  = "Pending"
	RegistrationApproved = "Approved"
	RegistrationRejected = "Rejected"
)

type SellerRegistration struct {
	ID              string    `json:"id" bson:"_id"`
	UserID          string    `json:"user_id" bson:"user_id"`
	MarketID        string    `json:"market_id" bson:"market_id"`
	StoreName       string    `json:"store_name" bson:"store_name"`
	StoreAddress    string    `json:"store_address" bson:"store_address"`
	ContactNumber   string    `json:"contact_number" bson:"contact_number"`
	Description     string    `json:"description" bson:"description"`
	RejectionReason string    `json:"rejection_reason,omitempty" bson:"rejection_reason"`
	ReviewedBy      string    `json:"reviewed_by,omitempty" bson:"reviewed_by"`
	Status          string    `json:"status" bson:"status"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	LicensePending  = "Pending"
	LicenseVerified = "Verified"
	LicenseRejected = "Rejected"
)

type SellerLicense struct {
	ID            string     `json:"id" bson:"_id"`
	SellerID      string     `json:"seller_id" bson:"seller_id"`
	LicenseType   string     `json:"license_type" bson:"license_type"`
	LicenseNumber string     `json:"license_number" bson:"license_number"`
	DocumentKey   string     `json:"-" bson:"document_key"`
	IssueDate     *time.Time `json:"issue_date,omitempty" bson:"issue_date,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty" bson:"expiry_date,omitempty"`
	ReviewerNote  string     `json:"reviewer_note,omitempty" bson:"reviewer_note"`
	Status        string     `json:"status" bson:"status"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"`
}

type ProxyShopperRegistration struct {
	ID              string    `json:"id" bson:"_id"`
	UserID          string    `json:"user_id" bson:"user_id"`
	OperatingArea   string    `json:"operating_area" bson:"operating_area"`
	TransportMethod string    `json:"transport_method" bson:"transport_method"`
	RejectionReason string    `json:"rejection_reason,omitempty" bson:"rejection_reason"`
	Status          string    `json:"status" bson:"status"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}
