package model

import "time"

// Roles.
const (
	RoleBuyer        = "Buyer"
	RoleSeller       = "Seller"
	RoleProxyShopper = "ProxyShopper"
	RoleMarketStaff  = "MarketStaff"
	RoleAdmin        = "Admin"
)

// User statuses.
const (
	UserActive   = "Active"
	UserDisabled = "Disabled"
	UserDeleted  = "Deleted"
)

// Loyalty tiers.
const (
	TierBronze   = "Bronze"
	TierSilver   = "Silver"
	TierGold     = "Gold"
	TierPlatinum = "Platinum"
)

type User struct {
	ID            string    `json:"id" bson:"_id"`
	Username      string    `json:"username" bson:"username"`
	Email         string    `json:"email" bson:"email"`
	PasswordHash  string    `json:"-" bson:"password_hash"`
	FullName      string    `json:"full_name" bson:"full_name"`
	PhoneNumber   string    `json:"phone_number" bson:"phone_number"`
	Address       string    `json:"address" bson:"address"`
	Role          string    `json:"role" bson:"role"`
	Status        string    `json:"status" bson:"status"`
	EmailVerified bool      `json:"email_verified" bson:"email_verified"`
	LoyaltyScore  int       `json:"loyalty_score" bson:"loyalty_score"`
	LoyaltyTier   string    `json:"loyalty_tier" bson:"loyalty_tier"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// IsValidRole reports whether r is one of the known roles.
func IsValidRole(r string) bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleProxyShopper, RoleMarketStaff, RoleAdmin:
		return true
	}
	return false
}
