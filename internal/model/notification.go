package model

import "time"

// Notification types.
const (
	NotifyAccount      = "Account"
	NotifyOrder        = "Order"
	NotifyRegistration = "Registration"
	NotifyProxy        = "Proxy"
	NotifyBargain      = "Bargain"
	NotifyReport       = "Report"
	NotifySupport      = "Support"
	NotifyFee          = "Fee"
)

type Notification struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	Title       string    `json:"title" bson:"title"`
	Message     string    `json:"message" bson:"message"`
	Type        string    `json:"type" bson:"type"`
	ReferenceID string    `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	IsRead      bool      `json:"is_read" bson:"is_read"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

type ChatMessage struct {
	ID         string    `json:"id" bson:"_id"`
	SenderID   string    `json:"sender_id" bson:"sender_id"`
	ReceiverID string    `json:"receiver_id" bson:"receiver_id"`
	ProductID  string    `json:"product_id,omitempty" bson:"product_id,omitempty"`
	Content    string    `json:"content" bson:"content"`
	IsRead     bool      `json:"is_read" bson:"is_read"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
