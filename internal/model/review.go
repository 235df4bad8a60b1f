package model

import "time"

const (
	TargetProduct = "Product"
	TargetStore   = "Store"
	TargetUser    = "User"
	TargetReview  = "Review"
)

const (
	ReviewActive = "Active"
	ReviewHidden = "Hidden"
)

type Review struct {
	ID             string    `json:"id" bson:"_id"`
	UserID         string    `json:"user_id" bson:"user_id"`
	OrderID        string    `json:"order_id" bson:"order_id"`
	TargetType     string    `json:"target_type" bson:"target_type"`
	TargetID       string    `json:"target_id" bson:"target_id"`
	Rating         int       `json:"rating" bson:"rating"`
	Comment        string    `json:"comment" bson:"comment"`
	SellerResponse string    `json:"seller_response,omitempty" bson:"seller_response"`
	Status         string    `json:"status" bson:"status"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	ReportPending   = "Pending"
	ReportResolved  = "Resolved"
	ReportDismissed = "Dismissed"
)

type Report struct {
	ID          string    `json:"id" bson:"_id"`
	ReporterID  string    `json:"reporter_id" bson:"reporter_id"`
	TargetType  string    `json:"target_type" bson:"target_type"`
	TargetID    string    `json:"target_id" bson:"target_id"`
	Reason      string    `json:"reason" bson:"reason"`
	Description string    `json:"description" bson:"description"`
	AdminNote   string    `json:"admin_note,omitempty" bson:"admin_note"`
	HandledBy   string    `json:"handled_by,omitempty" bson:"handled_by"`
	Status      string    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

type FAQ struct {
	ID        string    `json:"id" bson:"_id"`
	Question  string    `json:"question" bson:"question"`
	Answer    string    `json:"answer" bson:"answer"`
	Category  string    `json:"category" bson:"category"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	SupportOpen       = "Open"
	SupportInProgress = "InProgress"
	SupportResolved   = "Resolved"
	SupportClosed     = "Closed"
)

type SupportRequest struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	Subject     string    `json:"subject" bson:"subject"`
	Description string    `json:"description" bson:"description"`
	Response    string    `json:"response,omitempty" bson:"response"`
	RespondedBy string    `json:"responded_by,omitempty" bson:"responded_by"`
	Status      string    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
