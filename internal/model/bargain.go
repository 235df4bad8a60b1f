package model

import "time"

type BargainStatus string

const (
	BargainPending   BargainStatus = "Pending"
	BargainAccepted  BargainStatus = "Accepted"
	BargainRejected  BargainStatus = "Rejected"
	BargainExpired   BargainStatus = "Expired"
	BargainCancelled BargainStatus = "Cancelled"
)

// Bargaining limits.
const (
	MaxBuyerProposals = 3
	BargainTTL        = 24 * time.Hour
)

type BargainProposal struct {
	UserID     string    `json:"user_id" bson:"user_id"`
	Price      int64     `json:"price" bson:"price"`
	ProposedAt time.Time `json:"proposed_at" bson:"proposed_at"`
}

type FastBargain struct {
	ID            string            `json:"id" bson:"_id"`
	ProductID     string            `json:"product_id" bson:"product_id"`
	StoreID       string            `json:"store_id" bson:"store_id"`
	SellerID      string            `json:"seller_id" bson:"seller_id"`
	BuyerID       string            `json:"buyer_id" bson:"buyer_id"`
	OriginalPrice int64             `json:"original_price" bson:"original_price"`
	Quantity      float64           `json:"quantity" bson:"quantity"`
	Proposals     []BargainProposal `json:"proposals" bson:"proposals"`
	FinalPrice    int64             `json:"final_price,omitempty" bson:"final_price,omitempty"`
	UsedInOrder   bool              `json:"used_in_order" bson:"used_in_order"`
	ExpiresAt     time.Time         `json:"expires_at" bson:"expires_at"`
	Status        BargainStatus     `json:"status" bson:"status"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" bson:"updated_at"`
}

// LastProposal returns the most recent proposal or nil.
func (b *FastBargain) LastProposal() *BargainProposal {
	if len(b.Proposals) == 0 {
		return nil
	}
	return &b.Proposals[len(b.Proposals)-1]
}

// BuyerProposalCount counts proposals made by the buyer.
func (b *FastBargain) BuyerProposalCount() int {
	n := 0
	for _, p := range b.Proposals {
		if p.UserID == b.BuyerID {
			n++
		}
	}
	return n
}
