package bid

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// Bid is an accepted offer on an auction. Bids are immutable once created;
// there is no retraction or editing (product rule, not an oversight).
type Bid struct {
	ID        uuid.UUID    `json:"id"`
	AuctionID uuid.UUID    `json:"auction_id"`
	BidderID  uuid.UUID    `json:"bidder_id"`
	Amount    values.Money `json:"amount"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewBid creates a bid record. Amount validation happens in Validate; this
// is only called for amounts that already passed it.
func NewBid(auctionID, bidderID uuid.UUID, amount values.Money) *Bid {
	return &Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}
