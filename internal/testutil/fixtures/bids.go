package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// BidBuilder builds test Bid entities
type BidBuilder struct {
	id        uuid.UUID
	auctionID uuid.UUID
	bidderID  uuid.UUID
	amount    values.Money
	createdAt time.Time
}

// NewBidBuilder creates a builder with defaults
func NewBidBuilder() *BidBuilder {
	return &BidBuilder{
		id:        uuid.New(),
		auctionID: uuid.New(),
		bidderID:  uuid.New(),
		amount:    values.MustNewMoneyFromFloat(150.00, values.USD),
		createdAt: time.Now().UTC(),
	}
}

func (b *BidBuilder) WithAuction(id uuid.UUID) *BidBuilder {
	b.auctionID = id
	return b
}

func (b *BidBuilder) WithBidder(id uuid.UUID) *BidBuilder {
	b.bidderID = id
	return b
}

func (b *BidBuilder) WithAmount(amount float64) *BidBuilder {
	b.amount = values.MustNewMoneyFromFloat(amount, values.USD)
	return b
}

func (b *BidBuilder) WithCreatedAt(t time.Time) *BidBuilder {
	b.createdAt = t
	return b
}

// Build constructs the bid
func (b *BidBuilder) Build() *bid.Bid {
	return &bid.Bid{
		ID:        b.id,
		AuctionID: b.auctionID,
		BidderID:  b.bidderID,
		Amount:    b.amount,
		CreatedAt: b.createdAt,
	}
}
