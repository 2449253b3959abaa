package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// AuctionBuilder builds test Auction entities
type AuctionBuilder struct {
	id              uuid.UUID
	listingID       *uuid.UUID
	sellerID        uuid.UUID
	startingPrice   values.Money
	currentBid      *values.Money
	currentBidderID *uuid.UUID
	bidCount        int
	status          auction.Status
	startTime       time.Time
	endTime         time.Time
}

// NewAuctionBuilder creates a builder for an active auction ending in an hour
func NewAuctionBuilder() *AuctionBuilder {
	now := time.Now().UTC()
	listingID := uuid.New()
	return &AuctionBuilder{
		id:            uuid.New(),
		listingID:     &listingID,
		sellerID:      uuid.New(),
		startingPrice: values.MustNewMoneyFromFloat(100.00, values.USD),
		status:        auction.StatusActive,
		startTime:     now.Add(-time.Hour),
		endTime:       now.Add(time.Hour),
	}
}

func (b *AuctionBuilder) WithID(id uuid.UUID) *AuctionBuilder {
	b.id = id
	return b
}

func (b *AuctionBuilder) WithSeller(id uuid.UUID) *AuctionBuilder {
	b.sellerID = id
	return b
}

func (b *AuctionBuilder) WithStartingPrice(amount float64) *AuctionBuilder {
	b.startingPrice = values.MustNewMoneyFromFloat(amount, values.USD)
	return b
}

func (b *AuctionBuilder) WithCurrentBid(amount float64, bidderID uuid.UUID) *AuctionBuilder {
	m := values.MustNewMoneyFromFloat(amount, values.USD)
	b.currentBid = &m
	b.currentBidderID = &bidderID
	b.bidCount++
	return b
}

func (b *AuctionBuilder) WithStatus(status auction.Status) *AuctionBuilder {
	b.status = status
	return b
}

func (b *AuctionBuilder) WithWindow(start, end time.Time) *AuctionBuilder {
	b.startTime = start
	b.endTime = end
	return b
}

// Scheduled configures a not-yet-started auction
func (b *AuctionBuilder) Scheduled(startsIn time.Duration) *AuctionBuilder {
	now := time.Now().UTC()
	b.status = auction.StatusScheduled
	b.startTime = now.Add(startsIn)
	b.endTime = b.startTime.Add(24 * time.Hour)
	return b
}

// Ended configures a terminal auction
func (b *AuctionBuilder) Ended() *AuctionBuilder {
	now := time.Now().UTC()
	b.status = auction.StatusEnded
	b.startTime = now.Add(-48 * time.Hour)
	b.endTime = now.Add(-time.Hour)
	return b
}

// Build constructs the auction
func (b *AuctionBuilder) Build() *auction.Auction {
	now := time.Now().UTC()
	return &auction.Auction{
		ID:              b.id,
		ListingID:       b.listingID,
		SellerID:        b.sellerID,
		StartingPrice:   b.startingPrice,
		CurrentBid:      b.currentBid,
		CurrentBidderID: b.currentBidderID,
		BidCount:        b.bidCount,
		Status:          b.status,
		StartTime:       b.startTime,
		EndTime:         b.endTime,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
