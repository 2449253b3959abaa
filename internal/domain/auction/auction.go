package auction

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// Auction is the shared mutable resource of the marketplace. CurrentBid is
// monotonically non-decreasing and, when set, always >= StartingPrice. Status
// moves one-way: scheduled -> active -> ended. Ended is terminal regardless of
// wall-clock time.
type Auction struct {
	ID              uuid.UUID    `json:"id"`
	ListingID       *uuid.UUID   `json:"listing_id,omitempty"`
	SellerID        uuid.UUID    `json:"seller_id"`
	StartingPrice   values.Money `json:"starting_price"`
	CurrentBid      *values.Money `json:"current_bid,omitempty"`
	CurrentBidderID *uuid.UUID   `json:"current_bidder_id,omitempty"`
	BidCount        int          `json:"bid_count"`
	Status          Status       `json:"status"`
	StartTime       time.Time    `json:"start_time"`
	EndTime         time.Time    `json:"end_time"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type Status int

const (
	StatusScheduled Status = iota
	StatusActive
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusActive:
		return "active"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// ParseStatus converts a stored status string back to a Status
func ParseStatus(s string) Status {
	switch s {
	case "scheduled":
		return StatusScheduled
	case "active":
		return StatusActive
	case "ended":
		return StatusEnded
	default:
		return StatusScheduled
	}
}

// NewAuction creates a scheduled auction. Auctions whose start time has
// already passed are created active directly.
func NewAuction(sellerID uuid.UUID, listingID *uuid.UUID, startingPrice values.Money, startTime, endTime time.Time) (*Auction, error) {
	if !startingPrice.IsPositive() {
		return nil, errors.NewValidationError("INVALID_STARTING_PRICE", "starting price must be positive")
	}
	if !endTime.After(startTime) {
		return nil, errors.NewValidationError("INVALID_END_TIME", "end time must be after start time")
	}

	now := time.Now().UTC()
	a := &Auction{
		ID:            uuid.New(),
		SellerID:      sellerID,
		ListingID:     listingID,
		StartingPrice: startingPrice,
		Status:        StatusScheduled,
		StartTime:     startTime,
		EndTime:       endTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// A window that already opened goes active immediately.
	if !startTime.After(now) {
		if err := a.Activate(now); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Activate transitions scheduled -> active
func (a *Auction) Activate(now time.Time) error {
	if a.Status != StatusScheduled {
		return errors.NewConflictError("auction is not scheduled")
	}
	if now.Before(a.StartTime) {
		return errors.ErrAuctionNotActive
	}
	a.Status = StatusActive
	a.UpdatedAt = now
	return nil
}

// End transitions active -> ended. There is no transition out of ended.
func (a *Auction) End(now time.Time) error {
	if a.Status == StatusEnded {
		return errors.NewConflictError("auction already ended")
	}
	if a.Status != StatusActive {
		return errors.ErrAuctionNotActive
	}
	a.Status = StatusEnded
	a.UpdatedAt = now
	return nil
}

// ApplyBid records an accepted bid on the aggregate. Validation is the bid
// package's responsibility; this only mutates state.
func (a *Auction) ApplyBid(bidderID uuid.UUID, amount values.Money, now time.Time) {
	a.CurrentBid = &amount
	a.CurrentBidderID = &bidderID
	a.BidCount++
	a.UpdatedAt = now
}

// IsExpired reports whether wall-clock time has passed the end time
func (a *Auction) IsExpired(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// HighBid returns the effective bid floor: the current bid if any bid has
// been accepted, otherwise the starting price.
func (a *Auction) HighBid() values.Money {
	if a.CurrentBid != nil {
		return *a.CurrentBid
	}
	return a.StartingPrice
}

// Sold reports whether the auction ended with at least one accepted bid
func (a *Auction) Sold() bool {
	return a.Status == StatusEnded && a.CurrentBidderID != nil
}
