package bid

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// Acceptance is the outcome of a successfully validated bid: the new current
// bid and, when a prior high bidder exists, the target of the outbid
// notification. The bidder who just bid is never the outbid target.
type Acceptance struct {
	NewCurrentBid    values.Money
	PreviousBidderID *uuid.UUID
}

// Validate is the pure bid decision function. It has no side effects;
// persistence and notification emission belong to the caller. The same
// function runs twice per bid: once against the client-visible snapshot for
// fast rejection, and once inside the placement transaction against the
// stored row, which is the authoritative check.
//
// Rules:
//   - ended status or now >= endTime rejects with ErrAuctionClosed
//   - non-positive or non-finite amounts reject with ErrInvalidAmount
//   - amount must be strictly greater than the current bid, or strictly
//     greater than the starting price when no bid exists yet
func Validate(a *auction.Auction, bidderID uuid.UUID, amount values.Money, now time.Time) (*Acceptance, error) {
	if a.Status == auction.StatusEnded || a.IsExpired(now) {
		return nil, errors.ErrAuctionClosed
	}
	if a.Status != auction.StatusActive {
		return nil, errors.ErrAuctionNotActive
	}

	if bidderID == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_BIDDER_ID", "bidder ID is required")
	}

	// Non-finite inputs never reach Money (decimal parsing rejects them),
	// so positivity is the remaining amount check.
	if !amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}
	if amount.Currency() != a.StartingPrice.Currency() {
		return nil, errors.ErrInvalidAmount.WithDetails(map[string]interface{}{
			"auction_currency": a.StartingPrice.Currency(),
			"bid_currency":     amount.Currency(),
		})
	}

	floor := a.HighBid()
	if !amount.GreaterThan(floor) {
		return nil, errors.ErrBidTooLow.WithDetails(map[string]interface{}{
			"minimum_exclusive": floor.String(),
			"proposed":          amount.String(),
		})
	}

	acc := &Acceptance{NewCurrentBid: amount}
	// A bidder raising their own high bid has nobody to outbid.
	if a.CurrentBidderID != nil && *a.CurrentBidderID != bidderID {
		prev := *a.CurrentBidderID
		acc.PreviousBidderID = &prev
	}
	return acc, nil
}
