package websocket

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
)

// AuctionEventType represents the type of auction event
type AuctionEventType string

const (
	AuctionEventBidPlaced     AuctionEventType = "auction.bid_placed"
	AuctionEventStatusChanged AuctionEventType = "auction.status_changed"
	AuctionEventCountdown     AuctionEventType = "auction.countdown"
)

// AuctionEvent is a realtime update pushed to subscribed clients. It carries
// the authoritative server state; clients render countdowns and bid floors
// from it and never decide expiry themselves.
type AuctionEvent struct {
	ID        string           `json:"id"`
	Type      AuctionEventType `json:"type"`
	AuctionID string           `json:"auction_id"`
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Data      interface{}      `json:"data,omitempty"`
}

// BidPlacedData is the payload for a bid placed event
type BidPlacedData struct {
	BidID      string `json:"bid_id"`
	BidderID   string `json:"bidder_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	BidCount   int    `json:"bid_count"`
	EndTimeUTC string `json:"end_time_utc"`
}

// CountdownData is the payload for a countdown tick event
type CountdownData struct {
	RemainingSeconds int64  `json:"remaining_seconds"`
	Label            string `json:"label"`
	Expired          bool   `json:"expired"`
}

// StatusChangedData is the payload for a status change event
type StatusChangedData struct {
	Sold       bool    `json:"sold"`
	WinnerID   *string `json:"winner_id,omitempty"`
	FinalBid   *string `json:"final_bid,omitempty"`
	EndTimeUTC string  `json:"end_time_utc"`
}

func newBidPlacedEvent(a *auction.Auction, b *bid.Bid) *AuctionEvent {
	return &AuctionEvent{
		ID:        uuid.New().String(),
		Type:      AuctionEventBidPlaced,
		AuctionID: a.ID.String(),
		Status:    a.Status.String(),
		Timestamp: time.Now().UTC(),
		Data: BidPlacedData{
			BidID:      b.ID.String(),
			BidderID:   b.BidderID.String(),
			Amount:     b.Amount.Amount().String(),
			Currency:   b.Amount.Currency(),
			BidCount:   a.BidCount,
			EndTimeUTC: a.EndTime.UTC().Format(time.RFC3339),
		},
	}
}

func newCountdownEvent(auctionID uuid.UUID, cd auction.Countdown) *AuctionEvent {
	status := auction.StatusActive.String()
	if cd.Expired {
		status = auction.StatusEnded.String()
	}
	return &AuctionEvent{
		ID:        uuid.New().String(),
		Type:      AuctionEventCountdown,
		AuctionID: auctionID.String(),
		Status:    status,
		Timestamp: time.Now().UTC(),
		Data: CountdownData{
			RemainingSeconds: int64(cd.Remaining.Seconds()),
			Label:            cd.Label,
			Expired:          cd.Expired,
		},
	}
}

func newStatusChangedEvent(a *auction.Auction) *AuctionEvent {
	data := StatusChangedData{
		Sold:       a.Sold(),
		EndTimeUTC: a.EndTime.UTC().Format(time.RFC3339),
	}
	if a.Sold() {
		winner := a.CurrentBidderID.String()
		final := a.CurrentBid.Amount().String()
		data.WinnerID = &winner
		data.FinalBid = &final
	}
	return &AuctionEvent{
		ID:        uuid.New().String(),
		Type:      AuctionEventStatusChanged,
		AuctionID: a.ID.String(),
		Status:    a.Status.String(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
