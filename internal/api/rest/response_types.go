package rest

import (
	"time"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
)

// MoneyResponse renders an amount with its currency
type MoneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// CountdownResponse is the server-computed remaining time view. Clients
// render it as-is; the server decides when an auction has ended.
type CountdownResponse struct {
	RemainingSeconds int64  `json:"remaining_seconds"`
	Label            string `json:"label"`
	Expired          bool   `json:"expired"`
}

// AuctionResponse renders an auction with its countdown
type AuctionResponse struct {
	ID              string             `json:"id"`
	ListingID       *string            `json:"listing_id,omitempty"`
	SellerID        string             `json:"seller_id"`
	StartingPrice   MoneyResponse      `json:"starting_price"`
	CurrentBid      *MoneyResponse     `json:"current_bid,omitempty"`
	CurrentBidderID *string            `json:"current_bidder_id,omitempty"`
	BidCount        int                `json:"bid_count"`
	Status          string             `json:"status"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         time.Time          `json:"end_time"`
	Countdown       *CountdownResponse `json:"countdown,omitempty"`
}

// BidResponse renders a bid
type BidResponse struct {
	ID        string        `json:"id"`
	AuctionID string        `json:"auction_id"`
	BidderID  string        `json:"bidder_id"`
	Amount    MoneyResponse `json:"amount"`
	CreatedAt time.Time     `json:"created_at"`
}

// NotificationResponse renders a notification
type NotificationResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	IsRead        bool      `json:"is_read"`
	ListingID     *string   `json:"listing_id,omitempty"`
	RelatedUserID *string   `json:"related_user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// UnreadCountResponse is the body for GET /api/v1/notifications/unread-count
type UnreadCountResponse struct {
	Count int `json:"count"`
}

func toCountdownResponse(c auction.Countdown) *CountdownResponse {
	return &CountdownResponse{
		RemainingSeconds: int64(c.Remaining.Seconds()),
		Label:            c.Label,
		Expired:          c.Expired,
	}
}

func toAuctionResponse(a *auction.Auction, countdown *auction.Countdown) AuctionResponse {
	resp := AuctionResponse{
		ID:       a.ID.String(),
		SellerID: a.SellerID.String(),
		StartingPrice: MoneyResponse{
			Amount:   a.StartingPrice.Amount().String(),
			Currency: a.StartingPrice.Currency(),
		},
		BidCount:  a.BidCount,
		Status:    a.Status.String(),
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
	}
	if a.ListingID != nil {
		s := a.ListingID.String()
		resp.ListingID = &s
	}
	if a.CurrentBid != nil {
		resp.CurrentBid = &MoneyResponse{
			Amount:   a.CurrentBid.Amount().String(),
			Currency: a.CurrentBid.Currency(),
		}
	}
	if a.CurrentBidderID != nil {
		s := a.CurrentBidderID.String()
		resp.CurrentBidderID = &s
	}
	if countdown != nil {
		resp.Countdown = toCountdownResponse(*countdown)
	}
	return resp
}

func toBidResponse(b *bid.Bid) BidResponse {
	return BidResponse{
		ID:        b.ID.String(),
		AuctionID: b.AuctionID.String(),
		BidderID:  b.BidderID.String(),
		Amount: MoneyResponse{
			Amount:   b.Amount.Amount().String(),
			Currency: b.Amount.Currency(),
		},
		CreatedAt: b.CreatedAt,
	}
}

func toNotificationResponse(n *notification.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.ListingID != nil {
		s := n.ListingID.String()
		resp.ListingID = &s
	}
	if n.RelatedUserID != nil {
		s := n.RelatedUserID.String()
		resp.RelatedUserID = &s
	}
	return resp
}
