package rest

import (
	"time"

	"github.com/google/uuid"
)

// CreateAuctionRequest is the body for POST /api/v1/auctions
type CreateAuctionRequest struct {
	ListingID     *uuid.UUID `json:"listing_id,omitempty"`
	StartingPrice string     `json:"starting_price" validate:"required"`
	Currency      string     `json:"currency" validate:"omitempty,len=3"`
	StartTime     time.Time  `json:"start_time" validate:"required"`
	EndTime       time.Time  `json:"end_time" validate:"required,gtfield=StartTime"`
}

// PlaceBidRequest is the body for POST /api/v1/auctions/{id}/bids
type PlaceBidRequest struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// SetReadRequest is the body for PATCH /api/v1/notifications/{id}
type SetReadRequest struct {
	IsRead bool `json:"is_read"`
}
