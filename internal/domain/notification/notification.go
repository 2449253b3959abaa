package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// Type enumerates the notification kinds the platform emits
type Type string

const (
	TypeBid          Type = "bid"
	TypeOutbid       Type = "outbid"
	TypeSale         Type = "sale"
	TypeAuctionStart Type = "auction_start"
	TypeAuctionEnd   Type = "auction_end"
	TypeAuctionWon   Type = "auction_won"
	TypeMessage      Type = "message"
	TypeFavorite     Type = "favorite"
	TypeReview       Type = "review"
	TypeSystem       Type = "system"
)

// Valid reports whether t is a known notification type
func (t Type) Valid() bool {
	switch t {
	case TypeBid, TypeOutbid, TypeSale, TypeAuctionStart, TypeAuctionEnd,
		TypeAuctionWon, TypeMessage, TypeFavorite, TypeReview, TypeSystem:
		return true
	}
	return false
}

// Notification is created only as a side effect of state transitions; after
// creation the only mutations are the read flag and deletion.
type Notification struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Type          Type       `json:"type"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	IsRead        bool       `json:"is_read"`
	ListingID     *uuid.UUID `json:"listing_id,omitempty"`
	RelatedUserID *uuid.UUID `json:"related_user_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// New creates an unread notification
func New(userID uuid.UUID, typ Type, title, message string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}
}

// WithListing attaches the listing reference
func (n *Notification) WithListing(listingID *uuid.UUID) *Notification {
	n.ListingID = listingID
	return n
}

// WithRelatedUser attaches the counterparty reference
func (n *Notification) WithRelatedUser(userID uuid.UUID) *Notification {
	n.RelatedUserID = &userID
	return n
}

// NewOutbid targets the previous high bidder after a higher bid lands
func NewOutbid(previousBidder uuid.UUID, newBidder uuid.UUID, listingID *uuid.UUID, amount values.Money) *Notification {
	return New(previousBidder, TypeOutbid, "You have been outbid",
		fmt.Sprintf("A new bid of %s has exceeded yours.", amount)).
		WithListing(listingID).
		WithRelatedUser(newBidder)
}

// NewAuctionWon targets the final high bidder at settlement
func NewAuctionWon(winner uuid.UUID, listingID *uuid.UUID, amount values.Money) *Notification {
	return New(winner, TypeAuctionWon, "You won the auction",
		fmt.Sprintf("Your bid of %s won the auction.", amount)).
		WithListing(listingID)
}

// NewSale targets the seller at settlement
func NewSale(seller uuid.UUID, winner uuid.UUID, listingID *uuid.UUID, amount values.Money) *Notification {
	return New(seller, TypeSale, "Your auction sold",
		fmt.Sprintf("Your auction closed with a winning bid of %s.", amount)).
		WithListing(listingID).
		WithRelatedUser(winner)
}
