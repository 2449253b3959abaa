package bidding

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// Service defines the bidding service interface
type Service interface {
	// CreateAuction persists a new auction on behalf of its seller
	CreateAuction(ctx context.Context, req *CreateAuctionRequest) (*auction.Auction, error)
	// PlaceBid validates and persists a bid atomically against the stored
	// auction state and emits the outbid notification on success
	PlaceBid(ctx context.Context, req *PlaceBidRequest) (*bid.Bid, error)
	// GetAuction retrieves an auction, preferring the snapshot cache
	GetAuction(ctx context.Context, id uuid.UUID) (*auction.Auction, error)
	// GetCountdown derives the remaining-time view for an auction
	GetCountdown(ctx context.Context, id uuid.UUID) (auction.Countdown, error)
	// ListBids returns all bids for an auction ordered by creation time
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)
	// CloseAuction ends an active auction on behalf of its seller or an admin
	CloseAuction(ctx context.Context, req *CloseAuctionRequest) (*auction.Auction, error)
}

// AuctionRepository defines the interface for auction storage. PlaceBid is
// the atomic validate-and-write: implementations must lock the auction row,
// re-run bid validation against the stored state and conditionally update
// current_bid in the same transaction, so two bidders can never both succeed
// against a stale snapshot.
type AuctionRepository interface {
	Create(ctx context.Context, a *auction.Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)
	PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, amount values.Money, now time.Time) (*bid.Bid, *bid.Acceptance, error)
	// MarkActive transitions scheduled -> active; reports whether this call
	// performed the transition
	MarkActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// MarkEnded transitions active -> ended and returns the final state;
	// changed is false when another actor already ended the auction
	MarkEnded(ctx context.Context, id uuid.UUID, now time.Time) (a *auction.Auction, changed bool, err error)
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error)
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error)
}

// BidRepository defines the read side of bid storage; writes happen only
// through AuctionRepository.PlaceBid
type BidRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error)
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)
	ListByBidder(ctx context.Context, bidderID uuid.UUID, limit int) ([]*bid.Bid, error)
}

// NotificationDispatcher hands notifications to the durable delivery queue.
// Delivery is best-effort from the caller's point of view: a dispatch error
// never rolls back the bid or transition that triggered it.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n *notification.Notification) error
	Broadcast(ctx context.Context, n *notification.Notification) error
}

// EventPublisher pushes state changes to connected realtime subscribers
type EventPublisher interface {
	PublishBidPlaced(ctx context.Context, a *auction.Auction, b *bid.Bid)
	PublishStatusChanged(ctx context.Context, a *auction.Auction)
}

// SnapshotCache caches auction snapshots for the read path. Get returns
// (nil, nil) on a miss.
type SnapshotCache interface {
	Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error)
	Set(ctx context.Context, a *auction.Auction) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// MetricsCollector defines the interface for metrics
type MetricsCollector interface {
	RecordBidAccepted(ctx context.Context, auctionID uuid.UUID, amount values.Money)
	RecordBidRejected(ctx context.Context, reason string)
	RecordAuctionActivated(ctx context.Context, auctionID uuid.UUID)
	RecordAuctionSettled(ctx context.Context, auctionID uuid.UUID, sold bool, openFor time.Duration)
}

// CreateAuctionRequest represents an auction creation request
type CreateAuctionRequest struct {
	SellerID      uuid.UUID
	ListingID     *uuid.UUID
	StartingPrice values.Money
	StartTime     time.Time
	EndTime       time.Time
}

// PlaceBidRequest represents a bid placement request
type PlaceBidRequest struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    values.Money
}

// CloseAuctionRequest ends an auction before its end time
type CloseAuctionRequest struct {
	AuctionID uuid.UUID
	ActorID   uuid.UUID
	Admin     bool
}
