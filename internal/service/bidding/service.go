package bidding

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
)

// service implements the Service interface
type service struct {
	auctions   AuctionRepository
	bids       BidRepository
	dispatcher NotificationDispatcher
	events     EventPublisher
	cache      SnapshotCache
	metrics    MetricsCollector
	lifecycle  *LifecycleManager
	clock      auction.Clock
	logger     *slog.Logger
}

// NewService creates a new bidding service
func NewService(
	auctions AuctionRepository,
	bids BidRepository,
	dispatcher NotificationDispatcher,
	events EventPublisher,
	cache SnapshotCache,
	metrics MetricsCollector,
	lifecycle *LifecycleManager,
	clock auction.Clock,
	logger *slog.Logger,
) Service {
	if clock == nil {
		clock = auction.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &service{
		auctions:   auctions,
		bids:       bids,
		dispatcher: dispatcher,
		events:     events,
		cache:      cache,
		metrics:    metrics,
		lifecycle:  lifecycle,
		clock:      clock,
		logger:     logger,
	}
}

// CreateAuction persists a new auction on behalf of its seller
func (s *service) CreateAuction(ctx context.Context, req *CreateAuctionRequest) (*auction.Auction, error) {
	if req.SellerID == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_SELLER_ID", "seller ID is required")
	}

	a, err := auction.NewAuction(req.SellerID, req.ListingID, req.StartingPrice, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if err := s.auctions.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "auction created",
		"auction_id", a.ID,
		"seller_id", a.SellerID,
		"status", a.Status.String(),
		"end_time", a.EndTime)

	return a, nil
}

// PlaceBid runs the two-phase bid flow: an advisory check against the cached
// snapshot rejects obvious losers cheaply, then the repository re-validates
// inside the placement transaction. Only the transactional check is
// authoritative; concurrent bidders racing the snapshot are serialized there.
func (s *service) PlaceBid(ctx context.Context, req *PlaceBidRequest) (*bid.Bid, error) {
	if req.AuctionID == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_AUCTION_ID", "auction ID is required")
	}
	if req.BidderID == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_BIDDER_ID", "bidder ID is required")
	}

	now := s.clock.Now()

	snapshot, err := s.loadAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}

	if _, err := bid.Validate(snapshot, req.BidderID, req.Amount, now); err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}

	placed, acceptance, err := s.auctions.PlaceBid(ctx, req.AuctionID, req.BidderID, req.Amount, now)
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, req.AuctionID); err != nil {
			s.logger.WarnContext(ctx, "auction cache invalidation failed",
				"auction_id", req.AuctionID, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordBidAccepted(ctx, req.AuctionID, req.Amount)
	}

	// Best-effort side effects: the bid is committed, so a notification or
	// publish failure is logged and swallowed, never reported to the bidder.
	if acceptance.PreviousBidderID != nil {
		outbid := notification.NewOutbid(*acceptance.PreviousBidderID, req.BidderID, snapshot.ListingID, req.Amount)
		if err := s.dispatcher.Dispatch(ctx, outbid); err != nil {
			s.logger.ErrorContext(ctx, "outbid notification dispatch failed",
				"auction_id", req.AuctionID,
				"previous_bidder", *acceptance.PreviousBidderID,
				"error", err)
		}
	}

	if s.events != nil {
		updated, err := s.auctions.GetByID(ctx, req.AuctionID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to reload auction for event publish",
				"auction_id", req.AuctionID, "error", err)
		} else {
			s.events.PublishBidPlaced(ctx, updated, placed)
			if s.cache != nil {
				if err := s.cache.Set(ctx, updated); err != nil {
					s.logger.WarnContext(ctx, "auction cache refresh failed",
						"auction_id", req.AuctionID, "error", err)
				}
			}
		}
	}

	return placed, nil
}

// GetAuction retrieves an auction, preferring the snapshot cache
func (s *service) GetAuction(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	if id == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_AUCTION_ID", "auction ID is required")
	}
	return s.loadAuction(ctx, id)
}

// GetCountdown derives the remaining-time view for an auction
func (s *service) GetCountdown(ctx context.Context, id uuid.UUID) (auction.Countdown, error) {
	a, err := s.GetAuction(ctx, id)
	if err != nil {
		return auction.Countdown{}, err
	}

	// An ended auction reports expired regardless of its end time; the
	// status transition is the authority, not the wall clock.
	if a.Status == auction.StatusEnded {
		return auction.NewCountdown(a.EndTime, a.EndTime), nil
	}

	return auction.NewCountdown(a.EndTime, s.clock.Now()), nil
}

// ListBids returns all bids for an auction ordered by creation time
func (s *service) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	if auctionID == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_AUCTION_ID", "auction ID is required")
	}
	return s.bids.ListByAuction(ctx, auctionID)
}

// CloseAuction ends an active auction early on behalf of the seller or an admin
func (s *service) CloseAuction(ctx context.Context, req *CloseAuctionRequest) (*auction.Auction, error) {
	a, err := s.loadAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}

	if !req.Admin && a.SellerID != req.ActorID {
		return nil, errors.NewForbiddenError("only the seller can close this auction")
	}

	return s.lifecycle.CloseNow(ctx, req.AuctionID)
}

func (s *service) loadAuction(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "auction cache read failed", "auction_id", id, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	a, err := s.auctions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, a); err != nil {
			s.logger.WarnContext(ctx, "auction cache write failed", "auction_id", id, "error", err)
		}
	}

	return a, nil
}

func (s *service) recordRejection(ctx context.Context, err error) {
	if s.metrics == nil {
		return
	}
	var reason string
	switch {
	case errors.IsType(err, errors.ErrorTypeBusiness):
		reason = rejectionCode(err)
	case errors.IsType(err, errors.ErrorTypeValidation):
		reason = "invalid_input"
	case errors.IsType(err, errors.ErrorTypeConflict):
		reason = "concurrent_update"
	default:
		reason = "internal"
	}
	s.metrics.RecordBidRejected(ctx, reason)
}

func rejectionCode(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrBidTooLow):
		return "bid_too_low"
	case stderrors.Is(err, errors.ErrAuctionClosed):
		return "auction_closed"
	default:
		return "business_rule"
	}
}
