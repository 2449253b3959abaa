package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
	domainErrors "github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// BidRepository implements the read side of bid storage. Bids are written
// only inside AuctionRepository.PlaceBid so history and auction state can
// never disagree.
type BidRepository struct {
	db *pgxpool.Pool
}

// NewBidRepository creates a new bid repository
func NewBidRepository(db *pgxpool.Pool) *BidRepository {
	return &BidRepository{db: db}
}

const bidColumns = `id, auction_id, bidder_id, amount, currency, created_at`

// GetByID retrieves a bid by its ID
func (r *BidRepository) GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error) {
	query := fmt.Sprintf(`SELECT %s FROM bids WHERE id = $1`, bidColumns)
	b, err := scanBid(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return b, nil
}

// ListByAuction returns the full bid history for an auction, oldest first
func (r *BidRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bids
		WHERE auction_id = $1
		ORDER BY created_at, id`, bidColumns)
	return r.listBids(ctx, query, auctionID)
}

// ListByBidder returns a bidder's most recent bids across auctions
func (r *BidRepository) ListByBidder(ctx context.Context, bidderID uuid.UUID, limit int) ([]*bid.Bid, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bids
		WHERE bidder_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, bidColumns)
	return r.listBids(ctx, query, bidderID, limit)
}

func (r *BidRepository) listBids(ctx context.Context, query string, args ...interface{}) ([]*bid.Bid, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var bids []*bid.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func scanBid(row pgx.Row) (*bid.Bid, error) {
	var (
		b        bid.Bid
		amount   string
		currency string
	)

	err := row.Scan(&b.ID, &b.AuctionID, &b.BidderID, &amount, &currency, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	b.Amount, err = values.NewMoneyFromString(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid bid amount: %w", err)
	}
	return &b, nil
}
