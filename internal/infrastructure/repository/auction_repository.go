package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
	domainErrors "github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// AuctionRepository implements auction storage using PostgreSQL
type AuctionRepository struct {
	db *pgxpool.Pool
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(db *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{db: db}
}

const auctionColumns = `id, listing_id, seller_id, starting_price, currency,
	current_bid, current_bidder_id, bid_count, status, start_time, end_time,
	created_at, updated_at`

// Create inserts a new auction
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (id, listing_id, seller_id, starting_price, currency,
			current_bid, current_bidder_id, bid_count, status, start_time, end_time,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var currentBid *string
	if a.CurrentBid != nil {
		s := a.CurrentBid.Amount().String()
		currentBid = &s
	}

	_, err := r.db.Exec(ctx, query,
		a.ID, a.ListingID, a.SellerID,
		a.StartingPrice.Amount().String(), a.StartingPrice.Currency(),
		currentBid, a.CurrentBidderID, a.BidCount, a.Status.String(),
		a.StartTime, a.EndTime, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return ErrForeignKey
		}
		return fmt.Errorf("failed to create auction: %w", err)
	}
	return nil
}

// GetByID retrieves an auction by its ID
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := fmt.Sprintf(`SELECT %s FROM auctions WHERE id = $1`, auctionColumns)
	a, err := scanAuction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

// PlaceBid atomically validates and records a bid. The auction row is locked
// for the duration of the transaction, validation runs against the locked
// state, and the current-bid update is conditional on the status still being
// active. Concurrent bidders therefore serialize on the row lock and the
// loser of a race revalidates against the winner's bid, never a stale one.
func (r *AuctionRepository) PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, amount values.Money, now time.Time) (*bid.Bid, *bid.Acceptance, error) {
	var (
		placed     *bid.Bid
		acceptance *bid.Acceptance
	)

	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`SELECT %s FROM auctions WHERE id = $1 FOR UPDATE`, auctionColumns)
		a, err := scanAuction(tx.QueryRow(ctx, query, auctionID))
		if err != nil {
			if err == pgx.ErrNoRows {
				return domainErrors.ErrAuctionNotFound
			}
			return fmt.Errorf("failed to lock auction: %w", err)
		}

		acc, err := bid.Validate(a, bidderID, amount, now)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE auctions
			SET current_bid = $2, current_bidder_id = $3,
				bid_count = bid_count + 1, updated_at = $4
			WHERE id = $1 AND status = 'active'`,
			auctionID, amount.Amount().String(), bidderID, now,
		)
		if err != nil {
			return fmt.Errorf("failed to update auction bid: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrAuctionClosed
		}

		b := bid.NewBid(auctionID, bidderID, amount)
		b.CreatedAt = now
		_, err = tx.Exec(ctx, `
			INSERT INTO bids (id, auction_id, bidder_id, amount, currency, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			b.ID, b.AuctionID, b.BidderID,
			b.Amount.Amount().String(), b.Amount.Currency(), b.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		placed = b
		acceptance = acc
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return placed, acceptance, nil
}

// MarkActive transitions a scheduled auction to active. The status predicate
// in the WHERE clause makes the transition a compare-and-swap: only one
// caller observes changed=true.
func (r *AuctionRepository) MarkActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE auctions
		SET status = 'active', updated_at = $2
		WHERE id = $1 AND status = 'scheduled' AND start_time <= $2`,
		id, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to activate auction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkEnded transitions an active auction to ended and returns the final
// row. changed is false when the auction was already ended, which callers
// use to guarantee settlement happens exactly once.
func (r *AuctionRepository) MarkEnded(ctx context.Context, id uuid.UUID, now time.Time) (*auction.Auction, bool, error) {
	query := fmt.Sprintf(`
		UPDATE auctions
		SET status = 'ended', updated_at = $2
		WHERE id = $1 AND status = 'active'
		RETURNING %s`, auctionColumns)

	a, err := scanAuction(r.db.QueryRow(ctx, query, id, now))
	if err == nil {
		return a, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to end auction: %w", err)
	}

	// Lost the race or never active; report the row as it stands.
	a, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return a, false, nil
}

// ListDueScheduled returns scheduled auctions whose start time has passed
func (r *AuctionRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM auctions
		WHERE status = 'scheduled' AND start_time <= $1
		ORDER BY start_time
		LIMIT $2`, auctionColumns)
	return r.listAuctions(ctx, query, now, limit)
}

// ListExpiredActive returns active auctions whose end time has passed
func (r *AuctionRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM auctions
		WHERE status = 'active' AND end_time <= $1
		ORDER BY end_time
		LIMIT $2`, auctionColumns)
	return r.listAuctions(ctx, query, now, limit)
}

func (r *AuctionRepository) listAuctions(ctx context.Context, query string, args ...interface{}) ([]*auction.Auction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*auction.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}
	return auctions, rows.Err()
}

func scanAuction(row pgx.Row) (*auction.Auction, error) {
	var (
		a             auction.Auction
		startingPrice string
		currency      string
		currentBid    *string
		status        string
	)

	err := row.Scan(
		&a.ID, &a.ListingID, &a.SellerID, &startingPrice, &currency,
		&currentBid, &a.CurrentBidderID, &a.BidCount, &status,
		&a.StartTime, &a.EndTime, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.StartingPrice, err = values.NewMoneyFromString(startingPrice, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid starting price: %w", err)
	}
	if currentBid != nil {
		m, err := values.NewMoneyFromString(*currentBid, currency)
		if err != nil {
			return nil, fmt.Errorf("invalid current bid: %w", err)
		}
		a.CurrentBid = &m
	}
	a.Status = auction.ParseStatus(status)

	return &a, nil
}
