package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// AuctionRepository mock
type AuctionRepository struct {
	mock.Mock
}

func (m *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auction.Auction), args.Error(1)
}

func (m *AuctionRepository) PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, amount values.Money, now time.Time) (*bid.Bid, *bid.Acceptance, error) {
	args := m.Called(ctx, auctionID, bidderID, amount, now)
	var b *bid.Bid
	var acc *bid.Acceptance
	if args.Get(0) != nil {
		b = args.Get(0).(*bid.Bid)
	}
	if args.Get(1) != nil {
		acc = args.Get(1).(*bid.Acceptance)
	}
	return b, acc, args.Error(2)
}

func (m *AuctionRepository) MarkActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *AuctionRepository) MarkEnded(ctx context.Context, id uuid.UUID, now time.Time) (*auction.Auction, bool, error) {
	args := m.Called(ctx, id, now)
	var a *auction.Auction
	if args.Get(0) != nil {
		a = args.Get(0).(*auction.Auction)
	}
	return a, args.Bool(1), args.Error(2)
}

func (m *AuctionRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auction.Auction), args.Error(1)
}

func (m *AuctionRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auction.Auction), args.Error(1)
}

// BidRepository mock
type BidRepository struct {
	mock.Mock
}

func (m *BidRepository) GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bid.Bid), args.Error(1)
}

func (m *BidRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	args := m.Called(ctx, auctionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bid.Bid), args.Error(1)
}

func (m *BidRepository) ListByBidder(ctx context.Context, bidderID uuid.UUID, limit int) ([]*bid.Bid, error) {
	args := m.Called(ctx, bidderID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bid.Bid), args.Error(1)
}

// NotificationRepository mock
type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepository) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

func (m *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]*notification.Notification, error) {
	args := m.Called(ctx, userID, onlyUnread, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepository) SetRead(ctx context.Context, id uuid.UUID, read bool) error {
	args := m.Called(ctx, id, read)
	return args.Error(0)
}

func (m *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// UserDirectory mock
type UserDirectory struct {
	mock.Mock
}

func (m *UserDirectory) ListUserIDs(ctx context.Context, offset, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}
