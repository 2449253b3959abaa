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

// NotificationDispatcher mock
type NotificationDispatcher struct {
	mock.Mock
}

func (m *NotificationDispatcher) Dispatch(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationDispatcher) Broadcast(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// EventPublisher mock
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishBidPlaced(ctx context.Context, a *auction.Auction, b *bid.Bid) {
	m.Called(ctx, a, b)
}

func (m *EventPublisher) PublishStatusChanged(ctx context.Context, a *auction.Auction) {
	m.Called(ctx, a)
}

// SnapshotCache mock
type SnapshotCache struct {
	mock.Mock
}

func (m *SnapshotCache) Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auction.Auction), args.Error(1)
}

func (m *SnapshotCache) Set(ctx context.Context, a *auction.Auction) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *SnapshotCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MetricsCollector mock
type MetricsCollector struct {
	mock.Mock
}

func (m *MetricsCollector) RecordBidAccepted(ctx context.Context, auctionID uuid.UUID, amount values.Money) {
	m.Called(ctx, auctionID, amount)
}

func (m *MetricsCollector) RecordBidRejected(ctx context.Context, reason string) {
	m.Called(ctx, reason)
}

func (m *MetricsCollector) RecordAuctionActivated(ctx context.Context, auctionID uuid.UUID) {
	m.Called(ctx, auctionID)
}

func (m *MetricsCollector) RecordAuctionSettled(ctx context.Context, auctionID uuid.UUID, sold bool, openFor time.Duration) {
	m.Called(ctx, auctionID, sold, openFor)
}
