package bidding

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
	"github.com/marketbid/auction-marketplace-backend/internal/testutil/fixtures"
	"github.com/marketbid/auction-marketplace-backend/internal/testutil/mocks"
)

func newTestLifecycle(t *testing.T) (*LifecycleManager, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		auctions:   new(mocks.AuctionRepository),
		dispatcher: new(mocks.NotificationDispatcher),
		events:     new(mocks.EventPublisher),
		cache:      new(mocks.SnapshotCache),
		metrics:    new(mocks.MetricsCollector),
		clock:      &auction.MockClock{CurrentTime: time.Now().UTC()},
	}
	lm := NewLifecycleManager(m.auctions, m.dispatcher, m.events, m.cache, m.metrics, m.clock, nil)
	return lm, m
}

func TestActivateDue(t *testing.T) {
	lm, m := newTestLifecycle(t)
	ctx := context.Background()
	now := m.clock.Now()

	seller := uuid.New()
	due := fixtures.NewAuctionBuilder().WithSeller(seller).Scheduled(-time.Minute).Build()
	raced := fixtures.NewAuctionBuilder().Scheduled(-time.Minute).Build()

	m.auctions.On("ListDueScheduled", ctx, now, 100).Return([]*auction.Auction{due, raced}, nil)
	m.auctions.On("MarkActive", ctx, due.ID, now).Return(true, nil)
	// Another instance of the sweeper got to this one first.
	m.auctions.On("MarkActive", ctx, raced.ID, now).Return(false, nil)
	m.cache.On("Invalidate", ctx, due.ID).Return(nil)
	m.events.On("PublishStatusChanged", ctx, due).Return()
	m.dispatcher.On("Dispatch", ctx, mock.MatchedBy(func(n *notification.Notification) bool {
		return n.Type == notification.TypeAuctionStart && n.UserID == seller
	})).Return(nil)
	m.metrics.On("RecordAuctionActivated", ctx, due.ID).Return()

	activated, err := lm.ActivateDue(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, activated, "only the auction this sweep transitioned counts")
	assert.Equal(t, auction.StatusActive, due.Status)
	m.events.AssertNotCalled(t, "PublishStatusChanged", ctx, raced)
	m.metrics.AssertNumberOfCalls(t, "RecordAuctionActivated", 1)
	m.dispatcher.AssertExpectations(t)
}

func TestEndExpiredSettlesSoldAuction(t *testing.T) {
	lm, m := newTestLifecycle(t)
	ctx := context.Background()
	now := m.clock.Now()

	seller := uuid.New()
	winner := uuid.New()
	expired := fixtures.NewAuctionBuilder().
		WithSeller(seller).
		WithCurrentBid(700, winner).
		WithWindow(now.Add(-2*time.Hour), now.Add(-time.Minute)).
		Build()
	final := *expired
	final.Status = auction.StatusEnded

	m.auctions.On("ListExpiredActive", ctx, now, 100).Return([]*auction.Auction{expired}, nil)
	m.auctions.On("MarkEnded", ctx, expired.ID, now).Return(&final, true, nil)
	m.cache.On("Invalidate", ctx, expired.ID).Return(nil)
	m.events.On("PublishStatusChanged", ctx, &final).Return()
	m.dispatcher.On("Dispatch", ctx, mock.MatchedBy(func(n *notification.Notification) bool {
		return n.Type == notification.TypeAuctionWon && n.UserID == winner
	})).Return(nil).Once()
	m.dispatcher.On("Dispatch", ctx, mock.MatchedBy(func(n *notification.Notification) bool {
		return n.Type == notification.TypeSale && n.UserID == seller
	})).Return(nil).Once()
	m.metrics.On("RecordAuctionSettled", ctx, expired.ID, true, mock.AnythingOfType("time.Duration")).Return()

	ended, err := lm.EndExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, ended)
	// Settlement is exactly one auction_won plus one sale, nothing else.
	m.dispatcher.AssertExpectations(t)
	m.dispatcher.AssertNumberOfCalls(t, "Dispatch", 2)
}

func TestEndExpiredUnsoldAuctionSendsNothing(t *testing.T) {
	lm, m := newTestLifecycle(t)
	ctx := context.Background()
	now := m.clock.Now()

	expired := fixtures.NewAuctionBuilder().
		WithWindow(now.Add(-2*time.Hour), now.Add(-time.Minute)).
		Build()
	final := *expired
	final.Status = auction.StatusEnded

	m.auctions.On("ListExpiredActive", ctx, now, 100).Return([]*auction.Auction{expired}, nil)
	m.auctions.On("MarkEnded", ctx, expired.ID, now).Return(&final, true, nil)
	m.cache.On("Invalidate", ctx, expired.ID).Return(nil)
	m.events.On("PublishStatusChanged", ctx, &final).Return()
	m.metrics.On("RecordAuctionSettled", ctx, expired.ID, false, mock.AnythingOfType("time.Duration")).Return()

	ended, err := lm.EndExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, ended)
	m.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	m.metrics.AssertExpectations(t)
}

func TestEndAlreadyEndedDoesNotResettle(t *testing.T) {
	lm, m := newTestLifecycle(t)
	ctx := context.Background()
	now := m.clock.Now()

	winner := uuid.New()
	final := fixtures.NewAuctionBuilder().
		WithCurrentBid(500, winner).
		WithStatus(auction.StatusEnded).
		Build()

	// The CAS lost: someone else ended this auction between listing and update.
	m.auctions.On("MarkEnded", ctx, final.ID, now).Return(final, false, nil)

	got, err := lm.CloseNow(ctx, final.ID)

	require.NoError(t, err)
	assert.Equal(t, final, got)
	m.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	m.events.AssertNotCalled(t, "PublishStatusChanged", mock.Anything, mock.Anything)
	m.metrics.AssertNotCalled(t, "RecordAuctionSettled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCloseScheduledAuctionFails(t *testing.T) {
	lm, m := newTestLifecycle(t)
	ctx := context.Background()
	now := m.clock.Now()

	scheduled := fixtures.NewAuctionBuilder().Scheduled(time.Hour).Build()

	// The status CAS no-ops: the auction never went active.
	m.auctions.On("MarkEnded", ctx, scheduled.ID, now).Return(scheduled, false, nil)

	got, err := lm.CloseNow(ctx, scheduled.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAuctionNotActive)
	assert.Nil(t, got)
	assert.Equal(t, auction.StatusScheduled, scheduled.Status)
	m.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	m.events.AssertNotCalled(t, "PublishStatusChanged", mock.Anything, mock.Anything)
	m.metrics.AssertNotCalled(t, "RecordAuctionSettled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementSurvivesDispatchFailure(t *testing.T) {
	lm, m := newTestLifecycle(t)
	ctx := context.Background()
	now := m.clock.Now()

	winner := uuid.New()
	active := fixtures.NewAuctionBuilder().WithCurrentBid(300, winner).Build()
	final := *active
	final.Status = auction.StatusEnded

	m.auctions.On("MarkEnded", ctx, active.ID, now).Return(&final, true, nil)
	m.cache.On("Invalidate", ctx, active.ID).Return(nil)
	m.events.On("PublishStatusChanged", ctx, &final).Return()
	m.dispatcher.On("Dispatch", ctx, mock.Anything).Return(fmt.Errorf("broker down"))
	m.metrics.On("RecordAuctionSettled", ctx, active.ID, true, mock.AnythingOfType("time.Duration")).Return()

	got, err := lm.CloseNow(ctx, active.ID)

	require.NoError(t, err, "failed notifications must not undo the transition")
	assert.Equal(t, auction.StatusEnded, got.Status)
	m.metrics.AssertExpectations(t)
}
