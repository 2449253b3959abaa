package bidding

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
)

// LifecycleManager owns the scheduled -> active -> ended state machine.
// Expiry is decided here, server-side, exactly once per auction: the
// repository's status compare-and-swap is the settlement gate, so redundant
// sweepers, an admin close racing the sweep, or a crashed-and-restarted
// instance can never settle the same auction twice. Clients only observe the
// resulting status change through the realtime feed.
type LifecycleManager struct {
	auctions   AuctionRepository
	dispatcher NotificationDispatcher
	events     EventPublisher
	cache      SnapshotCache
	metrics    MetricsCollector
	clock      auction.Clock
	logger     *slog.Logger
	batchSize  int
}

// NewLifecycleManager creates a lifecycle manager
func NewLifecycleManager(
	auctions AuctionRepository,
	dispatcher NotificationDispatcher,
	events EventPublisher,
	cache SnapshotCache,
	metrics MetricsCollector,
	clock auction.Clock,
	logger *slog.Logger,
) *LifecycleManager {
	if clock == nil {
		clock = auction.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &LifecycleManager{
		auctions:   auctions,
		dispatcher: dispatcher,
		events:     events,
		cache:      cache,
		metrics:    metrics,
		clock:      clock,
		logger:     logger,
		batchSize:  100,
	}
}

// WithBatchSize overrides how many auctions each sweep pass processes.
// Values below 1 keep the default.
func (m *LifecycleManager) WithBatchSize(n int) *LifecycleManager {
	if n > 0 {
		m.batchSize = n
	}
	return m
}

// ActivateDue transitions every scheduled auction whose start time has
// passed. Returns the number of auctions this call activated.
func (m *LifecycleManager) ActivateDue(ctx context.Context) (int, error) {
	now := m.clock.Now()

	due, err := m.auctions.ListDueScheduled(ctx, now, m.batchSize)
	if err != nil {
		return 0, errors.Wrap(err, "listing due scheduled auctions")
	}

	activated := 0
	for _, a := range due {
		changed, err := m.auctions.MarkActive(ctx, a.ID, now)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to activate auction",
				"auction_id", a.ID, "error", err)
			continue
		}
		if !changed {
			continue
		}
		activated++

		a.Status = auction.StatusActive
		m.afterTransition(ctx, a)

		start := notification.New(a.SellerID, notification.TypeAuctionStart,
			"Your auction is live", "Bidding on your auction is now open.").
			WithListing(a.ListingID)
		m.dispatch(ctx, start)

		if m.metrics != nil {
			m.metrics.RecordAuctionActivated(ctx, a.ID)
		}
	}

	return activated, nil
}

// EndExpired transitions every active auction whose end time has passed and
// settles each one. Returns the number of auctions this call ended.
func (m *LifecycleManager) EndExpired(ctx context.Context) (int, error) {
	now := m.clock.Now()

	expired, err := m.auctions.ListExpiredActive(ctx, now, m.batchSize)
	if err != nil {
		return 0, errors.Wrap(err, "listing expired active auctions")
	}

	ended := 0
	for _, a := range expired {
		if _, err := m.end(ctx, a.ID); err != nil {
			m.logger.ErrorContext(ctx, "failed to end expired auction",
				"auction_id", a.ID, "error", err)
			continue
		}
		ended++
	}

	return ended, nil
}

// CloseNow ends an active auction ahead of its end time (seller/admin close)
func (m *LifecycleManager) CloseNow(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	return m.end(ctx, id)
}

// end performs the active -> ended CAS and settles on the winning side of
// the race. When another actor already ended the auction, the final state is
// returned without re-settling.
func (m *LifecycleManager) end(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	now := m.clock.Now()

	final, changed, err := m.auctions.MarkEnded(ctx, id, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		// A close racing the sweep finds the row already ended; the final
		// state is the answer. A scheduled auction was never active, and
		// the aggregate's transition rule names the refusal.
		if final.Status == auction.StatusScheduled {
			return nil, final.End(now)
		}
		return final, nil
	}

	m.afterTransition(ctx, final)
	m.settle(ctx, final, now)

	return final, nil
}

// settle determines the outcome once and emits the settlement notifications:
// exactly one auction_won to the final high bidder and one sale to the
// seller when a bid exists; nothing when the auction went unsold. Dispatch
// failures are logged and swallowed, the transition stands either way.
func (m *LifecycleManager) settle(ctx context.Context, a *auction.Auction, now time.Time) {
	sold := a.CurrentBidderID != nil && a.CurrentBid != nil

	if sold {
		winner := *a.CurrentBidderID
		amount := *a.CurrentBid

		m.dispatch(ctx, notification.NewAuctionWon(winner, a.ListingID, amount))
		m.dispatch(ctx, notification.NewSale(a.SellerID, winner, a.ListingID, amount))
	}

	if m.metrics != nil {
		m.metrics.RecordAuctionSettled(ctx, a.ID, sold, now.Sub(a.StartTime))
	}

	m.logger.InfoContext(ctx, "auction settled",
		"auction_id", a.ID,
		"sold", sold,
		"bid_count", a.BidCount)
}

func (m *LifecycleManager) afterTransition(ctx context.Context, a *auction.Auction) {
	if m.cache != nil {
		if err := m.cache.Invalidate(ctx, a.ID); err != nil {
			m.logger.WarnContext(ctx, "auction cache invalidation failed",
				"auction_id", a.ID, "error", err)
		}
	}
	if m.events != nil {
		m.events.PublishStatusChanged(ctx, a)
	}
}

func (m *LifecycleManager) dispatch(ctx context.Context, n *notification.Notification) {
	if err := m.dispatcher.Dispatch(ctx, n); err != nil {
		m.logger.ErrorContext(ctx, "notification dispatch failed",
			"type", string(n.Type),
			"user_id", n.UserID,
			"error", err)
	}
}

// Sweeper drives the lifecycle manager on a fixed interval
type Sweeper struct {
	manager  *LifecycleManager
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper; interval defaults to one second, matching
// the countdown tick resolution
func NewSweeper(manager *LifecycleManager, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{manager: manager, interval: interval, logger: logger}
}

// Run sweeps until the context is canceled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("auction lifecycle sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("auction lifecycle sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if activated, err := s.manager.ActivateDue(ctx); err != nil {
		s.logger.ErrorContext(ctx, "activation sweep failed", "error", err)
	} else if activated > 0 {
		s.logger.InfoContext(ctx, "activated auctions", "count", activated)
	}

	if ended, err := s.manager.EndExpired(ctx); err != nil {
		s.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
	} else if ended > 0 {
		s.logger.InfoContext(ctx, "ended auctions", "count", ended)
	}
}
