package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
)

// AuctionEndTimeLookup resolves the end time of an auction for the countdown
// feed. Implementations typically hit the snapshot cache.
type AuctionEndTimeLookup func(ctx context.Context, id uuid.UUID) (time.Time, error)

// CountdownBroadcaster pushes periodic countdown events for every auction
// that currently has websocket subscribers. Each watched auction gets its own
// ticker; the ticker stops once it reports expiry, after which the status
// change event from the lifecycle sweep is the terminal signal. The
// broadcaster renders time, it never decides it: expiry side effects belong
// to the lifecycle manager.
type CountdownBroadcaster struct {
	hub      *AuctionEventHub
	lookup   AuctionEndTimeLookup
	interval time.Duration
	clock    auction.Clock
	logger   *zap.Logger

	mu      sync.Mutex
	tickers map[uuid.UUID]*auction.CountdownTicker
	expired map[uuid.UUID]struct{}
}

// NewCountdownBroadcaster creates a broadcaster ticking at the given interval
func NewCountdownBroadcaster(hub *AuctionEventHub, lookup AuctionEndTimeLookup, interval time.Duration, logger *zap.Logger) *CountdownBroadcaster {
	if interval <= 0 {
		interval = time.Second
	}
	return &CountdownBroadcaster{
		hub:      hub,
		lookup:   lookup,
		interval: interval,
		clock:    auction.RealClock{},
		logger:   logger,
		tickers:  make(map[uuid.UUID]*auction.CountdownTicker),
		expired:  make(map[uuid.UUID]struct{}),
	}
}

// Run reconciles tickers against the hub's watched auctions until ctx ends
func (b *CountdownBroadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.stopAll()
			return
		case <-ticker.C:
			b.reconcile(ctx)
		}
	}
}

func (b *CountdownBroadcaster) reconcile(ctx context.Context) {
	watched := make(map[uuid.UUID]struct{})
	for _, id := range b.hub.WatchedAuctions() {
		watched[id] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, t := range b.tickers {
		if _, ok := watched[id]; !ok {
			t.Stop()
			delete(b.tickers, id)
		}
	}
	for id := range b.expired {
		if _, ok := watched[id]; !ok {
			delete(b.expired, id)
		}
	}

	for id := range watched {
		if _, ok := b.tickers[id]; ok {
			continue
		}
		// Expired auctions stay quiet until their last subscriber leaves;
		// restarting a ticker for them would replay the expiry signal.
		if _, ok := b.expired[id]; ok {
			continue
		}
		b.startTicker(ctx, id)
	}
}

// startTicker is called with b.mu held
func (b *CountdownBroadcaster) startTicker(ctx context.Context, id uuid.UUID) {
	endTime, err := b.lookup(ctx, id)
	if err != nil {
		b.logger.Debug("countdown lookup failed",
			zap.String("auction_id", id.String()),
			zap.Error(err))
		return
	}

	t := auction.NewCountdownTicker(endTime, b.interval, b.clock,
		func(cd auction.Countdown) {
			b.hub.PublishCountdown(id, cd)
		},
		func() {
			b.markExpired(id)
		},
	)
	b.tickers[id] = t
	go t.Run(ctx)
}

func (b *CountdownBroadcaster) markExpired(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tickers[id]; ok {
		t.Stop()
		delete(b.tickers, id)
	}
	b.expired[id] = struct{}{}
}

func (b *CountdownBroadcaster) stopAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.tickers {
		t.Stop()
		delete(b.tickers, id)
	}
}
