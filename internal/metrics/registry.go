package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

// Registry holds the auction domain metrics
type Registry struct {
	meter metric.Meter

	BidAcceptedCounter metric.Int64Counter
	BidRejectedCounter metric.Int64Counter
	BidAmount          metric.Float64Histogram

	AuctionActivatedCounter metric.Int64Counter
	AuctionSettledCounter   metric.Int64Counter
	AuctionOpenDuration     metric.Float64Histogram
	ActiveAuctions          metric.Int64ObservableGauge

	NotificationEnqueued metric.Int64Counter

	mu             sync.RWMutex
	activeAuctions int64
}

// NewRegistry creates a metrics registry on the global meter provider
func NewRegistry(meterName string) (*Registry, error) {
	r := &Registry{meter: otel.Meter(meterName)}

	var err error
	r.BidAcceptedCounter, err = r.meter.Int64Counter(
		"amp.bid.accepted",
		metric.WithDescription("Accepted bids"),
	)
	if err != nil {
		return nil, err
	}

	r.BidRejectedCounter, err = r.meter.Int64Counter(
		"amp.bid.rejected",
		metric.WithDescription("Rejected bids by reason"),
	)
	if err != nil {
		return nil, err
	}

	r.BidAmount, err = r.meter.Float64Histogram(
		"amp.bid.amount",
		metric.WithDescription("Accepted bid amounts"),
		metric.WithExplicitBucketBoundaries(1, 10, 50, 100, 500, 1000, 5000, 10000, 50000),
	)
	if err != nil {
		return nil, err
	}

	r.AuctionActivatedCounter, err = r.meter.Int64Counter(
		"amp.auction.activated",
		metric.WithDescription("Auctions transitioned scheduled to active"),
	)
	if err != nil {
		return nil, err
	}

	r.AuctionSettledCounter, err = r.meter.Int64Counter(
		"amp.auction.settled",
		metric.WithDescription("Auctions transitioned active to ended"),
	)
	if err != nil {
		return nil, err
	}

	r.AuctionOpenDuration, err = r.meter.Float64Histogram(
		"amp.auction.open_duration_seconds",
		metric.WithDescription("How long settled auctions were open"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	r.ActiveAuctions, err = r.meter.Int64ObservableGauge(
		"amp.auction.active",
		metric.WithDescription("Auctions currently accepting bids"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.activeAuctions)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	r.NotificationEnqueued, err = r.meter.Int64Counter(
		"amp.notification.enqueued",
		metric.WithDescription("Notifications handed to the delivery queue"),
	)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// RecordBidAccepted records a successful bid
func (r *Registry) RecordBidAccepted(ctx context.Context, auctionID uuid.UUID, amount values.Money) {
	r.BidAcceptedCounter.Add(ctx, 1)
	r.BidAmount.Record(ctx, amount.ToFloat64(),
		metric.WithAttributes(attribute.String("currency", amount.Currency())))
}

// RecordBidRejected records a rejected bid with its reason
func (r *Registry) RecordBidRejected(ctx context.Context, reason string) {
	r.BidRejectedCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordAuctionActivated records a scheduled to active transition
func (r *Registry) RecordAuctionActivated(ctx context.Context, auctionID uuid.UUID) {
	r.AuctionActivatedCounter.Add(ctx, 1)
	r.mu.Lock()
	r.activeAuctions++
	r.mu.Unlock()
}

// RecordAuctionSettled records an active to ended transition
func (r *Registry) RecordAuctionSettled(ctx context.Context, auctionID uuid.UUID, sold bool, openFor time.Duration) {
	r.AuctionSettledCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("sold", sold)))
	r.AuctionOpenDuration.Record(ctx, openFor.Seconds())
	r.mu.Lock()
	if r.activeAuctions > 0 {
		r.activeAuctions--
	}
	r.mu.Unlock()
}

// RecordNotificationEnqueued records a queued notification by type
func (r *Registry) RecordNotificationEnqueued(ctx context.Context, notificationType string) {
	r.NotificationEnqueued.Add(ctx, 1,
		metric.WithAttributes(attribute.String("type", notificationType)))
}
