package auction

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
)

func TestNewAuction(t *testing.T) {
	sellerID := uuid.New()
	now := time.Now().UTC()

	tests := []struct {
		name      string
		price     values.Money
		startTime time.Time
		endTime   time.Time
		wantErr   string
		wantState Status
	}{
		{
			name:      "scheduled when start is in the future",
			price:     values.MustNewMoneyFromFloat(100, values.USD),
			startTime: now.Add(time.Hour),
			endTime:   now.Add(25 * time.Hour),
			wantState: StatusScheduled,
		},
		{
			name:      "active when start has passed",
			price:     values.MustNewMoneyFromFloat(100, values.USD),
			startTime: now.Add(-time.Minute),
			endTime:   now.Add(24 * time.Hour),
			wantState: StatusActive,
		},
		{
			name:      "rejects zero starting price",
			price:     values.Zero(values.USD),
			startTime: now,
			endTime:   now.Add(time.Hour),
			wantErr:   "starting price must be positive",
		},
		{
			name:      "rejects end before start",
			price:     values.MustNewMoneyFromFloat(100, values.USD),
			startTime: now.Add(2 * time.Hour),
			endTime:   now.Add(time.Hour),
			wantErr:   "end time must be after start time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAuction(sellerID, nil, tt.price, tt.startTime, tt.endTime)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, a.Status)
			assert.Equal(t, sellerID, a.SellerID)
			assert.Zero(t, a.BidCount)
			assert.Nil(t, a.CurrentBid)
		})
	}
}

func TestAuctionTransitionsAreOneWay(t *testing.T) {
	now := time.Now().UTC()
	a, err := NewAuction(uuid.New(), nil,
		values.MustNewMoneyFromFloat(50, values.USD), now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, a.Status)

	// Cannot activate before the start time.
	require.Error(t, a.Activate(now))

	require.NoError(t, a.Activate(now.Add(time.Hour)))
	assert.Equal(t, StatusActive, a.Status)

	// Re-activating an active auction fails.
	require.Error(t, a.Activate(now.Add(time.Hour)))

	require.NoError(t, a.End(now.Add(2*time.Hour)))
	assert.Equal(t, StatusEnded, a.Status)

	// Ended is terminal.
	require.Error(t, a.End(now.Add(3*time.Hour)))
	require.Error(t, a.Activate(now.Add(3*time.Hour)))
}

func TestAuctionHighBid(t *testing.T) {
	now := time.Now().UTC()
	a, err := NewAuction(uuid.New(), nil,
		values.MustNewMoneyFromFloat(1000, values.USD), now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, a.HighBid().Equal(a.StartingPrice))

	bidder := uuid.New()
	a.ApplyBid(bidder, values.MustNewMoneyFromFloat(1200, values.USD), now)

	assert.Equal(t, 1, a.BidCount)
	require.NotNil(t, a.CurrentBidderID)
	assert.Equal(t, bidder, *a.CurrentBidderID)
	assert.True(t, a.HighBid().Equal(values.MustNewMoneyFromFloat(1200, values.USD)))
}

func TestAuctionSold(t *testing.T) {
	now := time.Now().UTC()
	a, err := NewAuction(uuid.New(), nil,
		values.MustNewMoneyFromFloat(100, values.USD), now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)

	// Active with a bid is not sold yet.
	a.ApplyBid(uuid.New(), values.MustNewMoneyFromFloat(150, values.USD), now)
	assert.False(t, a.Sold())

	require.NoError(t, a.End(now))
	assert.True(t, a.Sold())
}

func TestAuctionIsExpired(t *testing.T) {
	now := time.Now().UTC()
	a := &Auction{EndTime: now}

	assert.True(t, a.IsExpired(now), "boundary counts as expired")
	assert.True(t, a.IsExpired(now.Add(time.Second)))
	assert.False(t, a.IsExpired(now.Add(-time.Second)))
}

func TestParseStatusRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusActive, StatusEnded} {
		assert.Equal(t, s, ParseStatus(s.String()))
	}
	assert.Equal(t, StatusScheduled, ParseStatus("bogus"))
}
