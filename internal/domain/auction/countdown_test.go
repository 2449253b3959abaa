package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCountdown(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		endTime   time.Time
		wantLabel string
		expired   bool
	}{
		{
			name:      "days and hours",
			endTime:   now.Add(49*time.Hour + 30*time.Minute),
			wantLabel: "2d 1h",
		},
		{
			name:      "hours and minutes",
			endTime:   now.Add(3*time.Hour + 15*time.Minute),
			wantLabel: "3h 15m",
		},
		{
			name:      "minutes and seconds",
			endTime:   now.Add(5*time.Minute + 42*time.Second),
			wantLabel: "5m 42s",
		},
		{
			name:      "seconds only",
			endTime:   now.Add(30 * time.Second),
			wantLabel: "30s",
		},
		{
			name:      "exactly at end time",
			endTime:   now,
			wantLabel: ExpiredLabel,
			expired:   true,
		},
		{
			name:      "past end time",
			endTime:   now.Add(-time.Minute),
			wantLabel: ExpiredLabel,
			expired:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cd := NewCountdown(tt.endTime, now)
			assert.Equal(t, tt.wantLabel, cd.Label)
			assert.Equal(t, tt.expired, cd.Expired)
			if tt.expired {
				assert.Equal(t, time.Duration(0), cd.Remaining)
			} else {
				assert.Positive(t, cd.Remaining)
			}
		})
	}
}

func TestCountdownRemainingNeverNegative(t *testing.T) {
	now := time.Now().UTC()
	cd := NewCountdown(now.Add(-48*time.Hour), now)

	assert.Equal(t, time.Duration(0), cd.Remaining)
	assert.True(t, cd.Expired)
}

func TestCountdownTickerFiresExpiryOnce(t *testing.T) {
	clock := &MockClock{CurrentTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	endTime := clock.CurrentTime.Add(2 * time.Second)

	var ticks []Countdown
	expiries := 0

	ticker := NewCountdownTicker(endTime, time.Second, clock,
		func(cd Countdown) { ticks = append(ticks, cd) },
		func() { expiries++ },
	)

	ticker.tick() // 2s remaining
	clock.Advance(time.Second)
	ticker.tick() // 1s remaining
	clock.Advance(time.Second)
	ticker.tick() // expired, fires
	clock.Advance(time.Second)
	ticker.tick() // still expired, must not fire again
	clock.Advance(time.Minute)
	ticker.tick()

	assert.Len(t, ticks, 5)
	assert.False(t, ticks[0].Expired)
	assert.Equal(t, "2s", ticks[0].Label)
	assert.False(t, ticks[1].Expired)
	assert.True(t, ticks[2].Expired)
	assert.Equal(t, ExpiredLabel, ticks[2].Label)
	assert.True(t, ticks[4].Expired)

	assert.Equal(t, 1, expiries, "expiry callback must fire exactly once")
}

func TestCountdownTickerStopIdempotent(t *testing.T) {
	ticker := NewCountdownTicker(time.Now().Add(time.Hour), time.Second, RealClock{}, nil, nil)

	ticker.Stop()
	assert.NotPanics(t, func() { ticker.Stop() })
}
