package auction

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ExpiredLabel is the fixed display value once the countdown reaches zero
const ExpiredLabel = "Ended"

// Countdown is a point-in-time view of the remaining auction time.
// Remaining is never negative.
type Countdown struct {
	Remaining time.Duration `json:"remaining_seconds"`
	Label     string        `json:"label"`
	Expired   bool          `json:"expired"`
}

// NewCountdown derives the countdown for endTime as seen at now. The label
// uses the coarsest applicable unit pair: days+hours, hours+minutes,
// minutes+seconds, then bare seconds.
func NewCountdown(endTime, now time.Time) Countdown {
	remaining := endTime.Sub(now)
	if remaining <= 0 {
		return Countdown{Remaining: 0, Label: ExpiredLabel, Expired: true}
	}

	return Countdown{
		Remaining: remaining,
		Label:     formatRemaining(remaining),
		Expired:   false,
	}
}

func formatRemaining(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// CountdownTicker recomputes a countdown on a fixed interval and signals
// expiry exactly once. Repeated ticks after expiry keep reporting the expired
// countdown but never re-fire the expiry callback, so downstream side effects
// (status transition, notifications) cannot be duplicated by the timer.
type CountdownTicker struct {
	endTime  time.Time
	interval time.Duration
	clock    Clock

	onTick   func(Countdown)
	onExpire func()

	mu      sync.Mutex
	fired   bool
	stop    chan struct{}
	stopped bool
}

// NewCountdownTicker creates a ticker for endTime. onTick is invoked every
// interval with the fresh countdown; onExpire fires once when the countdown
// first reports expiry. Either callback may be nil.
func NewCountdownTicker(endTime time.Time, interval time.Duration, clock Clock, onTick func(Countdown), onExpire func()) *CountdownTicker {
	if interval <= 0 {
		interval = time.Second
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &CountdownTicker{
		endTime:  endTime,
		interval: interval,
		clock:    clock,
		onTick:   onTick,
		onExpire: onExpire,
		stop:     make(chan struct{}),
	}
}

// Run drives the tick loop until the context is canceled or Stop is called.
// It delivers an immediate first tick so consumers render without waiting a
// full interval.
func (t *CountdownTicker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.tick()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// Stop tears the ticker down; safe to call more than once
func (t *CountdownTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	close(t.stop)
}

func (t *CountdownTicker) tick() {
	cd := NewCountdown(t.endTime, t.clock.Now())

	if t.onTick != nil {
		t.onTick(cd)
	}

	if !cd.Expired {
		return
	}

	t.mu.Lock()
	alreadyFired := t.fired
	t.fired = true
	t.mu.Unlock()

	if !alreadyFired && t.onExpire != nil {
		t.onExpire()
	}
}
