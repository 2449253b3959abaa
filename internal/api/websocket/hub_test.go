package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketbid/auction-marketplace-backend/internal/testutil/fixtures"
)

func newRunningHub(t *testing.T) *AuctionEventHub {
	t.Helper()
	hub := NewAuctionEventHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func newTestClient(hub *AuctionEventHub) *Client {
	return NewClient(nil, hub, uuid.New())
}

func waitForEvent(t *testing.T, ch chan *AuctionEvent) *AuctionEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := newRunningHub(t)

	a := fixtures.NewAuctionBuilder().Build()
	b := fixtures.NewBidBuilder().WithAuction(a.ID).WithAmount(150).Build()

	subscriber := newTestClient(hub)
	subscriber.subscriptions[a.ID] = struct{}{}
	bystander := newTestClient(hub)

	hub.RegisterClient(subscriber)
	hub.RegisterClient(bystander)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.PublishBidPlaced(context.Background(), a, b)

	ev := waitForEvent(t, subscriber.send)
	assert.Equal(t, AuctionEventBidPlaced, ev.Type)
	assert.Equal(t, a.ID.String(), ev.AuctionID)
	assert.Empty(t, bystander.send, "unsubscribed clients receive nothing")
}

func TestHubStatusChangedEvent(t *testing.T) {
	hub := newRunningHub(t)

	winner := uuid.New()
	a := fixtures.NewAuctionBuilder().WithCurrentBid(900, winner).Ended().Build()

	client := newTestClient(hub)
	client.subscriptions[a.ID] = struct{}{}
	hub.RegisterClient(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.PublishStatusChanged(context.Background(), a)

	ev := waitForEvent(t, client.send)
	assert.Equal(t, AuctionEventStatusChanged, ev.Type)
	data, ok := ev.Data.(StatusChangedData)
	require.True(t, ok)
	assert.True(t, data.Sold)
	require.NotNil(t, data.WinnerID)
	assert.Equal(t, winner.String(), *data.WinnerID)
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := newRunningHub(t)

	client := newTestClient(hub)
	hub.RegisterClient(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.UnregisterClient(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open)
}

func TestHubStopIsIdempotent(t *testing.T) {
	hub := NewAuctionEventHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		hub.Run(context.Background())
		close(done)
	}()

	hub.Stop()
	assert.NotPanics(t, hub.Stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
}
