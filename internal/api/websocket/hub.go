package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
)

// AuctionEventHub fans auction events out to WebSocket clients. Clients
// subscribe per auction; events for auctions nobody watches are dropped.
type AuctionEventHub struct {
	logger      *zap.Logger
	clients     map[uuid.UUID]*Client
	clientsLock sync.RWMutex
	broadcast   chan *AuctionEvent
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	stopOnce    sync.Once
}

// NewAuctionEventHub creates a new auction event hub
func NewAuctionEventHub(logger *zap.Logger) *AuctionEventHub {
	return &AuctionEventHub{
		logger:     logger,
		clients:    make(map[uuid.UUID]*Client),
		broadcast:  make(chan *AuctionEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub loop; it returns when ctx is cancelled or Stop is called
func (h *AuctionEventHub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-h.done:
			h.shutdown()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.dispatch(event)
		case <-ticker.C:
			h.logClientCount()
		}
	}
}

// Stop gracefully shuts down the hub
func (h *AuctionEventHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// PublishBidPlaced pushes a bid placed event to subscribers of the auction
func (h *AuctionEventHub) PublishBidPlaced(_ context.Context, a *auction.Auction, b *bid.Bid) {
	h.publish(newBidPlacedEvent(a, b))
}

// PublishStatusChanged pushes a status change event to subscribers
func (h *AuctionEventHub) PublishStatusChanged(_ context.Context, a *auction.Auction) {
	h.publish(newStatusChangedEvent(a))
}

// PublishCountdown pushes a countdown tick to subscribers of the auction
func (h *AuctionEventHub) PublishCountdown(auctionID uuid.UUID, cd auction.Countdown) {
	h.publish(newCountdownEvent(auctionID, cd))
}

// WatchedAuctions returns the set of auctions with at least one subscriber
func (h *AuctionEventHub) WatchedAuctions() []uuid.UUID {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	for _, client := range h.clients {
		for _, id := range client.subscriptionList() {
			seen[id] = struct{}{}
		}
	}

	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

func (h *AuctionEventHub) publish(event *AuctionEvent) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		// A full hub queue means slow consumers; realtime events are
		// droppable because clients reconcile via the REST snapshot.
		h.logger.Warn("dropping auction event, hub queue full",
			zap.String("type", string(event.Type)),
			zap.String("auction_id", event.AuctionID))
	}
}

// RegisterClient queues a client for registration
func (h *AuctionEventHub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient queues a client for removal
func (h *AuctionEventHub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *AuctionEventHub) addClient(c *Client) {
	h.clientsLock.Lock()
	h.clients[c.ID] = c
	h.clientsLock.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("client_id", c.ID.String()),
		zap.String("user_id", c.userID.String()))
}

func (h *AuctionEventHub) removeClient(c *Client) {
	h.clientsLock.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
	h.clientsLock.Unlock()
}

func (h *AuctionEventHub) dispatch(event *AuctionEvent) {
	auctionID, err := uuid.Parse(event.AuctionID)
	if err != nil {
		return
	}

	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()

	for _, client := range h.clients {
		if !client.subscribed(auctionID) {
			continue
		}
		select {
		case client.send <- event:
		default:
			// Slow client; skip rather than block the hub.
		}
	}
}

func (h *AuctionEventHub) logClientCount() {
	h.clientsLock.RLock()
	n := len(h.clients)
	h.clientsLock.RUnlock()
	h.logger.Debug("websocket hub status", zap.Int("clients", n))
}

func (h *AuctionEventHub) shutdown() {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()

	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
}

// ClientCount returns the number of connected clients
func (h *AuctionEventHub) ClientCount() int {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()
	return len(h.clients)
}
