package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is a single WebSocket connection with its auction subscriptions
type Client struct {
	ID     uuid.UUID
	conn   *websocket.Conn
	send   chan *AuctionEvent
	hub    *AuctionEventHub
	userID uuid.UUID

	subsLock      sync.RWMutex
	subscriptions map[uuid.UUID]struct{}
}

// NewClient creates a client for an upgraded connection
func NewClient(conn *websocket.Conn, hub *AuctionEventHub, userID uuid.UUID) *Client {
	return &Client{
		ID:            uuid.New(),
		conn:          conn,
		send:          make(chan *AuctionEvent, 16),
		hub:           hub,
		userID:        userID,
		subscriptions: make(map[uuid.UUID]struct{}),
	}
}

func (c *Client) subscribed(auctionID uuid.UUID) bool {
	c.subsLock.RLock()
	defer c.subsLock.RUnlock()
	_, ok := c.subscriptions[auctionID]
	return ok
}

func (c *Client) subscriptionList() []uuid.UUID {
	c.subsLock.RLock()
	defer c.subsLock.RUnlock()
	ids := make([]uuid.UUID, 0, len(c.subscriptions))
	for id := range c.subscriptions {
		ids = append(ids, id)
	}
	return ids
}

type clientMessage struct {
	Type      string `json:"type"`
	AuctionID string `json:"auction_id,omitempty"`
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("websocket read error",
					zap.String("client_id", c.ID.String()),
					zap.Error(err))
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.logger.Debug("ignoring malformed client message",
				zap.String("client_id", c.ID.String()),
				zap.Error(err))
			continue
		}

		switch msg.Type {
		case "subscribe":
			if id, err := uuid.Parse(msg.AuctionID); err == nil {
				c.subsLock.Lock()
				c.subscriptions[id] = struct{}{}
				c.subsLock.Unlock()
			}
		case "unsubscribe":
			if id, err := uuid.Parse(msg.AuctionID); err == nil {
				c.subsLock.Lock()
				delete(c.subscriptions, id)
				c.subsLock.Unlock()
			}
		}
	}
}

// WritePump pumps events from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
