package websocket

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from the marketplace frontend; origin
		// enforcement happens at the edge proxy.
		return true
	},
}

// AuthFunc resolves the authenticated user for an upgrade request
type AuthFunc func(r *http.Request) (uuid.UUID, error)

// Handler manages WebSocket endpoints
type Handler struct {
	logger *zap.Logger
	hub    *AuctionEventHub
	auth   AuthFunc
}

// NewHandler creates a new WebSocket handler
func NewHandler(logger *zap.Logger, auth AuthFunc) *Handler {
	return &Handler{
		logger: logger,
		hub:    NewAuctionEventHub(logger),
		auth:   auth,
	}
}

// Start runs the event hub
func (h *Handler) Start(ctx context.Context) {
	go h.hub.Run(ctx)
}

// Stop gracefully shuts down the handler
func (h *Handler) Stop() {
	h.hub.Stop()
}

// Hub returns the event hub for publishing events
func (h *Handler) Hub() *AuctionEventHub {
	return h.hub
}

// HandleAuctionEvents upgrades the connection and starts the client pumps
func (h *Handler) HandleAuctionEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}

	client := NewClient(conn, h.hub, userID)
	h.hub.RegisterClient(client)

	go client.WritePump()
	go client.ReadPump()
}
