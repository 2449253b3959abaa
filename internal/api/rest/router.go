package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketbid/auction-marketplace-backend/internal/infrastructure/cache"
)

// RouterConfig wires the router's collaborators
type RouterConfig struct {
	Handlers      *Handlers
	Auth          *AuthMiddleware
	RateLimiter   cache.RateLimiter
	BidsPerMinute int

	// ConnLimiter throttles websocket upgrade attempts; it is separate from
	// the bid limiter because connection churn is per replica.
	ConnLimiter          cache.RateLimiter
	ConnectionsPerMinute int

	WebSocketHandler http.HandlerFunc
	Logger           *slog.Logger
	EnableMetrics    bool
}

// NewRouter builds the HTTP routing table
func NewRouter(cfg *RouterConfig) http.Handler {
	mux := http.NewServeMux()
	h := cfg.Handlers
	authed := cfg.Auth.Middleware()

	mux.HandleFunc("GET /healthz", h.HandleHealth)
	if cfg.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Auction reads are public; writes require authentication.
	mux.HandleFunc("GET /api/v1/auctions/{id}", h.HandleGetAuction)
	mux.HandleFunc("GET /api/v1/auctions/{id}/countdown", h.HandleGetCountdown)
	mux.HandleFunc("GET /api/v1/auctions/{id}/bids", h.HandleListBids)

	mux.Handle("POST /api/v1/auctions", authed(http.HandlerFunc(h.HandleCreateAuction)))
	mux.Handle("POST /api/v1/auctions/{id}/close", authed(http.HandlerFunc(h.HandleCloseAuction)))

	placeBid := http.Handler(http.HandlerFunc(h.HandlePlaceBid))
	if cfg.RateLimiter != nil && cfg.BidsPerMinute > 0 {
		placeBid = RateLimitMiddleware(cfg.RateLimiter, cfg.BidsPerMinute, time.Minute)(placeBid)
	}
	mux.Handle("POST /api/v1/auctions/{id}/bids", authed(placeBid))

	mux.Handle("GET /api/v1/notifications", authed(http.HandlerFunc(h.HandleListNotifications)))
	mux.Handle("GET /api/v1/notifications/unread-count", authed(http.HandlerFunc(h.HandleUnreadCount)))
	mux.Handle("POST /api/v1/notifications/mark-all-read", authed(http.HandlerFunc(h.HandleMarkAllRead)))
	mux.Handle("PATCH /api/v1/notifications/{id}", authed(http.HandlerFunc(h.HandleSetRead)))
	mux.Handle("DELETE /api/v1/notifications/{id}", authed(http.HandlerFunc(h.HandleDeleteNotification)))

	if cfg.WebSocketHandler != nil {
		ws := http.Handler(cfg.WebSocketHandler)
		if cfg.ConnLimiter != nil && cfg.ConnectionsPerMinute > 0 {
			ws = RateLimitMiddleware(cfg.ConnLimiter, cfg.ConnectionsPerMinute, time.Minute)(ws)
		}
		mux.Handle("GET /api/v1/ws/auctions", ws)
	}

	return Chain(mux,
		RecoveryMiddleware(cfg.Logger),
		RequestIDMiddleware(),
		RequestLoggingMiddleware(cfg.Logger),
	)
}
