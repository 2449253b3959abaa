package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	domainErrors "github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/values"
	"github.com/marketbid/auction-marketplace-backend/internal/service/bidding"
	notificationService "github.com/marketbid/auction-marketplace-backend/internal/service/notification"
)

// Handlers implements the HTTP endpoints for auctions, bids and notifications
type Handlers struct {
	bidding         bidding.Service
	notifications   *notificationService.Service
	validate        *validator.Validate
	defaultCurrency string
}

// NewHandlers creates the endpoint handlers
func NewHandlers(biddingSvc bidding.Service, notificationSvc *notificationService.Service, defaultCurrency string) *Handlers {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Handlers{
		bidding:         biddingSvc,
		notifications:   notificationSvc,
		validate:        validator.New(),
		defaultCurrency: defaultCurrency,
	}
}

// HandleCreateAuction handles POST /api/v1/auctions
func (h *Handlers) HandleCreateAuction(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req CreateAuctionRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	price, err := h.parseMoney(req.StartingPrice, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := h.bidding.CreateAuction(r.Context(), &bidding.CreateAuctionRequest{
		SellerID:      userID,
		ListingID:     req.ListingID,
		StartingPrice: price,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuctionResponse(a, nil))
}

// HandleGetAuction handles GET /api/v1/auctions/{id}
func (h *Handlers) HandleGetAuction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := h.bidding.GetAuction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	countdown, err := h.bidding.GetCountdown(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuctionResponse(a, &countdown))
}

// HandleGetCountdown handles GET /api/v1/auctions/{id}/countdown
func (h *Handlers) HandleGetCountdown(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	countdown, err := h.bidding.GetCountdown(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCountdownResponse(countdown))
}

// HandlePlaceBid handles POST /api/v1/auctions/{id}/bids
func (h *Handlers) HandlePlaceBid(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	auctionID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req PlaceBidRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := h.parseMoney(req.Amount, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.bidding.PlaceBid(r.Context(), &bidding.PlaceBidRequest{
		AuctionID: auctionID,
		BidderID:  userID,
		Amount:    amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBidResponse(b))
}

// HandleListBids handles GET /api/v1/auctions/{id}/bids
func (h *Handlers) HandleListBids(w http.ResponseWriter, r *http.Request) {
	auctionID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	bids, err := h.bidding.ListBids(r.Context(), auctionID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, toBidResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCloseAuction handles POST /api/v1/auctions/{id}/close
func (h *Handlers) HandleCloseAuction(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	auctionID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := h.bidding.CloseAuction(r.Context(), &bidding.CloseAuctionRequest{
		AuctionID: auctionID,
		ActorID:   userID,
		Admin:     IsAdminFromContext(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuctionResponse(a, nil))
}

// HandleListNotifications handles GET /api/v1/notifications
func (h *Handlers) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	onlyUnread := r.URL.Query().Get("unread") == "true"
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	ns, err := h.notifications.List(r.Context(), userID, onlyUnread, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		resp = append(resp, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleUnreadCount handles GET /api/v1/notifications/unread-count
func (h *Handlers) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UnreadCountResponse{Count: count})
}

// HandleSetRead handles PATCH /api/v1/notifications/{id}
func (h *Handlers) HandleSetRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req SetReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON")
		return
	}

	if err := h.notifications.SetRead(r.Context(), userID, id, req.IsRead); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkAllRead handles POST /api/v1/notifications/mark-all-read
func (h *Handlers) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// HandleDeleteNotification handles DELETE /api/v1/notifications/{id}
func (h *Handlers) HandleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.notifications.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles GET /healthz
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domainErrors.NewValidationError("INVALID_JSON", "Request body is not valid JSON")
	}
	if err := h.validate.Struct(v); err != nil {
		return domainErrors.NewValidationError("INVALID_REQUEST", err.Error())
	}
	return nil
}

func (h *Handlers) parseMoney(amount, currency string) (values.Money, error) {
	if currency == "" {
		currency = h.defaultCurrency
	}
	m, err := values.NewMoneyFromString(amount, currency)
	if err != nil {
		return values.Money{}, domainErrors.ErrInvalidAmount.WithCause(err)
	}
	return m, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domainErrors.NewValidationError("INVALID_ID", "Path parameter is not a valid UUID")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
