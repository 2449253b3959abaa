package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/bid"
	domainErrors "github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/testutil/fixtures"
	"github.com/marketbid/auction-marketplace-backend/internal/testutil/mocks"
	"github.com/marketbid/auction-marketplace-backend/internal/service/bidding"
	notificationService "github.com/marketbid/auction-marketplace-backend/internal/service/notification"
)

// biddingServiceMock mocks bidding.Service for handler tests
type biddingServiceMock struct {
	mock.Mock
}

func (m *biddingServiceMock) CreateAuction(ctx context.Context, req *bidding.CreateAuctionRequest) (*auction.Auction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auction.Auction), args.Error(1)
}

func (m *biddingServiceMock) PlaceBid(ctx context.Context, req *bidding.PlaceBidRequest) (*bid.Bid, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bid.Bid), args.Error(1)
}

func (m *biddingServiceMock) GetAuction(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auction.Auction), args.Error(1)
}

func (m *biddingServiceMock) GetCountdown(ctx context.Context, id uuid.UUID) (auction.Countdown, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(auction.Countdown), args.Error(1)
}

func (m *biddingServiceMock) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	args := m.Called(ctx, auctionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bid.Bid), args.Error(1)
}

func (m *biddingServiceMock) CloseAuction(ctx context.Context, req *bidding.CloseAuctionRequest) (*auction.Auction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auction.Auction), args.Error(1)
}

type apiFixture struct {
	router   http.Handler
	bidding  *biddingServiceMock
	notified *mocks.NotificationRepository
	auth     *AuthMiddleware
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	biddingSvc := new(biddingServiceMock)
	notificationRepo := new(mocks.NotificationRepository)
	auth := NewAuthMiddleware([]byte("test-secret"), time.Hour)

	router := NewRouter(&RouterConfig{
		Handlers: NewHandlers(biddingSvc, notificationService.NewService(notificationRepo), "USD"),
		Auth:     auth,
		Logger:   slog.Default(),
	})

	return &apiFixture{
		router:   router,
		bidding:  biddingSvc,
		notified: notificationRepo,
		auth:     auth,
	}
}

func (f *apiFixture) request(t *testing.T, method, path string, body interface{}, userID *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != nil {
		token, err := f.auth.GenerateToken(*userID, false)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestGetAuctionEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	bidder := uuid.New()
	a := fixtures.NewAuctionBuilder().WithCurrentBid(250, bidder).Build()

	f.bidding.On("GetAuction", mock.Anything, a.ID).Return(a, nil)
	f.bidding.On("GetCountdown", mock.Anything, a.ID).
		Return(auction.NewCountdown(a.EndTime, a.EndTime.Add(-30*time.Minute)), nil)

	rec := f.request(t, http.MethodGet, "/api/v1/auctions/"+a.ID.String(), nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuctionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, a.ID.String(), resp.ID)
	assert.Equal(t, "active", resp.Status)
	require.NotNil(t, resp.CurrentBid)
	assert.Equal(t, "250", resp.CurrentBid.Amount)
	require.NotNil(t, resp.Countdown)
	assert.Equal(t, "30m 0s", resp.Countdown.Label)
	assert.False(t, resp.Countdown.Expired)
}

func TestGetAuctionNotFound(t *testing.T) {
	f := newAPIFixture(t)
	id := uuid.New()
	f.bidding.On("GetAuction", mock.Anything, id).Return(nil, domainErrors.ErrAuctionNotFound)

	rec := f.request(t, http.MethodGet, "/api/v1/auctions/"+id.String(), nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAuctionRejectsBadID(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/auctions/not-a-uuid", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceBidEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	bidder := uuid.New()
	auctionID := uuid.New()
	placed := fixtures.NewBidBuilder().WithAuction(auctionID).WithBidder(bidder).WithAmount(150).Build()

	f.bidding.On("PlaceBid", mock.Anything, mock.MatchedBy(func(req *bidding.PlaceBidRequest) bool {
		return req.AuctionID == auctionID &&
			req.BidderID == bidder &&
			req.Amount.Amount().String() == "150"
	})).Return(placed, nil)

	rec := f.request(t, http.MethodPost, "/api/v1/auctions/"+auctionID.String()+"/bids",
		map[string]string{"amount": "150"}, &bidder)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp BidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, placed.ID.String(), resp.ID)
	assert.Equal(t, "USD", resp.Amount.Currency)
}

func TestPlaceBidErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"bid too low", domainErrors.ErrBidTooLow, http.StatusUnprocessableEntity, "BID_TOO_LOW"},
		{"auction closed", domainErrors.ErrAuctionClosed, http.StatusUnprocessableEntity, "AUCTION_CLOSED"},
		{"auction missing", domainErrors.ErrAuctionNotFound, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			bidder := uuid.New()
			auctionID := uuid.New()
			f.bidding.On("PlaceBid", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)

			rec := f.request(t, http.MethodPost, "/api/v1/auctions/"+auctionID.String()+"/bids",
				map[string]string{"amount": "150"}, &bidder)

			require.Equal(t, tt.wantStatus, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestPlaceBidRejectsGarbageAmount(t *testing.T) {
	f := newAPIFixture(t)
	bidder := uuid.New()

	for _, amount := range []string{"abc", "NaN", ""} {
		rec := f.request(t, http.MethodPost, "/api/v1/auctions/"+uuid.New().String()+"/bids",
			map[string]string{"amount": amount}, &bidder)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "amount %q must be rejected", amount)
	}
	f.bidding.AssertNotCalled(t, "PlaceBid", mock.Anything, mock.Anything)
}

func TestPlaceBidRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/auctions/"+uuid.New().String()+"/bids",
		map[string]string{"amount": "150"}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.bidding.AssertNotCalled(t, "PlaceBid", mock.Anything, mock.Anything)
}

func TestCreateAuctionEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	seller := uuid.New()
	created := fixtures.NewAuctionBuilder().WithSeller(seller).Build()

	f.bidding.On("CreateAuction", mock.Anything, mock.MatchedBy(func(req *bidding.CreateAuctionRequest) bool {
		return req.SellerID == seller && req.StartingPrice.Amount().String() == "100"
	})).Return(created, nil)

	start := time.Now().UTC().Add(time.Hour)
	rec := f.request(t, http.MethodPost, "/api/v1/auctions", map[string]interface{}{
		"starting_price": "100",
		"start_time":     start,
		"end_time":       start.Add(24 * time.Hour),
	}, &seller)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateAuctionRejectsInvertedWindow(t *testing.T) {
	f := newAPIFixture(t)
	seller := uuid.New()

	start := time.Now().UTC().Add(time.Hour)
	rec := f.request(t, http.MethodPost, "/api/v1/auctions", map[string]interface{}{
		"starting_price": "100",
		"start_time":     start,
		"end_time":       start.Add(-time.Hour),
	}, &seller)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.bidding.AssertNotCalled(t, "CreateAuction", mock.Anything, mock.Anything)
}

func TestCloseAuctionForbidden(t *testing.T) {
	f := newAPIFixture(t)
	actor := uuid.New()
	auctionID := uuid.New()

	f.bidding.On("CloseAuction", mock.Anything, mock.MatchedBy(func(req *bidding.CloseAuctionRequest) bool {
		return req.AuctionID == auctionID && req.ActorID == actor && !req.Admin
	})).Return(nil, domainErrors.NewForbiddenError("only the seller can close this auction"))

	rec := f.request(t, http.MethodPost, "/api/v1/auctions/"+auctionID.String()+"/close", nil, &actor)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCloseScheduledAuctionUnprocessable(t *testing.T) {
	f := newAPIFixture(t)
	actor := uuid.New()
	auctionID := uuid.New()

	f.bidding.On("CloseAuction", mock.Anything, mock.Anything).
		Return(nil, domainErrors.ErrAuctionNotActive)

	rec := f.request(t, http.MethodPost, "/api/v1/auctions/"+auctionID.String()+"/close", nil, &actor)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AUCTION_NOT_ACTIVE", resp.Error.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	userID := uuid.New()

	t.Run("list unread", func(t *testing.T) {
		f.notified.On("ListByUser", mock.Anything, userID, true, 50, 0).
			Return(fixtures.NotificationList(userID, 2), nil).Once()

		rec := f.request(t, http.MethodGet, "/api/v1/notifications?unread=true", nil, &userID)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []NotificationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
	})

	t.Run("unread count", func(t *testing.T) {
		f.notified.On("CountUnread", mock.Anything, userID).Return(4, nil).Once()

		rec := f.request(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, &userID)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp UnreadCountResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 4, resp.Count)
	})

	t.Run("mark one read", func(t *testing.T) {
		n := fixtures.Notification(userID)
		f.notified.On("GetByID", mock.Anything, n.ID).Return(n, nil).Once()
		f.notified.On("SetRead", mock.Anything, n.ID, true).Return(nil).Once()

		rec := f.request(t, http.MethodPatch, "/api/v1/notifications/"+n.ID.String(),
			map[string]bool{"is_read": true}, &userID)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("foreign notification is forbidden", func(t *testing.T) {
		n := fixtures.Notification(uuid.New())
		f.notified.On("GetByID", mock.Anything, n.ID).Return(n, nil).Once()

		rec := f.request(t, http.MethodDelete, "/api/v1/notifications/"+n.ID.String(), nil, &userID)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRecoveryMiddlewareConvertsPanic(t *testing.T) {
	f := newAPIFixture(t)
	id := uuid.New()
	f.bidding.On("GetAuction", mock.Anything, id).Run(func(mock.Arguments) {
		panic(fmt.Errorf("boom"))
	}).Return(nil, nil)

	rec := f.request(t, http.MethodGet, "/api/v1/auctions/"+id.String(), nil, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/healthz", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
