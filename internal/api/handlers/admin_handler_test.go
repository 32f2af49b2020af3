package handlers

import (
	"net/http"
	"testing"

	"auction-client/internal/domain"
	"auction-client/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminEcho(admin *fakeAdmin) *echo.Echo {
	e := echo.New()
	h := NewAdminHandler(admin, logger.NewNop())
	e.GET("/auctions", h.ListAuctions)
	e.POST("/auctions", h.CreateAuction)
	e.GET("/auctions/:id/stats", h.AuctionStats)
	e.POST("/auctions/:id/start", h.StartAuction)
	e.POST("/auctions/:id/pause", h.PauseAuction)
	e.POST("/auctions/:id/resume", h.ResumeAuction)
	e.POST("/auctions/:id/close", h.CloseAuction)
	e.POST("/auctions/:id/extend", h.ExtendAuction)
	return e
}

func TestAdminHandler_Commands(t *testing.T) {
	admin := &fakeAdmin{}
	e := newAdminEcho(admin)

	for _, action := range []string{"start", "pause", "resume", "close"} {
		rec := serve(e, http.MethodPost, "/auctions/4/"+action, "")
		assert.Equal(t, http.StatusOK, rec.Code, action)
	}
	rec := serve(e, http.MethodPost, "/auctions/4/extend?minutes=15", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, admin.calls, 5)
	assert.Equal(t, adminCall{action: "start", id: 4}, admin.calls[0])
	assert.Equal(t, adminCall{action: "close", id: 4}, admin.calls[3])
	assert.Equal(t, adminCall{action: "extend", id: 4, minutes: 15}, admin.calls[4])
}

func TestAdminHandler_Queries(t *testing.T) {
	admin := &fakeAdmin{}
	e := newAdminEcho(admin)

	rec := serve(e, http.MethodGet, "/auctions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"product_name":"Car"`)

	rec = serve(e, http.MethodGet, "/auctions/2/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_bids":12`)

	rec = serve(e, http.MethodPost, "/auctions", `{"product_name": "Watch", "starting_price": 75, "end_time": "2026-06-01T08:30:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":9`)
}

func TestAdminHandler_BadInput(t *testing.T) {
	admin := &fakeAdmin{}
	e := newAdminEcho(admin)

	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/auctions/abc/start", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/auctions/4/extend", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/auctions/4/extend?minutes=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/auctions", `{"product_name": "Watch"}`).Code)
	assert.Empty(t, admin.calls)
}

func TestAdminHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "forbidden", err: &domain.ServerError{StatusCode: http.StatusForbidden, Detail: "Only admin allowed"}, wantStatus: http.StatusForbidden},
		{name: "not found", err: &domain.ServerError{StatusCode: http.StatusNotFound, Detail: "Auction not found"}, wantStatus: http.StatusNotFound},
		{name: "no token", err: domain.ErrAuthMissing, wantStatus: http.StatusUnauthorized},
		{name: "validation", err: domain.ErrValidation, wantStatus: http.StatusBadRequest},
		{name: "network", err: domain.ErrNetworkFailure, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newAdminEcho(&fakeAdmin{err: tt.err})
			rec := serve(e, http.MethodPost, "/auctions/4/close", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
