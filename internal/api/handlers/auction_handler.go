package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"auction-client/internal/domain"
	"auction-client/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// AuctionSync is the part of the coordinator the HTTP surface needs.
type AuctionSync interface {
	View() domain.ReconciledView
	PlaceBid(ctx context.Context, amount decimal.Decimal) domain.BidOutcome
	BidInFlight() bool
}

type AuctionHandler struct {
	sync AuctionSync
	log  logger.Logger
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type PlaceBidResponse struct {
	Result domain.BidResult `json:"result"`
	Price  decimal.Decimal  `json:"price"`
	Reason string           `json:"reason,omitempty"`
}

func NewAuctionHandler(sync AuctionSync, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		sync: sync,
		log:  log,
	}
}

func (h *AuctionHandler) Health(c echo.Context) error {
	view := h.sync.View()
	return c.JSON(http.StatusOK, map[string]any{
		"status":           "ok",
		"service":          "auction-client",
		"timestamp":        time.Now().Format(time.RFC3339),
		"auction_id":       view.AuctionID,
		"connection_state": view.ConnectionState,
	})
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sync.View())
}

func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if h.sync.BidInFlight() {
		return c.JSON(http.StatusConflict, map[string]string{"error": "A bid is already being submitted"})
	}

	outcome := h.sync.PlaceBid(c.Request().Context(), req.Amount)
	return c.JSON(bidStatus(outcome), PlaceBidResponse{
		Result: outcome.Result,
		Price:  outcome.Price,
		Reason: outcome.Reason,
	})
}

func bidStatus(outcome domain.BidOutcome) int {
	switch {
	case outcome.Result == domain.BidAccepted:
		return http.StatusOK
	case outcome.Result == domain.BidNetworkFailure:
		return http.StatusBadGateway
	case errors.Is(outcome.Err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(outcome.Err, domain.ErrAuthMissing):
		return http.StatusUnauthorized
	case errors.Is(outcome.Err, domain.ErrSubmissionInFlight):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
