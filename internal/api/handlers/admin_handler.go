package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"auction-client/internal/domain"
	"auction-client/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// AdminHandler forwards local admin calls to the auction API.
type AdminHandler struct {
	admin domain.AdminAPI
	log   logger.Logger
}

type CreateAuctionRequest struct {
	ProductName   string          `json:"product_name"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	EndTime       time.Time       `json:"end_time"`
}

func NewAdminHandler(admin domain.AdminAPI, log logger.Logger) *AdminHandler {
	return &AdminHandler{
		admin: admin,
		log:   log,
	}
}

func (h *AdminHandler) ListAuctions(c echo.Context) error {
	auctions, err := h.admin.ListAuctions(c.Request().Context())
	if err != nil {
		return h.fail(c, "list auctions", err)
	}
	return c.JSON(http.StatusOK, auctions)
}

func (h *AdminHandler) AuctionStats(c echo.Context) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	stats, err := h.admin.AuctionStats(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "auction stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.EndTime.IsZero() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "End time required"})
	}

	created, err := h.admin.CreateAuction(c.Request().Context(), req.ProductName, req.StartingPrice, req.EndTime)
	if err != nil {
		return h.fail(c, "create auction", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *AdminHandler) StartAuction(c echo.Context) error {
	return h.command(c, "start", h.admin.StartAuction)
}

func (h *AdminHandler) PauseAuction(c echo.Context) error {
	return h.command(c, "pause", h.admin.PauseAuction)
}

func (h *AdminHandler) ResumeAuction(c echo.Context) error {
	return h.command(c, "resume", h.admin.ResumeAuction)
}

func (h *AdminHandler) CloseAuction(c echo.Context) error {
	return h.command(c, "close", h.admin.CloseAuction)
}

func (h *AdminHandler) ExtendAuction(c echo.Context) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}

	minutesStr := c.QueryParam("minutes")
	if minutesStr == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Extension minutes required"})
	}
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid extension minutes"})
	}

	if err := h.admin.ExtendAuction(c.Request().Context(), id, minutes); err != nil {
		return h.fail(c, "extend auction", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Auction extended"})
}

func (h *AdminHandler) command(c echo.Context, action string, fn func(ctx context.Context, id int64) error) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	if err := fn(c.Request().Context(), id); err != nil {
		return h.fail(c, action+" auction", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Auction " + action + " applied"})
}

func (h *AdminHandler) fail(c echo.Context, action string, err error) error {
	h.log.Error("Admin call failed", "action", action, "error", err)

	var se *domain.ServerError
	switch {
	case errors.As(err, &se):
		return c.JSON(se.StatusCode, map[string]string{"error": se.Detail})
	case errors.Is(err, domain.ErrAuthMissing):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Please login first"})
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Auction API unavailable"})
	}
}

func auctionID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid auction id")
	}
	return id, nil
}
