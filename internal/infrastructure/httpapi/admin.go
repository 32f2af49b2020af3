package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"auction-client/internal/domain"
	"auction-client/pkg/logger"

	"github.com/shopspring/decimal"
)

// AdminClient wraps the /admin endpoints. Every call needs a token.
type AdminClient struct {
	client *Client
	log    logger.Logger
}

func NewAdminClient(client *Client, log logger.Logger) *AdminClient {
	return &AdminClient{client: client, log: log}
}

func (a *AdminClient) ListAuctions(ctx context.Context) ([]domain.AuctionSummary, error) {
	token, err := a.client.bearer(ctx)
	if err != nil {
		return nil, err
	}

	var records []auctionRecord
	if err := a.client.do(ctx, http.MethodGet, "/admin/all-auctions", token, nil, &records); err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}

	out := make([]domain.AuctionSummary, 0, len(records))
	for _, r := range records {
		out = append(out, r.summary())
	}
	return out, nil
}

func (a *AdminClient) AuctionStats(ctx context.Context, auctionID int64) (*domain.AuctionStats, error) {
	token, err := a.client.bearer(ctx)
	if err != nil {
		return nil, err
	}

	var stats domain.AuctionStats
	path := fmt.Sprintf("/admin/auction-stats/%d", auctionID)
	if err := a.client.do(ctx, http.MethodGet, path, token, nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get stats for auction %d: %w", auctionID, err)
	}
	return &stats, nil
}

func (a *AdminClient) CreateAuction(ctx context.Context, productName string, startingPrice decimal.Decimal, endTime time.Time) (*domain.AuctionSummary, error) {
	token, err := a.client.bearer(ctx)
	if err != nil {
		return nil, err
	}
	if productName == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}
	if startingPrice.IsNegative() {
		return nil, fmt.Errorf("%w: starting price must not be negative", domain.ErrValidation)
	}

	body := struct {
		ProductName  string      `json:"product_name"`
		CurrentPrice json.Number `json:"current_price"`
		EndTime      string      `json:"end_time"`
	}{
		ProductName:  productName,
		CurrentPrice: json.Number(startingPrice.String()),
		EndTime:      endTime.UTC().Format(time.RFC3339),
	}

	var rec auctionRecord
	if err := a.client.do(ctx, http.MethodPost, "/admin/create-auction", token, body, &rec); err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	summary := rec.summary()
	a.log.Info("Auction created", "auction_id", summary.ID, "product", summary.ProductName)
	return &summary, nil
}

func (a *AdminClient) StartAuction(ctx context.Context, auctionID int64) error {
	return a.command(ctx, "start-auction", auctionID, nil)
}

func (a *AdminClient) PauseAuction(ctx context.Context, auctionID int64) error {
	return a.command(ctx, "pause-auction", auctionID, nil)
}

func (a *AdminClient) ResumeAuction(ctx context.Context, auctionID int64) error {
	return a.command(ctx, "resume-auction", auctionID, nil)
}

func (a *AdminClient) CloseAuction(ctx context.Context, auctionID int64) error {
	return a.command(ctx, "close-auction", auctionID, nil)
}

func (a *AdminClient) ExtendAuction(ctx context.Context, auctionID int64, extraMinutes int) error {
	if extraMinutes <= 0 {
		return fmt.Errorf("%w: extra minutes must be positive, got %d", domain.ErrValidation, extraMinutes)
	}
	return a.command(ctx, "extend-auction", auctionID, url.Values{
		"extra_minutes": []string{strconv.Itoa(extraMinutes)},
	})
}

func (a *AdminClient) command(ctx context.Context, action string, auctionID int64, query url.Values) error {
	token, err := a.client.bearer(ctx)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/admin/%s/%d", action, auctionID)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	if err := a.client.do(ctx, http.MethodPost, path, token, nil, nil); err != nil {
		return fmt.Errorf("%s %d: %w", action, auctionID, err)
	}

	a.log.Info("Admin command applied", "action", action, "auction_id", auctionID)
	return nil
}

var _ domain.AdminAPI = (*AdminClient)(nil)
