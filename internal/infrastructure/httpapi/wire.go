package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"auction-client/internal/domain"

	"github.com/shopspring/decimal"
)

// The server emits naive ISO datetimes which are UTC by convention.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// apiTime decodes RFC 3339 and naive datetimes; JSON null leaves it unset.
type apiTime struct {
	t *time.Time
}

func (a *apiTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		a.t = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	t, err := parseAPITime(raw)
	if err != nil {
		return err
	}
	a.t = &t
	return nil
}

func parseAPITime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", raw)
}

// auctionRecord is the auction row as the API serialises it.
type auctionRecord struct {
	ID           int64           `json:"id"`
	ProductName  string          `json:"product_name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Status       string          `json:"status"`
	EndTime      apiTime         `json:"end_time"`
}

func (r auctionRecord) summary() domain.AuctionSummary {
	return domain.AuctionSummary{
		ID:           r.ID,
		ProductName:  r.ProductName,
		CurrentPrice: r.CurrentPrice,
		Status:       r.Status,
		EndTime:      r.EndTime.t,
	}
}

type bidRequest struct {
	AuctionID      int64       `json:"auction_id"`
	Amount         json.Number `json:"amount"`
	IdempotencyKey string      `json:"idempotency_key"`
}
