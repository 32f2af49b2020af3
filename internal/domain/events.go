package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type bidFrame struct {
	Price    *decimal.Decimal `json:"price"`
	DealerID *int64           `json:"dealer_id"`
}

// ParseBidEvent decodes one stream frame `{price, dealer_id?}`. A frame
// without a usable price is malformed. Seq and ReceivedAt are left for the
// consumer to stamp.
func ParseBidEvent(frame []byte) (BidEvent, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return BidEvent{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedMessage)
	}

	var f bidFrame
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return BidEvent{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if f.Price == nil {
		return BidEvent{}, fmt.Errorf("%w: missing price", ErrMalformedMessage)
	}

	return BidEvent{
		Price:    *f.Price,
		DealerID: f.DealerID,
	}, nil
}
