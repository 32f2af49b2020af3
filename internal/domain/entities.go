package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuctionStatus int

const (
	AuctionUnknown AuctionStatus = iota
	AuctionPending
	AuctionActive
	AuctionPaused
	AuctionClosed
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionPending:
		return "PENDING"
	case AuctionActive:
		return "ACTIVE"
	case AuctionPaused:
		return "PAUSED"
	case AuctionClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

func (s AuctionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AuctionStatus) UnmarshalText(text []byte) error {
	*s = ParseAuctionStatus(string(text))
	return nil
}

// ParseAuctionStatus maps the server's status strings. The server calls an
// active auction LIVE and a not-yet-started one CREATED.
func ParseAuctionStatus(raw string) AuctionStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LIVE", "ACTIVE":
		return AuctionActive
	case "CREATED", "PENDING":
		return AuctionPending
	case "PAUSED":
		return AuctionPaused
	case "CLOSED":
		return AuctionClosed
	default:
		return AuctionUnknown
	}
}

// AuctionSnapshot is the authoritative state at FetchedAt. It is never
// mutated; a later fetch replaces it.
type AuctionSnapshot struct {
	AuctionID    int64
	CurrentPrice decimal.Decimal
	Status       AuctionStatus
	EndTime      *time.Time
	FetchedAt    time.Time
}

// BidEvent is one pushed update. A nil DealerID is a price-only update.
type BidEvent struct {
	Price      decimal.Decimal `json:"price"`
	DealerID   *int64          `json:"dealer_id,omitempty"`
	Seq        uint64          `json:"seq"`
	ReceivedAt time.Time       `json:"received_at"`
}

func (e BidEvent) HasDealer() bool {
	return e.DealerID != nil
}

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Open
	Reconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Open:
		return "OPEN"
	case Reconnecting:
		return "RECONNECTING"
	default:
		return "UNKNOWN"
	}
}

func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ConnectionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "DISCONNECTED":
		*s = Disconnected
	case "CONNECTING":
		*s = Connecting
	case "OPEN":
		*s = Open
	case "RECONNECTING":
		*s = Reconnecting
	default:
		return fmt.Errorf("unknown connection state %q", text)
	}
	return nil
}

// BidCommand is one bid intent. Retrying the exact same amount after a
// transport failure reuses the command as is; any new amount must come from
// NewBidCommand so the server never sees one key for two amounts.
type BidCommand struct {
	AuctionID      int64           `json:"auction_id"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
}

func NewBidCommand(auctionID int64, amount decimal.Decimal) BidCommand {
	return BidCommand{
		AuctionID:      auctionID,
		Amount:         amount,
		IdempotencyKey: GenerateIdempotencyKey(),
	}
}

func GenerateIdempotencyKey() string {
	return "bid_" + uuid.NewString()
}

type BidResult int

const (
	BidAccepted BidResult = iota
	BidRejected
	BidNetworkFailure
)

func (r BidResult) String() string {
	switch r {
	case BidAccepted:
		return "accepted"
	case BidRejected:
		return "rejected"
	case BidNetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

func (r BidResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

type BidOutcome struct {
	Result BidResult       `json:"result"`
	Price  decimal.Decimal `json:"price"`
	Reason string          `json:"reason,omitempty"`
	Err    error           `json:"-"`
}

func Accepted(price decimal.Decimal) BidOutcome {
	return BidOutcome{Result: BidAccepted, Price: price}
}

func Rejected(reason string, err error) BidOutcome {
	return BidOutcome{Result: BidRejected, Reason: reason, Err: err}
}

func NetworkFailure(err error) BidOutcome {
	return BidOutcome{Result: BidNetworkFailure, Reason: "Network error", Err: err}
}

// ReconciledView is what observers see. History is most recent first.
type ReconciledView struct {
	AuctionID        int64           `json:"auction_id"`
	Price            decimal.Decimal `json:"price"`
	Status           AuctionStatus   `json:"status"`
	EndTime          *time.Time      `json:"end_time,omitempty"`
	Leader           *int64          `json:"leader,omitempty"`
	History          []BidEvent      `json:"history"`
	ConnectionState  ConnectionState `json:"connection_state"`
	ReconnectAttempt int             `json:"reconnect_attempt"`
	Countdown        string          `json:"countdown"`
	LastSnapshotAt   time.Time       `json:"last_snapshot_at"`
	LastEventAt      time.Time       `json:"last_event_at"`
}

// Clone copies the slices and pointers so the result can leave the owning
// goroutine.
func (v ReconciledView) Clone() ReconciledView {
	out := v
	if v.History != nil {
		out.History = make([]BidEvent, len(v.History))
		copy(out.History, v.History)
	}
	if v.Leader != nil {
		leader := *v.Leader
		out.Leader = &leader
	}
	if v.EndTime != nil {
		end := *v.EndTime
		out.EndTime = &end
	}
	return out
}

// AuctionSummary is an admin listing row.
type AuctionSummary struct {
	ID           int64           `json:"id"`
	ProductName  string          `json:"product_name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Status       string          `json:"status"`
	EndTime      *time.Time      `json:"end_time,omitempty"`
}

type AuctionStats struct {
	Status        string          `json:"status"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	TotalBids     int64           `json:"total_bids"`
	HighestBidder *int64          `json:"highest_bidder"`
}
