package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Auction API interfaces
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, auctionID int64) (*AuctionSnapshot, error)
}

type BidSubmitter interface {
	Submit(ctx context.Context, cmd BidCommand) BidOutcome
	InFlight() bool
}

type AdminAPI interface {
	ListAuctions(ctx context.Context) ([]AuctionSummary, error)
	AuctionStats(ctx context.Context, auctionID int64) (*AuctionStats, error)
	CreateAuction(ctx context.Context, productName string, startingPrice decimal.Decimal, endTime time.Time) (*AuctionSummary, error)
	StartAuction(ctx context.Context, auctionID int64) error
	PauseAuction(ctx context.Context, auctionID int64) error
	ResumeAuction(ctx context.Context, auctionID int64) error
	CloseAuction(ctx context.Context, auctionID int64) error
	ExtendAuction(ctx context.Context, auctionID int64, extraMinutes int) error
}

// Credential interface
type TokenStore interface {
	// Token returns "" when no credential is stored.
	Token(ctx context.Context) (string, error)
}

// Stream interfaces
type StreamDialer interface {
	Dial(ctx context.Context, auctionID int64, token string) (StreamTransport, error)
}

// StreamTransport is one open connection. ReadFrame blocks until a frame
// arrives or the connection fails; after Close it must return an error.
type StreamTransport interface {
	ReadFrame() ([]byte, error)
	Close() error
}

// Observer interfaces
type StateObserver interface {
	Notify(ctx context.Context, view ReconciledView) error
}

type StateObserverFunc func(ctx context.Context, view ReconciledView) error

func (f StateObserverFunc) Notify(ctx context.Context, view ReconciledView) error {
	return f(ctx, view)
}
