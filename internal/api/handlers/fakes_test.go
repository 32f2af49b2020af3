package handlers

import (
	"context"
	"sync"
	"time"

	"auction-client/internal/domain"

	"github.com/shopspring/decimal"
)

type fakeSync struct {
	mu       sync.Mutex
	view     domain.ReconciledView
	outcome  domain.BidOutcome
	amounts  []decimal.Decimal
	inFlight bool
}

func (f *fakeSync) View() domain.ReconciledView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view.Clone()
}

func (f *fakeSync) PlaceBid(_ context.Context, amount decimal.Decimal) domain.BidOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts = append(f.amounts, amount)
	return f.outcome
}

func (f *fakeSync) BidInFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

type adminCall struct {
	action  string
	id      int64
	minutes int
}

type fakeAdmin struct {
	mu    sync.Mutex
	calls []adminCall
	err   error
}

func (f *fakeAdmin) record(action string, id int64, minutes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, adminCall{action: action, id: id, minutes: minutes})
	return f.err
}

func (f *fakeAdmin) ListAuctions(context.Context) ([]domain.AuctionSummary, error) {
	if err := f.record("list", 0, 0); err != nil {
		return nil, err
	}
	return []domain.AuctionSummary{{ID: 1, ProductName: "Car", CurrentPrice: decimal.NewFromInt(1000), Status: "LIVE"}}, nil
}

func (f *fakeAdmin) AuctionStats(_ context.Context, id int64) (*domain.AuctionStats, error) {
	if err := f.record("stats", id, 0); err != nil {
		return nil, err
	}
	return &domain.AuctionStats{Status: "LIVE", CurrentPrice: decimal.NewFromInt(320), TotalBids: 12}, nil
}

func (f *fakeAdmin) CreateAuction(_ context.Context, name string, price decimal.Decimal, end time.Time) (*domain.AuctionSummary, error) {
	if err := f.record("create", 0, 0); err != nil {
		return nil, err
	}
	return &domain.AuctionSummary{ID: 9, ProductName: name, CurrentPrice: price, Status: "CREATED", EndTime: &end}, nil
}

func (f *fakeAdmin) StartAuction(_ context.Context, id int64) error  { return f.record("start", id, 0) }
func (f *fakeAdmin) PauseAuction(_ context.Context, id int64) error  { return f.record("pause", id, 0) }
func (f *fakeAdmin) ResumeAuction(_ context.Context, id int64) error { return f.record("resume", id, 0) }
func (f *fakeAdmin) CloseAuction(_ context.Context, id int64) error  { return f.record("close", id, 0) }

func (f *fakeAdmin) ExtendAuction(_ context.Context, id int64, minutes int) error {
	return f.record("extend", id, minutes)
}
