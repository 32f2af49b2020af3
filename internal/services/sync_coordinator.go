package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-client/internal/domain"
	"auction-client/pkg/logger"

	"github.com/shopspring/decimal"
)

type SyncOptions struct {
	AuctionID int64
	// ResyncSchedule is a cron schedule for periodic re-fetches; empty
	// disables them.
	ResyncSchedule string
	HistoryCap     int
}

// SyncCoordinator merges snapshots and stream events into one reconciled
// view. All mutation happens on the goroutine running Run.
type SyncCoordinator struct {
	opts      SyncOptions
	fetcher   domain.SnapshotFetcher
	stream    *StreamConnection
	submitter domain.BidSubmitter
	tokens    domain.TokenStore
	countdown *CountdownClock
	scheduler *TaskScheduler
	observers *ObserverRegistry
	log       logger.Logger

	// Owned by the Run goroutine.
	view            domain.ReconciledView
	history         *BidHistory
	seq             uint64
	fetchID         uint64
	lastApplied     uint64
	countdownCh     <-chan string
	cancelCountdown context.CancelFunc
	fetches         sync.WaitGroup

	mu        sync.RWMutex
	published domain.ReconciledView
	running   bool
}

type fetchResult struct {
	snapshot *domain.AuctionSnapshot
	err      error
	fetchID  uint64
	issuedAt uint64
}

func NewSyncCoordinator(
	opts SyncOptions,
	fetcher domain.SnapshotFetcher,
	stream *StreamConnection,
	submitter domain.BidSubmitter,
	tokens domain.TokenStore,
	countdown *CountdownClock,
	scheduler *TaskScheduler,
	observers *ObserverRegistry,
	log logger.Logger,
) *SyncCoordinator {
	history := NewBidHistory(opts.HistoryCap)
	view := domain.ReconciledView{
		AuctionID:       opts.AuctionID,
		ConnectionState: domain.Disconnected,
		History:         history.Entries(),
	}
	return &SyncCoordinator{
		opts:      opts,
		fetcher:   fetcher,
		stream:    stream,
		submitter: submitter,
		tokens:    tokens,
		countdown: countdown,
		scheduler: scheduler,
		observers: observers,
		log:       log.With("auction_id", opts.AuctionID),
		view:      view,
		history:   history,
		published: view.Clone(),
	}
}

// View returns a copy of the latest reconciled state. Safe from any goroutine.
func (c *SyncCoordinator) View() domain.ReconciledView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.published.Clone()
}

// PlaceBid submits a new bid intent with a freshly minted idempotency key.
// The outcome says nothing about the reconciled price; only a later stream
// event moves it.
func (c *SyncCoordinator) PlaceBid(ctx context.Context, amount decimal.Decimal) domain.BidOutcome {
	return c.SubmitBid(ctx, domain.NewBidCommand(c.opts.AuctionID, amount))
}

// SubmitBid sends cmd as is. Use it to retry the same amount after a network
// failure so the server can deduplicate on the key.
func (c *SyncCoordinator) SubmitBid(ctx context.Context, cmd domain.BidCommand) domain.BidOutcome {
	outcome := c.submitter.Submit(ctx, cmd)
	c.log.Info("Bid submitted",
		"amount", cmd.Amount.String(),
		"idempotency_key", cmd.IdempotencyKey,
		"result", outcome.Result.String(),
		"reason", outcome.Reason,
	)
	return outcome
}

func (c *SyncCoordinator) BidInFlight() bool {
	return c.submitter.InFlight()
}

// Run fetches the initial snapshot, opens the stream and applies updates
// until ctx is cancelled. It fails fast with ErrAuthMissing when no token is
// stored. Run may only be called once at a time.
func (c *SyncCoordinator) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("sync coordinator already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if token == "" {
		return domain.ErrAuthMissing
	}

	ctx, cancel := context.WithCancel(ctx)
	defer c.teardown(cancel)

	results := make(chan fetchResult, 4)
	resync := make(chan struct{}, 1)

	if c.opts.ResyncSchedule != "" {
		id, err := c.scheduler.Every(c.opts.ResyncSchedule, func() {
			select {
			case resync <- struct{}{}:
			default:
			}
		})
		if err != nil {
			return fmt.Errorf("invalid resync schedule %q: %w", c.opts.ResyncSchedule, err)
		}
		defer c.scheduler.Remove(id)
		c.scheduler.Start()
		defer c.scheduler.Stop()
	}

	c.log.Info("Starting auction sync")
	c.startFetch(ctx, results)

	if err := c.stream.Connect(ctx, c.opts.AuctionID, token); err != nil {
		if !errors.Is(err, domain.ErrTransportLoss) {
			return fmt.Errorf("failed to connect stream: %w", err)
		}
		c.log.Warn("Initial stream connect failed, reconnect scheduled", "error", err)
	}

	events := c.stream.Events()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("Stopping auction sync")
			return nil

		case ev, ok := <-events:
			if !ok {
				return domain.ErrConnectionClosed
			}
			c.handleStreamEvent(ctx, ev, results)

		case res := <-results:
			c.applySnapshot(ctx, res)

		case text, ok := <-c.countdownCh:
			if !ok {
				c.countdownCh = nil
				continue
			}
			c.view.Countdown = text
			c.publish(ctx)

		case <-resync:
			c.log.Debug("Periodic resync")
			c.startFetch(ctx, results)
		}
	}
}

func (c *SyncCoordinator) teardown(cancel context.CancelFunc) {
	cancel()
	c.stopCountdown()
	c.stream.Disconnect()
	c.fetches.Wait()

	c.view.ConnectionState = domain.Disconnected
	c.mu.Lock()
	c.published = c.view.Clone()
	c.mu.Unlock()
}

func (c *SyncCoordinator) handleStreamEvent(ctx context.Context, ev StreamEvent, results chan<- fetchResult) {
	switch ev.Type {
	case StateChanged:
		c.view.ConnectionState = ev.State
		c.view.ReconnectAttempt = ev.Attempt
		if ev.State == domain.Open {
			// Correct whatever drifted while the stream was down.
			c.startFetch(ctx, results)
		}
		c.publish(ctx)

	case BidReceived:
		c.applyBid(ctx, ev.Bid)
	}
}

func (c *SyncCoordinator) applyBid(ctx context.Context, ev domain.BidEvent) {
	c.seq++
	ev.Seq = c.seq

	c.view.Price = ev.Price
	if ev.DealerID != nil {
		leader := *ev.DealerID
		c.view.Leader = &leader
	}
	c.history.Add(ev)
	c.view.History = c.history.Entries()
	c.view.LastEventAt = ev.ReceivedAt
	c.publish(ctx)
}

func (c *SyncCoordinator) startFetch(ctx context.Context, results chan<- fetchResult) {
	c.fetchID++
	id, issuedAt := c.fetchID, c.seq
	c.fetches.Add(1)
	go func() {
		defer c.fetches.Done()
		snapshot, err := c.fetcher.FetchSnapshot(ctx, c.opts.AuctionID)
		select {
		case results <- fetchResult{snapshot: snapshot, err: err, fetchID: id, issuedAt: issuedAt}:
		case <-ctx.Done():
		}
	}()
}

// applySnapshot installs a fetched snapshot as the baseline. A snapshot
// issued before one already applied is dropped whole; a price fetched
// before the latest applied event is skipped.
func (c *SyncCoordinator) applySnapshot(ctx context.Context, res fetchResult) {
	if res.err != nil {
		c.log.Warn("Snapshot fetch failed, keeping current state", "error", res.err)
		return
	}
	snap := res.snapshot
	if snap == nil {
		return
	}
	if res.fetchID < c.lastApplied {
		c.log.Debug("Dropping out-of-order snapshot",
			"fetch_id", res.fetchID,
			"last_applied", c.lastApplied,
		)
		return
	}
	c.lastApplied = res.fetchID

	if res.issuedAt == c.seq {
		c.view.Price = snap.CurrentPrice
	} else {
		c.log.Debug("Ignoring stale snapshot price",
			"snapshot_price", snap.CurrentPrice.String(),
			"events_since_fetch", c.seq-res.issuedAt,
		)
	}
	c.view.Status = snap.Status
	c.view.LastSnapshotAt = snap.FetchedAt

	if !sameTime(c.view.EndTime, snap.EndTime) {
		c.view.EndTime = copyTime(snap.EndTime)
		c.restartCountdown(ctx)
	}
	c.publish(ctx)
}

func (c *SyncCoordinator) restartCountdown(ctx context.Context) {
	c.stopCountdown()
	if c.view.EndTime == nil {
		c.view.Countdown = ""
		return
	}
	cdCtx, cancel := context.WithCancel(ctx)
	c.cancelCountdown = cancel
	c.countdownCh = c.countdown.Start(cdCtx, *c.view.EndTime)
}

func (c *SyncCoordinator) stopCountdown() {
	if c.cancelCountdown != nil {
		c.cancelCountdown()
		c.cancelCountdown = nil
	}
	c.countdownCh = nil
}

func (c *SyncCoordinator) publish(ctx context.Context) {
	c.mu.Lock()
	c.published = c.view.Clone()
	c.mu.Unlock()

	c.observers.Broadcast(ctx, c.view)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
