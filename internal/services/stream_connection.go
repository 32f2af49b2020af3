package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-client/internal/domain"
	"auction-client/internal/metrics"
	"auction-client/pkg/logger"
)

type StreamEventType int

const (
	StateChanged StreamEventType = iota
	BidReceived
)

// StreamEvent is either a state transition or a parsed bid. Attempt and
// Delay are set on RECONNECTING transitions; Err carries the loss cause.
type StreamEvent struct {
	Type    StreamEventType
	State   domain.ConnectionState
	Attempt int
	Delay   time.Duration
	Bid     domain.BidEvent
	Err     error
}

// StreamConnection owns the lifecycle of the push connection for one
// auction. Every dial bumps a generation counter; readers and reconnect
// tasks from an older generation are ignored, so a planned close can never
// be mistaken for a loss.
type StreamConnection struct {
	dialer    domain.StreamDialer
	scheduler *TaskScheduler
	policy    ReconnectPolicy
	metrics   *metrics.Metrics
	log       logger.Logger

	mu         sync.Mutex
	cond       *sync.Cond
	state      domain.ConnectionState
	attempt    int
	gen        uint64
	auctionID  int64
	token      string
	transport  domain.StreamTransport
	reconnect  *ScheduledTask
	cancelDial context.CancelFunc
	queue      []StreamEvent
	closed     bool

	lifetime context.Context
	shutdown context.CancelFunc
	events   chan StreamEvent
	done     chan struct{}
}

func NewStreamConnection(
	dialer domain.StreamDialer,
	scheduler *TaskScheduler,
	policy ReconnectPolicy,
	m *metrics.Metrics,
	log logger.Logger,
) *StreamConnection {
	lifetime, shutdown := context.WithCancel(context.Background())
	c := &StreamConnection{
		dialer:    dialer,
		scheduler: scheduler,
		policy:    policy,
		metrics:   m,
		log:       log,
		state:     domain.Disconnected,
		lifetime:  lifetime,
		shutdown:  shutdown,
		events:    make(chan StreamEvent, 256),
		done:      make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	go c.pump()
	return c
}

// Events delivers state changes and bids in the order they happened. It is
// closed by Close.
func (c *StreamConnection) Events() <-chan StreamEvent {
	return c.events
}

func (c *StreamConnection) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *StreamConnection) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// Connect dials the stream with token as the bearer credential. A failed
// dial schedules a reconnect like any other unplanned close and returns an
// error wrapping ErrTransportLoss. Connect on an open connection is a no-op.
func (c *StreamConnection) Connect(ctx context.Context, auctionID int64, token string) error {
	if token == "" {
		return domain.ErrAuthMissing
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrConnectionClosed
	}
	if c.state == domain.Open || c.state == domain.Connecting {
		c.mu.Unlock()
		return nil
	}
	c.auctionID = auctionID
	c.token = token
	c.reconnect.Cancel()
	c.reconnect = nil
	gen := c.beginAttemptLocked()
	dialCtx, cancel := context.WithCancel(ctx)
	c.cancelDial = cancel
	c.mu.Unlock()

	return c.dial(dialCtx, cancel, gen, auctionID, token)
}

// Disconnect is a planned close: the pending reconnect is cancelled, the
// transport is closed and no reconnect follows.
func (c *StreamConnection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()
}

// Close disconnects and ends the event stream for good.
func (c *StreamConnection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.disconnectLocked()
	c.closed = true
	close(c.done)
	c.cond.Broadcast()
	c.mu.Unlock()

	c.shutdown()
	return nil
}

func (c *StreamConnection) disconnectLocked() {
	c.gen++
	c.reconnect.Cancel()
	c.reconnect = nil
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	if c.transport != nil {
		if err := c.transport.Close(); err != nil {
			c.log.Debug("Error closing stream transport", "error", err)
		}
		c.transport = nil
	}
	if c.state != domain.Disconnected {
		c.log.Info("Stream disconnected", "auction_id", c.auctionID)
		c.setStateLocked(StreamEvent{State: domain.Disconnected})
	}
}

func (c *StreamConnection) beginAttemptLocked() uint64 {
	c.gen++
	c.setStateLocked(StreamEvent{State: domain.Connecting, Attempt: c.attempt})
	return c.gen
}

func (c *StreamConnection) dial(ctx context.Context, cancel context.CancelFunc, gen uint64, auctionID int64, token string) error {
	defer cancel()

	transport, err := c.dialer.Dial(ctx, auctionID, token)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.closed {
		// Disconnected or superseded while dialing.
		if transport != nil {
			_ = transport.Close()
		}
		return domain.ErrConnectionClosed
	}
	c.cancelDial = nil

	if err != nil {
		c.log.Warn("Stream dial failed", "auction_id", auctionID, "attempt", c.attempt, "error", err)
		lossErr := fmt.Errorf("%w: dial auction %d: %v", domain.ErrTransportLoss, auctionID, err)
		c.scheduleReconnectLocked(lossErr)
		return lossErr
	}

	c.transport = transport
	c.attempt = 0
	c.log.Info("Stream connected", "auction_id", auctionID)
	c.setStateLocked(StreamEvent{State: domain.Open})

	go c.readLoop(gen, transport)
	return nil
}

// scheduleReconnectLocked moves to RECONNECTING and arms exactly one
// reconnect task for the current generation.
func (c *StreamConnection) scheduleReconnectLocked(cause error) {
	c.transport = nil
	c.attempt++
	delay := c.policy.Delay(c.attempt)
	c.metrics.Reconnects.Inc()

	c.log.Info("Scheduling stream reconnect", "auction_id", c.auctionID, "attempt", c.attempt, "delay", delay)
	c.setStateLocked(StreamEvent{
		State:   domain.Reconnecting,
		Attempt: c.attempt,
		Delay:   delay,
		Err:     cause,
	})

	gen := c.gen
	c.reconnect = c.scheduler.After(delay, func() {
		c.reconnectNow(gen)
	})
}

func (c *StreamConnection) reconnectNow(scheduledGen uint64) {
	c.mu.Lock()
	if c.closed || scheduledGen != c.gen || c.state != domain.Reconnecting {
		c.mu.Unlock()
		return
	}
	c.reconnect = nil
	gen := c.beginAttemptLocked()
	ctx, cancel := context.WithCancel(c.lifetime)
	c.cancelDial = cancel
	auctionID, token := c.auctionID, c.token
	c.mu.Unlock()

	// Failures have already been logged and rescheduled.
	_ = c.dial(ctx, cancel, gen, auctionID, token)
}

func (c *StreamConnection) readLoop(gen uint64, transport domain.StreamTransport) {
	for {
		frame, err := transport.ReadFrame()
		if err != nil {
			c.handleLoss(gen, transport, err)
			return
		}

		ev, err := domain.ParseBidEvent(frame)
		if err != nil {
			c.metrics.StreamFrames.WithLabelValues("malformed").Inc()
			c.log.Warn("Discarding malformed stream frame", "error", err, "frame", string(frame))
			continue
		}
		c.metrics.StreamFrames.WithLabelValues("ok").Inc()
		ev.ReceivedAt = c.scheduler.Clock().Now()

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.enqueueLocked(StreamEvent{Type: BidReceived, State: c.state, Bid: ev})
		c.mu.Unlock()
	}
}

func (c *StreamConnection) handleLoss(gen uint64, transport domain.StreamTransport, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.closed {
		return
	}

	// Force-close so a half-dead transport cannot linger.
	if err := transport.Close(); err != nil && !errors.Is(err, domain.ErrConnectionClosed) {
		c.log.Debug("Error closing lost transport", "error", err)
	}
	c.log.Warn("Stream lost", "auction_id", c.auctionID, "error", cause)
	c.scheduleReconnectLocked(fmt.Errorf("%w: %v", domain.ErrTransportLoss, cause))
}

func (c *StreamConnection) setStateLocked(ev StreamEvent) {
	ev.Type = StateChanged
	c.state = ev.State
	c.metrics.ConnectionState.Set(float64(ev.State))
	c.enqueueLocked(ev)
}

func (c *StreamConnection) enqueueLocked(ev StreamEvent) {
	if c.closed {
		return
	}
	c.queue = append(c.queue, ev)
	c.cond.Signal()
}

// pump moves queued events onto the channel so producers never block while
// holding the lock.
func (c *StreamConnection) pump() {
	defer close(c.events)

	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.closed {
			c.cond.Wait()
		}
		if c.closed {
			c.queue = nil
			c.mu.Unlock()
			return
		}
		ev := c.queue[0]
		c.queue[0] = StreamEvent{}
		c.queue = c.queue[1:]
		c.mu.Unlock()

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}
