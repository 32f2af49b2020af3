package services

import (
	"context"
	"sync"
	"time"

	"auction-client/internal/domain"
	"auction-client/pkg/logger"
)

type ObserverRegistry struct {
	observers map[string]domain.StateObserver // observerID -> observer
	mutex     sync.RWMutex
	log       logger.Logger
}

func NewObserverRegistry(log logger.Logger) *ObserverRegistry {
	return &ObserverRegistry{
		observers: make(map[string]domain.StateObserver),
		log:       log,
	}
}

// Subscribe registers obs under id, replacing any observer already there.
func (r *ObserverRegistry) Subscribe(id string, obs domain.StateObserver) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.observers[id] = obs
	r.log.Debug("Observer registered", "observer_id", id)
}

func (r *ObserverRegistry) Unsubscribe(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.observers, id)
	r.log.Debug("Observer unregistered", "observer_id", id)
}

func (r *ObserverRegistry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.observers)
}

func (r *ObserverRegistry) snapshot() map[string]domain.StateObserver {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make(map[string]domain.StateObserver, len(r.observers))
	for id, obs := range r.observers {
		out[id] = obs
	}
	return out
}

// Broadcast hands every observer its own copy of view. A failing observer is
// logged and skipped.
func (r *ObserverRegistry) Broadcast(ctx context.Context, view domain.ReconciledView) {
	for id, obs := range r.snapshot() {
		if err := obs.Notify(ctx, view.Clone()); err != nil {
			r.log.Error("Failed to notify observer", "observer_id", id, "error", err)
			// Continue to other observers
		}
	}
}

// ChannelObserver keeps the latest views in a small buffer. When the reader
// falls behind the oldest pending view is dropped; only recency matters.
type ChannelObserver struct {
	ch chan domain.ReconciledView
	mu sync.Mutex
}

func NewChannelObserver(buffer int) *ChannelObserver {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelObserver{ch: make(chan domain.ReconciledView, buffer)}
}

func (o *ChannelObserver) Notify(_ context.Context, view domain.ReconciledView) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for {
		select {
		case o.ch <- view:
			return nil
		default:
		}
		select {
		case <-o.ch:
		default:
		}
	}
}

func (o *ChannelObserver) Views() <-chan domain.ReconciledView {
	return o.ch
}

var _ domain.StateObserver = (*ChannelObserver)(nil)

// AsyncObserver delivers views to a slow observer, such as a network
// mirror, off the publishing goroutine. Notify only queues; Run delivers
// the most recent views with a per-delivery timeout.
type AsyncObserver struct {
	inner   domain.StateObserver
	queue   *ChannelObserver
	timeout time.Duration
	log     logger.Logger
}

func NewAsyncObserver(inner domain.StateObserver, buffer int, timeout time.Duration, log logger.Logger) *AsyncObserver {
	return &AsyncObserver{
		inner:   inner,
		queue:   NewChannelObserver(buffer),
		timeout: timeout,
		log:     log,
	}
}

func (o *AsyncObserver) Notify(ctx context.Context, view domain.ReconciledView) error {
	return o.queue.Notify(ctx, view)
}

// Run delivers queued views until ctx is done.
func (o *AsyncObserver) Run(ctx context.Context) {
	for {
		select {
		case view := <-o.queue.Views():
			o.deliver(ctx, view)
		case <-ctx.Done():
			return
		}
	}
}

func (o *AsyncObserver) deliver(ctx context.Context, view domain.ReconciledView) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	if err := o.inner.Notify(ctx, view); err != nil {
		o.log.Warn("Failed to deliver view", "auction_id", view.AuctionID, "error", err)
	}
}

var _ domain.StateObserver = (*AsyncObserver)(nil)
