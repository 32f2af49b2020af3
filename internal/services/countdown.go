package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

const CountdownClosed = "Auction Closed"

// CountdownClock projects the time left until a fixed deadline. Every value
// is recomputed from the clock's wall time, so a suspended process catches
// up on the next tick instead of drifting.
type CountdownClock struct {
	clock    clockwork.Clock
	interval time.Duration
}

func NewCountdownClock(clock clockwork.Clock, interval time.Duration) *CountdownClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &CountdownClock{
		clock:    clock,
		interval: interval,
	}
}

// Start yields the first value immediately and then one per tick, forever.
// Once the deadline passes every value is CountdownClosed. The channel is
// closed only when ctx is cancelled; each call returns a fresh sequence.
func (c *CountdownClock) Start(ctx context.Context, endTime time.Time) <-chan string {
	out := make(chan string)
	ticker := c.clock.NewTicker(c.interval)

	go func() {
		defer close(out)
		defer ticker.Stop()

		for {
			select {
			case out <- FormatRemaining(endTime.Sub(c.clock.Now())):
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.Chan():
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// FormatRemaining renders d the way the auction page does; anything at or
// below zero is CountdownClosed.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return CountdownClosed
	}
	mins := int64(d / time.Minute)
	secs := int64((d % time.Minute) / time.Second)
	return fmt.Sprintf("Time Remaining: %dm %ds", mins, secs)
}
