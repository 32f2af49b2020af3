package services

import "auction-client/internal/domain"

const DefaultHistoryCap = 15

// BidHistory keeps the latest events, newest first. It is owned by a single
// goroutine and does no locking.
type BidHistory struct {
	cap     int
	entries []domain.BidEvent
}

func NewBidHistory(capacity int) *BidHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &BidHistory{
		cap:     capacity,
		entries: make([]domain.BidEvent, 0, capacity),
	}
}

// Add prepends ev and evicts the oldest entry once the cap is reached.
func (h *BidHistory) Add(ev domain.BidEvent) {
	if len(h.entries) < h.cap {
		h.entries = append(h.entries, domain.BidEvent{})
	}
	copy(h.entries[1:], h.entries[:len(h.entries)-1])
	h.entries[0] = ev
}

func (h *BidHistory) Len() int {
	return len(h.entries)
}

func (h *BidHistory) Cap() int {
	return h.cap
}

// Entries returns a copy, newest first.
func (h *BidHistory) Entries() []domain.BidEvent {
	out := make([]domain.BidEvent, len(h.entries))
	copy(out, h.entries)
	return out
}
