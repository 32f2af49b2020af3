package services

import (
	"testing"

	"auction-client/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bidAt(price int64) domain.BidEvent {
	return domain.BidEvent{Price: decimal.NewFromInt(price)}
}

func TestBidHistory_MostRecentFirst(t *testing.T) {
	h := NewBidHistory(3)
	h.Add(bidAt(1))
	h.Add(bidAt(2))

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Price.Equal(decimal.NewFromInt(2)))
	assert.True(t, entries[1].Price.Equal(decimal.NewFromInt(1)))
}

func TestBidHistory_EvictsOldest(t *testing.T) {
	h := NewBidHistory(3)
	for i := int64(1); i <= 10; i++ {
		h.Add(bidAt(i))
		assert.LessOrEqual(t, h.Len(), 3)
	}

	entries := h.Entries()
	require.Len(t, entries, 3)
	for i, want := range []int64{10, 9, 8} {
		assert.True(t, entries[i].Price.Equal(decimal.NewFromInt(want)), "entry %d", i)
	}
}

func TestBidHistory_DefaultCap(t *testing.T) {
	h := NewBidHistory(0)
	assert.Equal(t, DefaultHistoryCap, h.Cap())

	for i := int64(0); i < 40; i++ {
		h.Add(bidAt(i))
	}
	assert.Equal(t, DefaultHistoryCap, h.Len())
}

func TestBidHistory_EntriesIsACopy(t *testing.T) {
	h := NewBidHistory(2)
	h.Add(bidAt(5))

	entries := h.Entries()
	entries[0].Price = decimal.NewFromInt(99)

	assert.True(t, h.Entries()[0].Price.Equal(decimal.NewFromInt(5)))
}
