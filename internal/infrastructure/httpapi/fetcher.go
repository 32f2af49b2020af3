package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"auction-client/internal/config"
	"auction-client/internal/domain"
	"auction-client/internal/metrics"
	"auction-client/pkg/logger"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
)

// StateFetcher reads GET /auction/{id}. Calls go through a circuit breaker
// so a dead API fails fast; an open breaker is just another failed fetch.
type StateFetcher struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[*domain.AuctionSnapshot]
	clock   clockwork.Clock
	metrics *metrics.Metrics
	log     logger.Logger
}

func NewStateFetcher(
	client *Client,
	cfg config.BreakerConfig,
	clock clockwork.Clock,
	m *metrics.Metrics,
	log logger.Logger,
) *StateFetcher {
	st := gobreaker.Settings{
		Name:        "auction-snapshot",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return cfg.ConsecutiveFailures > 0 && c.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// A 4xx says the API is up; only transport errors and 5xx count.
		IsSuccessful: func(err error) bool {
			var se *domain.ServerError
			if errors.As(err, &se) {
				return se.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &StateFetcher{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[*domain.AuctionSnapshot](st),
		clock:   clock,
		metrics: m,
		log:     log,
	}
}

func (f *StateFetcher) FetchSnapshot(ctx context.Context, auctionID int64) (*domain.AuctionSnapshot, error) {
	snap, err := f.breaker.Execute(func() (*domain.AuctionSnapshot, error) {
		return f.fetch(ctx, auctionID)
	})
	if err != nil {
		result := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "breaker_open"
		}
		f.metrics.SnapshotFetches.WithLabelValues(result).Inc()
		f.log.Error("Failed to fetch auction snapshot", "auction_id", auctionID, "error", err)
		return nil, err
	}

	f.metrics.SnapshotFetches.WithLabelValues("ok").Inc()
	return snap, nil
}

func (f *StateFetcher) fetch(ctx context.Context, auctionID int64) (*domain.AuctionSnapshot, error) {
	var rec auctionRecord
	path := fmt.Sprintf("/auction/%d", auctionID)
	if err := f.client.do(ctx, http.MethodGet, path, "", nil, &rec); err != nil {
		return nil, err
	}

	return &domain.AuctionSnapshot{
		AuctionID:    auctionID,
		CurrentPrice: rec.CurrentPrice,
		Status:       domain.ParseAuctionStatus(rec.Status),
		EndTime:      rec.EndTime.t,
		FetchedAt:    f.clock.Now(),
	}, nil
}

var _ domain.SnapshotFetcher = (*StateFetcher)(nil)
