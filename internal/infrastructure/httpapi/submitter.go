package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"auction-client/internal/domain"
	"auction-client/internal/metrics"
	"auction-client/pkg/logger"
)

const bidFailedFallback = "Bid failed"

// BidSubmitter posts bids one at a time. It never retries: a network
// failure is reported and the caller decides whether to resend the same
// command.
type BidSubmitter struct {
	client   *Client
	inFlight atomic.Bool
	metrics  *metrics.Metrics
	log      logger.Logger
}

func NewBidSubmitter(client *Client, m *metrics.Metrics, log logger.Logger) *BidSubmitter {
	return &BidSubmitter{
		client:  client,
		metrics: m,
		log:     log,
	}
}

func (s *BidSubmitter) InFlight() bool {
	return s.inFlight.Load()
}

func (s *BidSubmitter) Submit(ctx context.Context, cmd domain.BidCommand) domain.BidOutcome {
	outcome := s.submit(ctx, cmd)
	s.metrics.BidSubmissions.WithLabelValues(outcome.Result.String()).Inc()
	return outcome
}

func (s *BidSubmitter) submit(ctx context.Context, cmd domain.BidCommand) domain.BidOutcome {
	if !cmd.Amount.IsPositive() {
		err := fmt.Errorf("%w: bid amount must be greater than zero, got %s", domain.ErrValidation, cmd.Amount.String())
		return domain.Rejected("Bid amount must be greater than zero", err)
	}

	token, err := s.client.bearer(ctx)
	if err != nil {
		return domain.Rejected("Please login first", err)
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.Rejected("A bid is already being submitted", domain.ErrSubmissionInFlight)
	}
	defer s.inFlight.Store(false)

	req := bidRequest{
		AuctionID:      cmd.AuctionID,
		Amount:         json.Number(cmd.Amount.String()),
		IdempotencyKey: cmd.IdempotencyKey,
	}
	// Any 2xx is an accept; the body is informational only.
	err = s.client.do(ctx, http.MethodPost, "/bid", token, req, nil)

	var se *domain.ServerError
	switch {
	case err == nil:
		s.log.Info("Bid accepted",
			"auction_id", cmd.AuctionID,
			"amount", cmd.Amount.String(),
			"idempotency_key", cmd.IdempotencyKey,
		)
		return domain.Accepted(cmd.Amount)

	case errors.As(err, &se):
		reason := se.Detail
		if reason == "" {
			reason = bidFailedFallback
		}
		s.log.Warn("Bid rejected",
			"auction_id", cmd.AuctionID,
			"amount", cmd.Amount.String(),
			"status", se.StatusCode,
			"reason", reason,
		)
		return domain.Rejected(reason, err)

	default:
		s.log.Error("Bid submission failed",
			"auction_id", cmd.AuctionID,
			"idempotency_key", cmd.IdempotencyKey,
			"error", err,
		)
		if !errors.Is(err, domain.ErrNetworkFailure) {
			err = fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
		}
		return domain.NetworkFailure(err)
	}
}

var _ domain.BidSubmitter = (*BidSubmitter)(nil)
