package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"auction-client/internal/domain"
	"auction-client/pkg/logger"

	"github.com/go-redis/redis/v8"
)

func viewChannel(prefix string, auctionID int64) string {
	return fmt.Sprintf("%s:%d", prefix, auctionID)
}

// RedisViewPublisher mirrors every reconciled view onto
// {prefix}:{auction_id} as JSON.
type RedisViewPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisViewPublisher(client *redis.Client, prefix string) *RedisViewPublisher {
	return &RedisViewPublisher{client: client, prefix: prefix}
}

func (r *RedisViewPublisher) Notify(ctx context.Context, view domain.ReconciledView) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	return r.client.Publish(ctx, viewChannel(r.prefix, view.AuctionID), payload).Err()
}

var _ domain.StateObserver = (*RedisViewPublisher)(nil)

type ViewHandler func(view domain.ReconciledView) error

type RedisViewSubscriber struct {
	client *redis.Client
	prefix string
	log    logger.Logger
}

func NewRedisViewSubscriber(client *redis.Client, prefix string, log logger.Logger) *RedisViewSubscriber {
	return &RedisViewSubscriber{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

// Subscribe feeds views published for auctionID to handler until ctx is
// done. ready, if non-nil, is closed once the subscription is live.
func (r *RedisViewSubscriber) Subscribe(ctx context.Context, auctionID int64, ready chan<- struct{}, handler ViewHandler) error {
	channel := viewChannel(r.prefix, auctionID)
	pubsub := r.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	r.log.Info("Subscribed to auction views", "channel", channel)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var view domain.ReconciledView
			if err := json.Unmarshal([]byte(msg.Payload), &view); err != nil {
				r.log.Error("Failed to parse view", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(view); err != nil {
				r.log.Error("Failed to handle view", "auction_id", view.AuctionID, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("View subscriber stopped")
			return ctx.Err()
		}
	}
}
