package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-client/internal/config"
	"auction-client/internal/domain"
	"auction-client/internal/infrastructure/redis"
	"auction-client/pkg/logger"
)

// auction-watch follows the views an auction-client mirrors into redis.
func main() {
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	rdb, err := redis.NewClient(pingCtx, cfg.Redis)
	cancel()
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	subscriber := redis.NewRedisViewSubscriber(rdb, cfg.Redis.ViewChannel, log)
	err = subscriber.Subscribe(ctx, cfg.Auction.ID, nil, func(view domain.ReconciledView) error {
		log.Info("Auction view",
			"auction_id", view.AuctionID,
			"price", view.Price.String(),
			"status", view.Status.String(),
			"leader", view.Leader,
			"connection", view.ConnectionState.String(),
			"countdown", view.Countdown,
		)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("View subscriber failed", "error", err)
		os.Exit(1)
	}
	log.Info("Auction watch stopped")
}
