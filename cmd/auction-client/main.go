package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-client/internal/api"
	"auction-client/internal/api/handlers"
	"auction-client/internal/config"
	"auction-client/internal/domain"
	"auction-client/internal/infrastructure/httpapi"
	"auction-client/internal/infrastructure/redis"
	"auction-client/internal/infrastructure/websocket"
	"auction-client/internal/metrics"
	"auction-client/internal/services"
	"auction-client/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	bootLog := logger.New()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		bootLog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Redis
	var rdb *redisClient.Client
	if cfg.Redis.Enabled {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err = redis.NewClient(pingCtx, cfg.Redis)
		cancel()
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	var tokens domain.TokenStore
	switch {
	case cfg.Auth.Token != "":
		tokens = services.NewStaticTokenStore(cfg.Auth.Token)
	case rdb != nil:
		tokens = redis.NewRedisTokenStore(rdb, cfg.Auth.TokenKey)
	default:
		tokens = services.NewStaticTokenStore("")
	}

	clock := clockwork.NewRealClock()
	m := metrics.New()
	scheduler := services.NewTaskScheduler(clock, log)
	observers := services.NewObserverRegistry(log)
	var mirror *services.AsyncObserver
	if rdb != nil {
		mirror = services.NewAsyncObserver(
			redis.NewRedisViewPublisher(rdb, cfg.Redis.ViewChannel),
			8,
			cfg.Redis.PublishTimeout,
			log,
		)
		observers.Subscribe("redis", mirror)
	}

	// REST collaborators
	apiClient := httpapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, tokens, log)
	fetcher := httpapi.NewStateFetcher(apiClient, cfg.Breaker, clock, m, log)
	submitter := httpapi.NewBidSubmitter(apiClient, m, log)
	admin := httpapi.NewAdminClient(apiClient, log)

	stream := services.NewStreamConnection(
		websocket.NewDialer(cfg.API.WSBaseURL, cfg.API.HandshakeTimeout, log),
		scheduler,
		services.ReconnectPolicy{BaseDelay: cfg.Reconnect.BaseDelay, MaxDelay: cfg.Reconnect.MaxDelay},
		m,
		log,
	)
	defer stream.Close()

	coordinator := services.NewSyncCoordinator(
		services.SyncOptions{
			AuctionID:      cfg.Auction.ID,
			ResyncSchedule: cfg.Resync.Schedule,
			HistoryCap:     cfg.History.Cap,
		},
		fetcher,
		stream,
		submitter,
		tokens,
		services.NewCountdownClock(clock, cfg.Countdown.Interval),
		scheduler,
		observers,
		log,
	)

	g, gctx := errgroup.WithContext(ctx)

	if mirror != nil {
		g.Go(func() error {
			mirror.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		if err := coordinator.Run(gctx); err != nil {
			return fmt.Errorf("auction sync: %w", err)
		}
		return nil
	})

	if cfg.Server.Enabled {
		e := api.NewRouter(api.RouterDeps{
			Auction:    handlers.NewAuctionHandler(coordinator, log),
			Admin:      handlers.NewAdminHandler(admin, log),
			ViewStream: handlers.NewViewStreamHandler(coordinator, observers, log),
			Metrics:    m.Handler(),
		}, log)

		serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info("Starting status server", "address", serverAddr)

		g.Go(func() error {
			if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrAuthMissing) {
			log.Error("No auth token available; set AUCTION_TOKEN or store one in redis", "key", cfg.Auth.TokenKey)
		} else {
			log.Error("Auction client stopped with error", "error", err)
		}
		os.Exit(1)
	}
	log.Info("Auction client stopped")
}
