package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/marketbid/auction-marketplace-backend/internal/api/rest"
	"github.com/marketbid/auction-marketplace-backend/internal/api/websocket"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
	"github.com/marketbid/auction-marketplace-backend/internal/infrastructure/cache"
	"github.com/marketbid/auction-marketplace-backend/internal/infrastructure/config"
	"github.com/marketbid/auction-marketplace-backend/internal/infrastructure/database"
	"github.com/marketbid/auction-marketplace-backend/internal/infrastructure/repository"
	"github.com/marketbid/auction-marketplace-backend/internal/infrastructure/telemetry"
	"github.com/marketbid/auction-marketplace-backend/internal/metrics"
	"github.com/marketbid/auction-marketplace-backend/internal/service/bidding"
	notificationService "github.com/marketbid/auction-marketplace-backend/internal/service/notification"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.Initialize(ctx, &telemetry.Config{
		ServiceName:    "amp-api",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Telemetry shutdown: %v", err)
		}
	}()

	logger := telemetry.SetupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	pool, err := database.NewConnectionPool(&cfg.Database, zapLogger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.NewRedisClient(&cfg.Redis, zapLogger)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	registry, err := metrics.NewRegistry("amp-api")
	if err != nil {
		logger.Error("metrics registry failed", "error", err)
		os.Exit(1)
	}

	auctionRepo := repository.NewAuctionRepository(pool.Pool())
	bidRepo := repository.NewBidRepository(pool.Pool())
	notificationRepo := repository.NewNotificationRepository(pool.Pool())

	dispatcher := notificationService.NewDispatcher(asynqClient, logger).WithMetrics(registry)
	notificationSvc := notificationService.NewService(notificationRepo)

	snapshotCache := cache.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL, zapLogger)
	rateLimiter := cache.NewRedisRateLimiter(redisClient, zapLogger)

	auth := rest.NewAuthMiddleware([]byte(cfg.Security.JWTSecret), cfg.Security.TokenExpiry)

	wsHandler := websocket.NewHandler(zapLogger, func(r *http.Request) (uuid.UUID, error) {
		claims, err := auth.Authenticate(r)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	})
	wsHandler.Start(ctx)
	defer wsHandler.Stop()

	clock := auction.RealClock{}
	lifecycle := bidding.NewLifecycleManager(
		auctionRepo, dispatcher, wsHandler.Hub(), snapshotCache, registry, clock, logger).
		WithBatchSize(cfg.Auction.SweepBatchSize)
	biddingSvc := bidding.NewService(
		auctionRepo, bidRepo, dispatcher, wsHandler.Hub(), snapshotCache, registry, lifecycle, clock, logger)

	// Authoritative expiry: the sweeper ends auctions server-side; clients
	// only observe the resulting events.
	sweeper := bidding.NewSweeper(lifecycle, cfg.Auction.SweepInterval, logger)
	go sweeper.Run(ctx)

	countdowns := websocket.NewCountdownBroadcaster(wsHandler.Hub(),
		func(ctx context.Context, id uuid.UUID) (time.Time, error) {
			a, err := biddingSvc.GetAuction(ctx, id)
			if err != nil {
				return time.Time{}, err
			}
			return a.EndTime, nil
		}, cfg.Auction.CountdownTick, zapLogger)
	go countdowns.Run(ctx)

	handlers := rest.NewHandlers(biddingSvc, notificationSvc, cfg.Auction.DefaultCurrency)
	router := rest.NewRouter(&rest.RouterConfig{
		Handlers:             handlers,
		Auth:                 auth,
		RateLimiter:          rateLimiter,
		BidsPerMinute:        cfg.Security.RateLimit.BidsPerMinute,
		ConnLimiter:          cache.NewLocalRateLimiter(cfg.Security.RateLimit.BurstSize),
		ConnectionsPerMinute: cfg.Security.RateLimit.ConnectionsPerMinute,
		WebSocketHandler:     wsHandler.HandleAuctionEvents,
		Logger:               logger,
		EnableMetrics:        true,
	})

	server := rest.NewServer(&cfg.Server, instrumentHTTP(router), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
