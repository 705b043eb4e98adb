package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/api"
	"github.com/jafarshop/storefront/internal/cache"
	"github.com/jafarshop/storefront/internal/config"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/internal/publisher"
	"github.com/jafarshop/storefront/internal/razorpay"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/internal/repository/memory"
	"github.com/jafarshop/storefront/internal/repository/mongo"
	"github.com/jafarshop/storefront/internal/repository/postgres"
	"github.com/jafarshop/storefront/internal/service"
	"github.com/jafarshop/storefront/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger("storefront", cfg.Environment, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.String("storage", cfg.Storage), zap.Error(err))
	}
	defer closeStorage()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	m := metrics.New()
	gateway := razorpay.NewClient(cfg.Razorpay, m, logger)
	sessions := session.NewStore(redisClient, cfg.Redis.SessionTTL)
	catalog := service.NewCatalogService(repos, cache.NewProductCache(redisClient), logger)

	svc := &service.Services{
		Orders:   service.NewOrderService(repos, gateway, catalog, m, logger, cfg.Orders.PageSize),
		Payments: service.NewPaymentService(gateway, logger),
		Catalog:  catalog,
		Auth:     service.NewAuthService(repos, sessions, logger),
	}

	if len(cfg.Kafka.Brokers) > 0 {
		writer := publisher.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer writer.Close()
		poller := publisher.NewOutboxPoller(repos.OrderEvent, writer, logger)
		go poller.Run(ctx)
		logger.Info("Order event publisher started",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(cfg, svc, m, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr), zap.String("storage", cfg.Storage))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}

// openStorage wires orders, products and events to MongoDB and users to
// Postgres, or everything to memory for local runs.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Repositories, func(), error) {
	if cfg.Storage == "memory" {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewRepositories(), func() {}, nil
	}

	db, err := mongo.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		return nil, nil, err
	}
	if err := mongo.CreateIndexes(ctx, db); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, nil, fmt.Errorf("create indexes: %w", err)
	}

	pg, err := openUsers(cfg.Database)
	if err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, nil, err
	}

	repos := mongo.NewRepositories(db, cfg.Mongo.Transactions, logger)
	repos.User = postgres.NewUserRepository(pg, logger)

	closeFn := func() {
		_ = pg.Close()
		if err := db.Client().Disconnect(context.Background()); err != nil {
			logger.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
	return repos, closeFn, nil
}

func openUsers(cfg config.DatabaseConfig) (*sql.DB, error) {
	pg, err := postgres.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(pg); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return pg, nil
}
