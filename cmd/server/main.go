package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/cache"
	"github.com/segyhp/collateral-ledger/internal/config"
	"github.com/segyhp/collateral-ledger/internal/database"
	"github.com/segyhp/collateral-ledger/internal/handler"
	"github.com/segyhp/collateral-ledger/internal/repository"
	"github.com/segyhp/collateral-ledger/internal/service"
	"github.com/segyhp/collateral-ledger/pkg/logger"
	"github.com/segyhp/collateral-ledger/pkg/ratelimit"
)

func main() {
	// A missing .env is fine; the environment wins anyway
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.LogFormat(),
		ServiceName: "collateral-ledger",
		Environment: cfg.Server.Env,
	})
	defer func() { _ = logg.Sync() }()
	zap.ReplaceGlobals(logg)

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		logg.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis
	redisClient, loanCache := initCache(cfg, logg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	store := repository.NewStore(db, cfg.Database.TxTimeout)

	ledgerService := service.NewLedgerService(store, loanCache, logg.Named("ledger"), service.SystemClock)
	catalogService := service.NewCatalogService(store, logg.Named("catalog"), service.SystemClock)

	router := handler.NewRouter(
		handler.NewLedgerHandler(ledgerService),
		handler.NewCatalogHandler(catalogService),
		handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout),
		logg.Named("http"),
		ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, 0),
	)

	// Start server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logg.Info("Server starting", zap.String("addr", server.Addr), zap.String("driver", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("Server forced to shutdown", zap.Error(err))
	}

	logg.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return database.Connect(ctx, cfg.Database)
}

// initCache returns a nil client and a no-op cache when REDIS_HOST is empty
func initCache(cfg *config.Config, logg *zap.Logger) (*redis.Client, cache.LoanCache) {
	if cfg.Redis.Host == "" {
		logg.Info("Loan cache disabled")
		return nil, cache.NewNopLoanCache()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Health.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// Reads fall through to the database until Redis comes back
		logg.Warn("Redis unreachable at startup", zap.String("addr", cfg.Redis.RedisAddr()), zap.Error(err))
	}

	return client, cache.NewRedisLoanCache(client, cfg.Redis.CacheTTL)
}
