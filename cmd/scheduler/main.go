package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/cache"
	"github.com/segyhp/collateral-ledger/internal/config"
	"github.com/segyhp/collateral-ledger/internal/database"
	"github.com/segyhp/collateral-ledger/internal/repository"
	"github.com/segyhp/collateral-ledger/internal/service"
	"github.com/segyhp/collateral-ledger/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.LogFormat(),
		ServiceName: "collateral-ledger-scheduler",
		Environment: cfg.Server.Env,
	})
	defer func() { _ = logg.Sync() }()
	zap.ReplaceGlobals(logg)

	logg.Info("Starting ledger scheduler...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.Connect(ctx, cfg.Database)
	cancel()
	if err != nil {
		logg.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	loanCache := cache.NewNopLoanCache()
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		loanCache = cache.NewRedisLoanCache(redisClient, cfg.Redis.CacheTTL)
	}

	store := repository.NewStore(db, cfg.Database.TxTimeout)
	ledgerService := service.NewLedgerService(store, loanCache, logg.Named("ledger"), service.SystemClock)

	// Validated by config.Load
	location, _ := time.LoadLocation(cfg.Scheduler.Timezone)

	cronLog := cronLogger{logg.Named("cron").Sugar()}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	// Schedule tasks
	if err := setupCronJobs(c, cfg, ledgerService, logg); err != nil {
		logg.Fatal("Error scheduling jobs", zap.Error(err))
	}

	// Start the scheduler
	c.Start()
	logg.Info("Scheduler started successfully",
		zap.String("overdue_spec", cfg.Scheduler.OverdueSpec),
		zap.String("timezone", cfg.Scheduler.Timezone),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	logg.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, ledger *service.LedgerService, logg *zap.Logger) error {
	// Overdue sweep, daily at midnight by default
	_, err := c.AddFunc(cfg.Scheduler.OverdueSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		start := time.Now()
		marked, err := ledger.MarkOverdueLoans(ctx)
		if err != nil {
			logg.Error("Overdue sweep finished with failures", zap.Int("marked", marked), zap.Error(err))
			return
		}
		logg.Info("Overdue sweep completed", zap.Int("marked", marked), zap.Duration("took", time.Since(start)))
	})
	return err
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
