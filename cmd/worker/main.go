// Package main is the entry point for the EverPack background worker.
// It sweeps stock alerts on a schedule, drains the transactional outbox
// and prunes expired refresh tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"

	"everpack/internal/domain/alerts"
	"everpack/internal/domain/catalogs/product"
	"everpack/internal/infrastructure/storage/postgres"
	"everpack/internal/infrastructure/storage/postgres/auth_repo"
	"everpack/internal/infrastructure/storage/postgres/catalog_repo"
	"everpack/internal/infrastructure/storage/postgres/register_repo"
	"everpack/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting everpack worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	// Alert sweep dependencies. The sweep walks every active product and
	// reconciles its alerts against the ledger, catching products whose
	// minimum threshold changed without a movement.
	productService := product.NewService(catalog_repo.NewProductRepo(txManager), txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	events := postgres.NewOutboxPublisher(txManager)
	alertService := alerts.NewService(register_repo.NewAlertRepo(txManager), productService, stockRepo, events)

	relay := postgres.NewOutboxRelay(pool, getEnvInt("OUTBOX_BATCH_SIZE", 100), logHandler{log: log})
	tokenRepo := auth_repo.NewTokenRepo(txManager)

	scheduler := gocron.NewScheduler(time.UTC)

	sweepInterval := getEnvInt("ALERT_SWEEP_MINUTES", 15)
	_, err = scheduler.Every(sweepInterval).Minutes().Do(func() {
		result, err := alertService.Sweep(ctx)
		if err != nil {
			log.Errorw("alert sweep failed", "error", err)
			return
		}
		log.Infow("alert sweep complete",
			"checked", result.Checked,
			"created", result.Created,
			"resolved", result.Resolved)
	})
	if err != nil {
		log.Fatalw("failed to schedule alert sweep", "error", err)
	}

	drainInterval := getEnvInt("OUTBOX_DRAIN_SECONDS", 10)
	_, err = scheduler.Every(drainInterval).Seconds().Do(func() {
		processed, err := relay.ProcessBatch(ctx)
		if err != nil {
			log.Errorw("outbox drain failed", "error", err)
			return
		}
		if processed > 0 {
			log.Infow("outbox drained", "processed", processed)
		}
	})
	if err != nil {
		log.Fatalw("failed to schedule outbox drain", "error", err)
	}

	_, err = scheduler.Every(1).Day().At("03:00").Do(func() {
		removed, err := tokenRepo.CleanupExpiredTokens(ctx)
		if err != nil {
			log.Errorw("token cleanup failed", "error", err)
			return
		}
		log.Infow("expired tokens pruned", "removed", removed)
	})
	if err != nil {
		log.Fatalw("failed to schedule token cleanup", "error", err)
	}

	scheduler.StartAsync()
	log.Infow("worker schedules registered",
		"alert_sweep_minutes", sweepInterval,
		"outbox_drain_seconds", drainInterval)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	scheduler.Stop()
	cancel()
	log.Info("worker stopped")
}

// logHandler delivers outbox messages to the log. A production deployment
// would swap this for a message broker publisher; the retry/backoff
// bookkeeping lives in the relay either way.
type logHandler struct {
	log *logger.Logger
}

func (h logHandler) Handle(_ context.Context, msg *postgres.OutboxMessage) error {
	h.log.Infow("domain event",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"payload", string(msg.Payload))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
