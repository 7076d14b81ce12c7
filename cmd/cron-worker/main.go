package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/Abhijit5011/Electromart/internal/cron"
	product "github.com/Abhijit5011/Electromart/internal/products"
	"github.com/Abhijit5011/Electromart/pkg/config"
	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/metrics"
	"github.com/Abhijit5011/Electromart/pkg/outbox"
	"github.com/Abhijit5011/Electromart/pkg/redis"
	"github.com/Abhijit5011/Electromart/pkg/storage"
)

const lockKeyFormat = "em:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "cron worker shutting down gracefully")
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	bucket, err := storage.Open(bootCtx, cfg.Storage, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, bucket.Close()) }()

	// the lease outlives one cycle so a slow run is never doubled
	lock, err := cron.NewRedisLock(redisClient, fmt.Sprintf(lockKeyFormat, envOrLocal(cfg.App.Env)), 2*cfg.Cron.Interval)
	if err != nil {
		return err
	}

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Cron.OutboxRetentionDays,
		KeepAttempts:  cfg.Cron.OutboxKeepAttempts,
	})
	if err != nil {
		return err
	}
	orphans, err := cron.NewOrphanImagesJob(cron.OrphanImagesJobParams{
		Logger:   logg,
		Bucket:   bucket,
		Products: product.NewRepository(dbClient.DB()),
		Grace:    cfg.Cron.OrphanImageGrace,
	})
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(retention, orphans),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	return service.Run(ctx)
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
