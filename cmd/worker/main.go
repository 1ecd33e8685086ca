package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bitshop/salesdash/internal/app"
	"github.com/bitshop/salesdash/internal/platform/cache"
	"github.com/bitshop/salesdash/internal/sales"
	"github.com/bitshop/salesdash/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if cfg.RedisAddr == "" {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	dataset, err := sales.LoadDataset(ctx, cfg.CSVPath, cfg.LoadOptions())
	if err != nil {
		logger.Error("load dataset", slog.String("path", cfg.CSVPath), slog.Any("error", err))
		os.Exit(1)
	}
	schema, err := cfg.Schema()
	if err != nil {
		logger.Error("filter schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	salesService := sales.NewService(dataset, schema, sales.NewCache(redisClient, cfg.CacheTTL))
	warmupJob := jobs.NewViewWarmupJob(salesService, logger, nil)
	invalidateJob := &jobs.CacheInvalidateJob{Service: salesService, Logger: logger}

	warmupTask, err := jobs.NewViewWarmupTask(jobs.ViewWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSalesViewWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskSalesCacheInvalidate, Handler: invalidateJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("dataset", dataset.ID()))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
