package main

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/bitshop/salesdash/internal/app"
	"github.com/bitshop/salesdash/internal/observability"
	"github.com/bitshop/salesdash/internal/platform/cache"
	"github.com/bitshop/salesdash/internal/sales"
	"github.com/bitshop/salesdash/internal/sales/export"
	saleshttp "github.com/bitshop/salesdash/internal/sales/http"
	"github.com/bitshop/salesdash/internal/sales/svg"
	"github.com/bitshop/salesdash/internal/view"
	"github.com/bitshop/salesdash/jobs"
	"github.com/bitshop/salesdash/report"
)

type lineRenderer struct{}

func (lineRenderer) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, series, labels, opts)
}

type barRenderer struct{}

func (barRenderer) Bars(width, height int, series []float64, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, series, labels, opts)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dataset, err := sales.LoadDataset(ctx, cfg.CSVPath, cfg.LoadOptions())
	if err != nil {
		logger.Error("load dataset", slog.String("path", cfg.CSVPath), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("dataset loaded",
		slog.String("path", cfg.CSVPath),
		slog.String("id", dataset.ID()),
		slog.Int("records", dataset.Len()),
	)

	schema, err := cfg.Schema()
	if err != nil {
		logger.Error("filter schema", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	metrics.SetDatasetSize(dataset.Len())

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cfg.Redis())
		if err != nil {
			logger.Warn("redis unavailable, summary cache disabled", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	salesService := sales.NewService(dataset, schema, sales.NewCache(redisClient, cfg.CacheTTL)).WithObserver(metrics)
	if err := salesService.Invalidate(ctx); err != nil {
		logger.Warn("invalidate summary cache", slog.Any("error", err))
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)
	var pdfService saleshttp.PDFService
	if reportClient != nil {
		pdfService = &export.PDFExporter{Renderer: reportClient}
	}

	salesHandler := saleshttp.NewHandler(
		logger,
		salesService,
		templates,
		lineRenderer{},
		barRenderer{},
		pdfService,
		handlerOptions(cfg),
	)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)

		jobClient, err := jobs.NewClient(redisOpts)
		if err == nil {
			if _, err := jobClient.EnqueueViewWarmup(ctx, jobs.ViewWarmupPayload{}); err != nil {
				logger.Warn("enqueue view warmup", slog.Any("error", err))
			}
			_ = jobClient.Close()
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		SalesHandler:  salesHandler,
		ReportHandler: reportHandler,
		JobHandler:    jobHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func handlerOptions(cfg *app.Config) saleshttp.Options {
	return saleshttp.Options{
		Title:          cfg.Title,
		PageSize:       cfg.PageSize,
		ExportFilename: cfg.ExportFilename,
		RequestTimeout: cfg.AppRequestTimeout,
	}
}
