package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/bitshop/salesdash/internal/jobs"
	"github.com/bitshop/salesdash/internal/sales"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const warmupConcurrency = 4

// SummaryWarmer is the slice of the sales service the warmup needs.
type SummaryWarmer interface {
	Dataset() *sales.Dataset
	Schema() sales.Schema
	DefaultCriteria() sales.Criteria
	BuildSummary(ctx context.Context, criteria sales.Criteria) (sales.Summary, error)
}

// ViewWarmupJob pre-populates the summary cache for the unfiltered view and
// for each single product or seller over the full date span.
type ViewWarmupJob struct {
	Service SummaryWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewViewWarmupJob wires dependencies for the warmup handler.
func NewViewWarmupJob(service SummaryWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ViewWarmupJob {
	return &ViewWarmupJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes warmup tasks.
func (j *ViewWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("view warmup: handler not configured")
	}
	var payload ViewWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskSalesViewWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	ds := j.Service.Dataset()
	if ds == nil {
		resultErr = sales.ErrNoDataset
		return resultErr
	}
	start := time.Now()
	logger.Info("starting view warmup", slog.String("dataset", ds.ID()))

	base := j.Service.DefaultCriteria()
	if _, err := j.Service.BuildSummary(ctx, base); err != nil {
		resultErr = err
		logger.Error("warm default view", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddWarmed("", 1)
	warmed := 1

	schema := j.Service.Schema()
	for _, dim := range []struct {
		name   string
		dim    sales.Dimension
		values []string
		apply  func(c *sales.Criteria, v string)
	}{
		{WarmupProducts, sales.DimensionProduct, ds.Products(), func(c *sales.Criteria, v string) { c.Products = []string{v} }},
		{WarmupSellers, sales.DimensionSeller, ds.Sellers(), func(c *sales.Criteria, v string) { c.Sellers = []string{v} }},
	} {
		if !schema.Enabled(dim.dim) || !wants(payload.Dimensions, dim.name) {
			continue
		}
		count, err := j.warmDimension(ctx, base, dim.values, dim.apply)
		j.metrics().AddWarmed(dim.name, count)
		warmed += count
		if err != nil {
			resultErr = err
			logger.Error("warm dimension", slog.String("dimension", dim.name), slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed view warmup", slog.Int("entries", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ViewWarmupJob) warmDimension(ctx context.Context, base sales.Criteria, values []string, apply func(*sales.Criteria, string)) (int, error) {
	var count atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	for _, value := range values {
		g.Go(func() error {
			criteria := base
			apply(&criteria, value)
			scopeCtx, cancel := context.WithTimeout(gctx, 20*time.Second)
			defer cancel()
			if _, err := j.Service.BuildSummary(scopeCtx, criteria); err != nil {
				return err
			}
			count.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(count.Load()), err
}

func wants(dimensions []string, name string) bool {
	return len(dimensions) == 0 || slices.Contains(dimensions, name)
}

func (j *ViewWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSalesViewWarmup))
	}
	return slog.Default().With(slog.String("job", TaskSalesViewWarmup))
}

func (j *ViewWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// CacheInvalidator bumps the summary cache version.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CacheInvalidateJob drops every cached summary by bumping the version.
type CacheInvalidateJob struct {
	Service CacheInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes invalidation tasks.
func (j *CacheInvalidateJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("cache invalidate: handler not configured")
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	err := metrics.Track(TaskSalesCacheInvalidate).End(j.Service.Invalidate(ctx))
	if err != nil && j.Logger != nil {
		j.Logger.Error("invalidate cache", slog.Any("error", err))
	}
	return err
}
