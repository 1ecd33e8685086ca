package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the dashboard process.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	filtersTotal    prometheus.Counter
	filteredRecords prometheus.Histogram
	datasetRecords  prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics initialises the registry and the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salesdash_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salesdash_http_request_duration_seconds",
		Help:    "HTTP request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	filters := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "salesdash_pipeline_filters_total",
		Help: "Filter passes run over the dataset.",
	})
	filtered := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "salesdash_pipeline_records",
		Help:    "Records kept by each filter pass.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	dataset := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "salesdash_dataset_records",
		Help: "Records in the loaded dataset snapshot.",
	})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salesdash_summary_cache_lookups_total",
		Help: "Summary cache lookups by result.",
	}, []string{"result"})
	registry.MustRegister(requests, duration, filters, filtered, dataset, lookups)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		filtersTotal:    filters,
		filteredRecords: filtered,
		datasetRecords:  dataset,
		cacheLookups:    lookups,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveFilter records the size of one filtered set.
func (m *Metrics) ObserveFilter(records int) {
	if m == nil {
		return
	}
	m.filtersTotal.Inc()
	m.filteredRecords.Observe(float64(records))
}

// ObserveCache counts one summary cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// SetDatasetSize publishes the snapshot size after a load.
func (m *Metrics) SetDatasetSize(records int) {
	if m == nil {
		return
	}
	m.datasetRecords.Set(float64(records))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
