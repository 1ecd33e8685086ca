package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	_ = metrics.Track("warmup").End(nil)
	boom := errors.New("boom")
	if err := metrics.Track("warmup").End(boom); !errors.Is(err, boom) {
		t.Fatalf("expected error to pass through, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("warmup", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("warmup")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestAddWarmed(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.AddWarmed("product", 3)
	metrics.AddWarmed("", 1)
	metrics.AddWarmed("seller", 0)

	if got := testutil.ToFloat64(metrics.warmed.WithLabelValues("product")); got != 3 {
		t.Fatalf("expected 3 product entries, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.warmed.WithLabelValues("all")); got != 1 {
		t.Fatalf("expected default dimension, got %v", got)
	}
}

func TestNilTrackerIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.AddWarmed("product", 1)
	if err := metrics.Track("warmup").End(nil); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
