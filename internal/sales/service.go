package sales

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNoDataset is returned when the service has no snapshot to read from.
var ErrNoDataset = errors.New("sales: dataset not loaded")

const summaryTimeout = 10 * time.Second

// Summary is the cacheable part of a view: both aggregates and the cards.
type Summary struct {
	ByDate     []Group[time.Time] `json:"by_date"`
	ByRegion   []Group[string]    `json:"by_region"`
	Indicators Indicators         `json:"indicators"`
}

// View is every piece of derived state the dashboard renders for one filter state.
type View struct {
	Criteria Criteria `json:"criteria"`
	Records  []Record `json:"records"`
	Summary
}

// Observer receives the size of every filtered set.
type Observer interface {
	ObserveFilter(records int)
}

// CacheObserver is implemented by observers that also track summary cache
// hits and misses.
type CacheObserver interface {
	ObserveCache(hit bool)
}

// Service runs the pipeline over an immutable dataset snapshot.
type Service struct {
	dataset  *Dataset
	schema   Schema
	cache    *Cache
	observer Observer
	flight   singleflight.Group
}

// NewService wires the snapshot with the filter schema and an optional cache.
func NewService(dataset *Dataset, schema Schema, cache *Cache) *Service {
	if len(schema.Dimensions) == 0 {
		schema = DefaultSchema()
	}
	return &Service{dataset: dataset, schema: schema, cache: cache}
}

// WithObserver attaches an observer and returns the service.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Dataset returns the snapshot.
func (s *Service) Dataset() *Dataset { return s.dataset }

// Schema returns the filter schema.
func (s *Service) Schema() Schema { return s.schema }

// DefaultCriteria is the initial filter state: everything selected.
func (s *Service) DefaultCriteria() Criteria {
	if s.dataset == nil {
		return Criteria{}
	}
	return s.dataset.DefaultCriteria()
}

// Filter applies the schema-constrained criteria to the snapshot.
func (s *Service) Filter(criteria Criteria) []Record {
	if s.dataset == nil {
		return []Record{}
	}
	filtered := ApplyFilters(s.dataset.Records(), s.schema.Constrain(criteria))
	if s.observer != nil {
		s.observer.ObserveFilter(len(filtered))
	}
	return filtered
}

// BuildSummary returns the aggregates and indicators, read through the cache.
func (s *Service) BuildSummary(ctx context.Context, criteria Criteria) (Summary, error) {
	if s.dataset == nil {
		return Summary{}, ErrNoDataset
	}
	criteria = s.schema.Constrain(criteria)
	key, err := s.cache.BuildKey(ctx, keySummary(s.dataset.ID(), criteria))
	if err != nil {
		return Summary{}, err
	}
	// Concurrent requests for the same key share one Redis round trip. The
	// shared call outlives any single caller.
	ch := s.flight.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), summaryTimeout)
		defer cancel()
		var summary Summary
		hit := true
		err := s.cache.FetchJSON(flightCtx, key, &summary, func(context.Context) (any, error) {
			hit = false
			return Summarize(s.Filter(criteria)), nil
		})
		if co, ok := s.observer.(CacheObserver); ok && err == nil {
			co.ObserveCache(hit)
		}
		return summary, err
	})
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Summary{}, res.Err
		}
		return res.Val.(Summary), nil
	}
}

// BuildView derives the full view state: filtered rows plus summary.
func (s *Service) BuildView(ctx context.Context, criteria Criteria) (View, error) {
	if s.dataset == nil {
		return View{}, ErrNoDataset
	}
	criteria = s.schema.Constrain(criteria)
	records := s.Filter(criteria)
	view := View{Criteria: criteria, Records: records}
	if !s.cache.Enabled() {
		view.Summary = Summarize(records)
		return view, nil
	}
	summary, err := s.BuildSummary(ctx, criteria)
	if err != nil {
		return View{}, err
	}
	view.Summary = summary
	return view, nil
}

// Invalidate bumps the cache version so summaries from an older snapshot are
// never served.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Summarize runs both aggregations and the indicators over filtered records.
func Summarize(records []Record) Summary {
	return Summary{
		ByDate:     AggregateByDate(records),
		ByRegion:   AggregateByRegion(records),
		Indicators: ComputeIndicators(records),
	}
}
