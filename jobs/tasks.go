package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSalesViewWarmup primes the summary cache for common filter states.
	TaskSalesViewWarmup = "sales:view_warmup"
	// TaskSalesCacheInvalidate bumps the summary cache version.
	TaskSalesCacheInvalidate = "sales:cache_invalidate"
)

// Warmup dimensions.
const (
	WarmupProducts = "product"
	WarmupSellers  = "seller"
)

// ViewWarmupPayload selects which single-value filter states get primed on
// top of the unfiltered view. An empty list primes every dimension.
type ViewWarmupPayload struct {
	Dimensions []string `json:"dimensions,omitempty"`
}

// NewViewWarmupTask constructs a warmup task.
func NewViewWarmupTask(payload ViewWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSalesViewWarmup, data), nil
}

// NewCacheInvalidateTask constructs an invalidation task.
func NewCacheInvalidateTask() *asynq.Task {
	return asynq.NewTask(TaskSalesCacheInvalidate, nil)
}
