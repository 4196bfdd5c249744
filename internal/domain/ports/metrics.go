package ports

import (
	"context"
	"time"
)

// MetricsCollector records engine operation metrics.
// Implementations include the Prometheus collector and a no-op collector.
type MetricsCollector interface {
	// RecordOperation records the completion of a service operation.
	// Status is "ok" or the error code of the failure.
	RecordOperation(ctx context.Context, operation, status string, duration time.Duration)

	// RecordRetry records an automatic retry after contention.
	RecordRetry(ctx context.Context, operation string)
}
