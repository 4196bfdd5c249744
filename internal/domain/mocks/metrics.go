package mocks

import (
	"context"
	"sync"
	"time"
)

// MetricsCollector records metric calls for assertions.
type MetricsCollector struct {
	mu         sync.Mutex
	Operations map[string][]string // operation -> statuses, in call order
	Retries    map[string]int
}

// NewMetricsCollector creates an empty recording collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		Operations: make(map[string][]string),
		Retries:    make(map[string]int),
	}
}

// RecordOperation records the status of an operation.
func (m *MetricsCollector) RecordOperation(_ context.Context, operation, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Operations[operation] = append(m.Operations[operation], status)
}

// RecordRetry records a retry.
func (m *MetricsCollector) RecordRetry(_ context.Context, operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Retries[operation]++
}
