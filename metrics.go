package gridcache

import (
	"sync/atomic"

	"github.com/hupe1980/gridcache/bus"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus. Per-cache hit/miss counters are exposed through
// registry.Stats instead; this collector sees substrate-level operations.
type MetricsCollector interface {
	// RecordPublish is called after each invalidation publish.
	// err is non-nil only for a recursive invalidation.
	RecordPublish(kind bus.Kind, err error)

	// RecordClearAll is called after a bulk clear, with the number of
	// handles cleared.
	RecordClearAll(handles int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPublish(bus.Kind, error) {}
func (NoopMetricsCollector) RecordClearAll(int)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PublishCount  atomic.Int64
	PublishErrors atomic.Int64
	ClearAllCount atomic.Int64
}

// RecordPublish implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPublish(_ bus.Kind, err error) {
	b.PublishCount.Add(1)
	if err != nil {
		b.PublishErrors.Add(1)
	}
}

// RecordClearAll implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClearAll(int) {
	b.ClearAllCount.Add(1)
}
