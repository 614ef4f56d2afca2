package gridcache

import (
	"github.com/hupe1980/gridcache/resource"
	"github.com/hupe1980/gridcache/tick"
)

type options struct {
	clock            tick.Clock
	resources        resource.Config
	maxPublishDepth  int
	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures Substrate construction.
type Option func(*options)

func defaultOptions() options {
	return options{
		maxPublishDepth:  1,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
}

// WithClock supplies the engine's own tick counter instead of a
// substrate-owned one. Use this when the engine already numbers its
// simulation steps.
func WithClock(c tick.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithResources configures the process-wide resource limits (global entry
// budget, diagnostic log throttling).
func WithResources(cfg resource.Config) Option {
	return func(o *options) {
		o.resources = cfg
	}
}

// WithMaxPublishDepth raises the allowed nesting of Publish calls per
// event kind. The default of 1 forbids any handler from re-publishing its
// own kind; raise it only for wiring that deliberately cascades.
func WithMaxPublishDepth(depth int) Option {
	return func(o *options) {
		if depth >= 1 {
			o.maxPublishDepth = depth
		}
	}
}

// WithLogger configures logging. Pass nil to disable (the default).
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for substrate-level
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}
