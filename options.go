package geoscore

import "runtime"

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	batchParallelism int
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		batchParallelism: runtime.GOMAXPROCS(0),
	}
}

// Option configures Service construction.
type Option func(*options)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector sets the metrics collector. Defaults to no-op.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}

// WithBatchParallelism bounds the number of points evaluated concurrently by
// LocateBatch. Defaults to GOMAXPROCS. Values < 1 mean sequential.
func WithBatchParallelism(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.batchParallelism = n
	}
}
