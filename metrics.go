package geoscore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; the daemon in cmd/geoscored does exactly that.
type MetricsCollector interface {
	// RecordLoad is called after each load attempt.
	// regions is the size of the published catalog (0 on failure),
	// duration is the build time, err is nil if successful.
	RecordLoad(regions int, duration time.Duration, err error)

	// RecordLocate is called after each single-point lookup.
	// found reports whether a region covered the point.
	RecordLocate(found bool, duration time.Duration, err error)

	// RecordBatch is called after each batch lookup.
	// count is the number of points, failed the number of per-point errors.
	RecordBatch(count, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordLocate(bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadTotalNanos   atomic.Int64
	LocateCount      atomic.Int64
	LocateMisses     atomic.Int64
	LocateErrors     atomic.Int64
	LocateTotalNanos atomic.Int64
	BatchCount       atomic.Int64
	BatchPoints      atomic.Int64
	BatchFailed      atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordLocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLocate(found bool, duration time.Duration, err error) {
	b.LocateCount.Add(1)
	b.LocateTotalNanos.Add(duration.Nanoseconds())
	if !found {
		b.LocateMisses.Add(1)
	}
	if err != nil {
		b.LocateErrors.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(count, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchPoints.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}
