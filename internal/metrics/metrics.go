// Package metrics exposes the daemon's Prometheus metrics and the adapter
// that feeds them from the library's MetricsCollector hooks.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoscore_requests_total",
		Help: "Total HTTP requests by route",
	}, []string{"route"})
	LocateTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoscore_locate_total",
		Help: "Total single-point lookups",
	})
	LocateMissTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoscore_locate_miss_total",
		Help: "Lookups that matched no region",
	})
	LocateNotReadyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoscore_locate_not_ready_total",
		Help: "Lookups rejected because no catalog was loaded",
	})
	LocateDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoscore_locate_duration_ms",
		Help:    "Single-point lookup duration in milliseconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100},
	})
	BatchPointsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoscore_batch_points_total",
		Help: "Total points received via batch lookups",
	})
	BatchFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoscore_batch_failed_total",
		Help: "Batch points that resolved to no region or an error",
	})
	LoadTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoscore_load_total",
		Help: "Total catalog load attempts",
	})
	LoadFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoscore_load_fail_total",
		Help: "Catalog load attempts that failed",
	})
	LoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoscore_load_duration_ms",
		Help:    "Catalog build duration in milliseconds",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 60000},
	})
	CatalogRegions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geoscore_catalog_regions",
		Help: "Regions in the active catalog",
	})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		LocateTotal,
		LocateMissTotal,
		LocateNotReadyTotal,
		LocateDurationMs,
		BatchPointsTotal,
		BatchFailedTotal,
		LoadTotal,
		LoadFailTotal,
		LoadDurationMs,
		CatalogRegions,
	)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler { return promhttp.Handler() }

// Collector implements geoscore.MetricsCollector on top of the Prometheus
// metrics above.
type Collector struct{}

// RecordLoad implements geoscore.MetricsCollector.
func (Collector) RecordLoad(regions int, duration time.Duration, err error) {
	LoadTotal.Inc()
	LoadDurationMs.Observe(float64(duration.Milliseconds()))
	if err != nil {
		LoadFailTotal.Inc()
		return
	}
	CatalogRegions.Set(float64(regions))
}

// RecordLocate implements geoscore.MetricsCollector.
func (Collector) RecordLocate(found bool, duration time.Duration, err error) {
	LocateTotal.Inc()
	LocateDurationMs.Observe(float64(duration) / float64(time.Millisecond))
	if err != nil {
		LocateNotReadyTotal.Inc()
		return
	}
	if !found {
		LocateMissTotal.Inc()
	}
}

// RecordBatch implements geoscore.MetricsCollector.
func (Collector) RecordBatch(count, failed int, _ time.Duration) {
	BatchPointsTotal.Add(float64(count))
	BatchFailedTotal.Add(float64(failed))
}
