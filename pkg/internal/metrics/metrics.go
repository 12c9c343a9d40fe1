package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the write-only metrics collaborator. All methods are safe on a
// nil receiver so a run never depends on metrics being wired up.
type Metrics struct {
	artifactsDeleted *prometheus.CounterVec
	bytesFreed       *prometheus.CounterVec
	itemFailures     *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	runItems         *prometheus.CounterVec
	runBytes         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return newMetricsWith(prometheus.DefaultRegisterer)
}

func newMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		artifactsDeleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "janitor_artifacts_deleted_total",
				Help: "Total number of content artifacts deleted, by subscription plan",
			},
			[]string{"plan"},
		),

		bytesFreed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "janitor_bytes_freed_total",
				Help: "Total bytes of object storage freed, by subscription plan",
			},
			[]string{"plan"},
		),

		itemFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "janitor_item_failures_total",
				Help: "Total per-item deletion failures, by run kind",
			},
			[]string{"kind"},
		),

		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "janitor_run_duration_seconds",
				Help:    "Duration of cleanup runs",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"kind"},
		),

		runItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "janitor_run_items_total",
				Help: "Total items processed by cleanup runs, by run kind",
			},
			[]string{"kind"},
		),

		runBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "janitor_run_bytes_freed_total",
				Help: "Total bytes of object storage freed by cleanup runs, by run kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) ObserveArtifactDeleted(plan string, bytes int64) {
	if m == nil {
		return
	}
	m.artifactsDeleted.WithLabelValues(plan).Inc()
	m.bytesFreed.WithLabelValues(plan).Add(float64(bytes))
}

func (m *Metrics) ObserveItemFailure(kind string) {
	if m == nil {
		return
	}
	m.itemFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRun(kind string, elapsed time.Duration, items int64, bytes int64) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	m.runItems.WithLabelValues(kind).Add(float64(items))
	m.runBytes.WithLabelValues(kind).Add(float64(bytes))
}
