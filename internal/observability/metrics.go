package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seismic_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for ingest and retrieval.
type Metrics struct {
	// Feed metrics.
	FeedRequests *prometheus.CounterVec // labels: outcome={success,error}
	FeedDuration prometheus.Histogram

	// Ingest metrics.
	RecordsIngested  prometheus.Counter
	IngestFailures   *prometheus.CounterVec // labels: kind={fetch,write,other}
	WriteFailedKeys  prometheus.Counter
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	SchedulerRunning prometheus.Gauge

	// Retrieval metrics.
	ListRequests *prometheus.CounterVec // labels: outcome={success,error}
	ScanDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedRequests,
		m.FeedDuration,
		m.RecordsIngested,
		m.IngestFailures,
		m.WriteFailedKeys,
		m.RecordsPublished,
		m.PublishErrors,
		m.SchedulerRunning,
		m.ListRequests,
		m.ScanDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Feed queries by outcome.",
		}, []string{"outcome"}),
		FeedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_request_duration_seconds",
			Help:      "Duration of feed queries in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		RecordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Total records upserted into the store.",
		}),
		IngestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Failed ingest runs by error kind.",
		}, []string{"kind"}),
		WriteFailedKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_failed_keys_total",
			Help:      "Total record keys the store rejected.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Total records announced on the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total failed publish attempts.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 when periodic ingest is active, 0 otherwise.",
		}),
		ListRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_requests_total",
			Help:      "List requests by outcome.",
		}, []string{"outcome"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of bounded store scans in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}
