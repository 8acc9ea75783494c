package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for approach scans.
type Metrics struct {
	ScansTotal       prometheus.Counter
	ScanErrors       prometheus.Counter
	ScanDuration     prometheus.Histogram
	ScannerRunning   prometheus.Gauge
	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter

	// Detector metrics.
	ObjectsRequested prometheus.Counter
	ObjectsRanked    prometheus.Gauge
	HazardousRanked  prometheus.Gauge

	// NeoWs client metrics.
	FetchRequests    *prometheus.CounterVec   // labels: endpoint={feed,neo}, outcome={success,error}
	FetchCache       *prometheus.CounterVec   // labels: result={hit,miss}
	FetchAPIDuration *prometheus.HistogramVec // labels: endpoint={feed,neo}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_watch",
			Name:      "scans_total",
			Help:      "Total completed approach scans.",
		}),
		ScanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_watch",
			Name:      "scan_errors_total",
			Help:      "Total scans that failed before ranking, e.g. on feed errors.",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neo_watch",
			Name:      "scan_duration_seconds",
			Help:      "Duration of a complete feed-detect-report cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ScannerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neo_watch",
			Name:      "scanner_running",
			Help:      "1 when the periodic scanner is active, 0 when shut down.",
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_watch",
			Name:      "reports_published_total",
			Help:      "Total ranked reports written to the report sink.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_watch",
			Name:      "report_publish_errors_total",
			Help:      "Total reports that could not be written to the report sink.",
		}),
		ObjectsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_watch",
			Name:      "objects_requested_total",
			Help:      "Total object identifiers dispatched to the detector.",
		}),
		ObjectsRanked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neo_watch",
			Name:      "objects_ranked",
			Help:      "Number of objects in the most recent ranking.",
		}),
		HazardousRanked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neo_watch",
			Name:      "hazardous_objects_ranked",
			Help:      "Number of potentially hazardous objects in the most recent ranking.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_watch",
			Name:      "neows_requests_total",
			Help:      "NeoWs API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_watch",
			Name:      "neows_cache_total",
			Help:      "Object lookup cache results.",
		}, []string{"result"}),
		FetchAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "neo_watch",
			Name:      "neows_api_duration_seconds",
			Help:      "NeoWs API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
	}

	prometheus.MustRegister(
		m.ScansTotal,
		m.ScanErrors,
		m.ScanDuration,
		m.ScannerRunning,
		m.ReportsPublished,
		m.PublishErrors,
		m.ObjectsRequested,
		m.ObjectsRanked,
		m.HazardousRanked,
		m.FetchRequests,
		m.FetchCache,
		m.FetchAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ScansTotal:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_watch", Name: "scans_total"}),
		ScanErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_watch", Name: "scan_errors_total"}),
		ScanDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "neo_watch", Name: "scan_duration_seconds"}),
		ScannerRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "neo_watch", Name: "scanner_running"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_watch", Name: "reports_published_total"}),
		PublishErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_watch", Name: "report_publish_errors_total"}),
		ObjectsRequested: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_watch", Name: "objects_requested_total"}),
		ObjectsRanked:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "neo_watch", Name: "objects_ranked"}),
		HazardousRanked:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "neo_watch", Name: "hazardous_objects_ranked"}),
		FetchRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "neo_watch", Name: "neows_requests_total"}, []string{"endpoint", "outcome"}),
		FetchCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "neo_watch", Name: "neows_cache_total"}, []string{"result"}),
		FetchAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "neo_watch", Name: "neows_api_duration_seconds"}, []string{"endpoint"}),
	}
}
