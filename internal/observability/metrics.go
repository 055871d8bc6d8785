package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// radar feed.
type Metrics struct {
	ChunksConsumed prometheus.Counter
	ScansPublished prometheus.Counter
	RadialsDecoded prometheus.Counter
	DecodeErrors   prometheus.Counter
	FeedRunning    prometheus.Gauge

	// Decode and assembly timing.
	ScanAssemblyDuration prometheus.Histogram

	// Chunk source metrics.
	SourceRequests    *prometheus.CounterVec // labels: operation={list,get}, outcome={success,error}
	SourceCache       *prometheus.CounterVec // labels: result={hit,miss}
	SourceAPIDuration *prometheus.HistogramVec // labels: operation={list,get}
	PollInterval      prometheus.Gauge
}

// NewMetrics creates and registers all feed metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ChunksConsumed,
		m.ScansPublished,
		m.RadialsDecoded,
		m.DecodeErrors,
		m.FeedRunning,
		m.ScanAssemblyDuration,
		m.SourceRequests,
		m.SourceCache,
		m.SourceAPIDuration,
		m.PollInterval,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ChunksConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexrad_etl",
			Name:      "chunks_consumed_total",
			Help:      "Total volume chunks fetched from the source.",
		}),
		ScansPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexrad_etl",
			Name:      "scans_published_total",
			Help:      "Total completed scan summaries published downstream.",
		}),
		RadialsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexrad_etl",
			Name:      "radials_decoded_total",
			Help:      "Total radials decoded into published scans.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexrad_etl",
			Name:      "decode_errors_total",
			Help:      "Total record and message decode faults.",
		}),
		FeedRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nexrad_etl",
			Name:      "feed_running",
			Help:      "1 when the feed is active, 0 when shut down.",
		}),
		ScanAssemblyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nexrad_etl",
			Name:      "scan_assembly_duration_seconds",
			Help:      "Duration from final chunk to published summary.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexrad_etl",
			Name:      "source_requests_total",
			Help:      "Chunk source requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		SourceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexrad_etl",
			Name:      "source_cache_total",
			Help:      "Downloaded chunk cache lookups by result.",
		}, []string{"result"}),
		SourceAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nexrad_etl",
			Name:      "source_api_duration_seconds",
			Help:      "Chunk source request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		PollInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nexrad_etl",
			Name:      "poll_interval_seconds",
			Help:      "Current estimated wait until the next chunk upload.",
		}),
	}
}
