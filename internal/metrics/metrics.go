// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openwave_upstream_requests_total",
			Help: "Upstream adapter calls by outcome",
		},
		[]string{"adapter", "outcome"}, // ok, empty, error, timeout, unavailable
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openwave_upstream_duration_seconds",
			Help:    "Upstream adapter call latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"adapter"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "openwave_breaker_state",
			Help: "Circuit breaker state per adapter (0 closed, 1 half-open, 2 open)",
		},
		[]string{"adapter"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openwave_cache_lookups_total",
			Help: "Cache lookups by tier and result",
		},
		[]string{"tier", "result"}, // tier: memory, external, chart; result: hit, miss, error
	)

	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openwave_resolutions_total",
			Help: "Completed resolutions by kind and source",
		},
		[]string{"kind", "source"},
	)

	TastePlays = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openwave_taste_plays_total",
			Help: "Logged plays by outcome",
		},
		[]string{"outcome"}, // cold_start, reinforced, store_error
	)

	ChartSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openwave_chart_syncs_total",
			Help: "Chart sync runs by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordUpstream records one adapter call.
func RecordUpstream(adapter, outcome string, duration time.Duration) {
	UpstreamRequests.WithLabelValues(adapter, outcome).Inc()
	UpstreamDuration.WithLabelValues(adapter).Observe(duration.Seconds())
}

// RecordCacheLookup records one cache tier lookup.
func RecordCacheLookup(tier, result string) {
	CacheLookups.WithLabelValues(tier, result).Inc()
}

// RecordResolution records where a discovery result came from.
func RecordResolution(kind, source string) {
	Resolutions.WithLabelValues(kind, source).Inc()
}
