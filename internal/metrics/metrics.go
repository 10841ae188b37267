// Package metrics exposes Prometheus counters and histograms for catalog
// calls and finished resolutions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source call outcomes.
const (
	OutcomeHit       = "hit"
	OutcomeMiss      = "miss"
	OutcomeError     = "error"
	OutcomeThrottled = "throttled" // gave up waiting on the rate limiter
)

// Metrics provides observability for source calls and resolutions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Source call outcomes by catalog
	SourceRequests *prometheus.CounterVec

	// Source call latency by catalog
	SourceLatency *prometheus.HistogramVec

	// Finished resolutions by entry point and confidence
	Resolutions *prometheus.CounterVec

	// End-to-end resolution latency
	ResolveLatency prometheus.Histogram
}

// New registers the bibresolve metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SourceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bibresolve_source_requests_total",
			Help: "Total catalog calls by source and outcome",
		}, []string{"source", "outcome"}), // outcome: "hit", "miss", "error", "throttled"

		SourceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bibresolve_source_duration_seconds",
			Help:    "Duration of catalog calls by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),

		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bibresolve_resolutions_total",
			Help: "Total resolutions by entry point and confidence",
		}, []string{"mode", "confidence"}), // confidence: "HIGH", "MEDIUM", "LOW", "EMPTY"

		ResolveLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bibresolve_resolve_duration_seconds",
			Help:    "Duration of full resolutions including every catalog call",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// ObserveSource records one catalog call.
func (m *Metrics) ObserveSource(source, outcome string, d time.Duration) {
	if m != nil {
		m.SourceRequests.WithLabelValues(source, outcome).Inc()
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// ObserveResolution records a finished resolution.
func (m *Metrics) ObserveResolution(mode, confidence string, d time.Duration) {
	if m != nil {
		m.Resolutions.WithLabelValues(mode, confidence).Inc()
		m.ResolveLatency.Observe(d.Seconds())
	}
}
