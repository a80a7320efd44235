package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the indexing and query pipeline.
// All collectors are registered on the registerer the host passes in, so
// the engine never opens a scrape endpoint itself.
type Metrics struct {
	ReferencesIndexed prometheus.Counter
	ReferencesExisted prometheus.Counter
	ReferencesFailed  prometheus.Counter
	QueryDuration     prometheus.Histogram
}

// NewMetrics creates collectors registered on reg.
// A nil registerer yields unregistered (but usable) collectors, which keeps
// tests and metrics-less hosts simple.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReferencesIndexed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "coderef",
			Name:      "references_indexed_total",
			Help:      "Number of references newly added to the index.",
		}),
		ReferencesExisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "coderef",
			Name:      "references_duplicate_total",
			Help:      "Number of ingestions that hit an already-indexed reference.",
		}),
		ReferencesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "coderef",
			Name:      "references_failed_total",
			Help:      "Number of references that failed to index.",
		}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coderef",
			Name:      "query_duration_seconds",
			Help:      "Latency of query engine calls.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
	}
}

// ObserveQuery records one query latency observation.
func (m *Metrics) ObserveQuery(d time.Duration) {
	if m == nil {
		return
	}
	m.QueryDuration.Observe(d.Seconds())
}
