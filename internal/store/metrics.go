package store

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the query engine's cache behavior as Prometheus
// counters, labeled by query name, so the "cheap under the editing
// workload" claim is something an operator can observe rather than only
// something a test asserts.
type Metrics struct {
	hits         *prometheus.CounterVec
	misses       *prometheus.CounterVec
	invalidation *prometheus.CounterVec
}

// NewMetrics registers the engine's counters against reg. A nil reg
// registers against prometheus.DefaultRegisterer. Registration failures
// (e.g. a second Database in the same process) are swallowed: metrics are
// an observability nicety, never a reason to fail startup.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Number of query cache hits, by query name.",
		}, []string{"query"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Number of query cache misses (recomputations), by query name.",
		}, []string{"query"}),
		invalidation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_invalidations_total",
			Help: "Number of times a recomputed query value differed from its previous cached value, by query name.",
		}, []string{"query"}),
	}
	for _, c := range []prometheus.Collector{m.hits, m.misses, m.invalidation} {
		if err := reg.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				_ = are
				continue
			}
		}
	}
	return m
}

func (m *Metrics) hit(query string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(query).Inc()
}

func (m *Metrics) miss(query string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(query).Inc()
}

func (m *Metrics) invalidate(query string) {
	if m == nil {
		return
	}
	m.invalidation.WithLabelValues(query).Inc()
}
