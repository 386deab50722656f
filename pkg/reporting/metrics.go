package reporting

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jihwankim/styleinfer/pkg/search"
)

// Metrics records one run's progress as Prometheus gauges and counters,
// implementing search.Hooks so it can be wired into search.Config.Hooks
// directly, typically alongside a ProgressReporter via search.MultiHooks.
// It is the home for the DOMAIN STACK's github.com/prometheus/client_golang
// dependency: a long-running inference service (or a batch job scraped by a
// sidecar) observes round counts, candidate throughput, and convergence
// without parsing the text progress stream.
type Metrics struct {
	registry *prometheus.Registry

	roundsTotal      prometheus.Counter
	candidatesTotal  prometheus.Counter
	cacheHitsTotal   prometheus.Counter
	acceptedTotal    prometheus.Counter
	bestPrimary      prometheus.Gauge
	bestSecondary    prometheus.Gauge
	currentRound     prometheus.Gauge
}

// NewMetrics builds a Metrics recorder registered against its own registry,
// so a caller can mount it at a dedicated /metrics path (or merge its
// collectors into a process-wide registry) without colliding with any other
// instrumentation in the same binary.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		roundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "styleinfer",
			Name:      "rounds_total",
			Help:      "Number of search rounds started.",
		}),
		candidatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "styleinfer",
			Name:      "candidates_evaluated_total",
			Help:      "Number of candidate styles evaluated, across all rounds.",
		}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "styleinfer",
			Name:      "cache_hits_total",
			Help:      "Number of candidate evaluations served from the dispatcher cache.",
		}),
		acceptedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "styleinfer",
			Name:      "candidates_accepted_total",
			Help:      "Number of candidate styles accepted onto the search heap.",
		}),
		bestPrimary: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "styleinfer",
			Name:      "best_distance_primary",
			Help:      "Primary component of the best attempt's distance seen so far.",
		}),
		bestSecondary: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "styleinfer",
			Name:      "best_distance_secondary",
			Help:      "Secondary component of the best attempt's distance seen so far.",
		}),
		currentRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "styleinfer",
			Name:      "current_round",
			Help:      "The round number currently in progress.",
		}),
	}

	reg.MustRegister(m.roundsTotal, m.candidatesTotal, m.cacheHitsTotal, m.acceptedTotal, m.bestPrimary, m.bestSecondary, m.currentRound)
	return m
}

// Registry exposes the underlying *prometheus.Registry so a caller can
// mount promhttp.HandlerFor(m.Registry(), ...) on its own mux.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RoundStarted implements search.Hooks.
func (m *Metrics) RoundStarted(round int) {
	m.roundsTotal.Inc()
	m.currentRound.Set(float64(round))
}

// RoundCompleted implements search.Hooks.
func (m *Metrics) RoundCompleted(round, candidates, accepted int, best search.Distance) {
	m.acceptedTotal.Add(float64(accepted))
	m.bestPrimary.Set(float64(best.Diff.Primary))
	m.bestSecondary.Set(float64(best.Diff.Secondary))
}

// CandidateEvaluated implements search.Hooks.
func (m *Metrics) CandidateEvaluated(cacheHit bool) {
	m.candidatesTotal.Inc()
	if cacheHit {
		m.cacheHitsTotal.Inc()
	}
}
