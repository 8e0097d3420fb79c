// Package metrics exposes Prometheus instruments for occupancy computations.
//
// Each Metrics owns its registry, so several instances (one per test, for
// example) never collide on registration.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "occupancy"

// Computation outcomes used as the "status" label.
const (
	StatusSuccess  = "success"
	StatusInvalid  = "invalid"
	StatusDiverged = "diverged"
	StatusError    = "error"
)

// Metrics groups the service instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// computations counts engine runs by outcome.
	computations *prometheus.CounterVec

	// duration tracks engine latency, cache hits excluded.
	duration prometheus.Histogram

	// iterations tracks power-iteration steps per successful run.
	iterations prometheus.Histogram

	// cacheLookups counts result cache lookups by outcome (hit|miss|error).
	cacheLookups *prometheus.CounterVec

	// cesaro counts runs that needed the averaging fallback.
	cesaro prometheus.Counter

	// multipleStationary counts runs over chains with several closed classes
	// and no start state.
	multipleStationary prometheus.Counter

	// runsPruned counts run-history rows removed by the janitor.
	runsPruned prometheus.Counter
}

// New registers all instruments on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		computations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Occupancy computations by outcome",
		}, []string{"status"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "computation_duration_seconds",
			Help:      "Engine computation latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		}),
		iterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "power_iterations",
			Help:      "Power-iteration steps per successful computation",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome",
		}, []string{"result"}),
		cesaro: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cesaro_fallbacks_total",
			Help:      "Computations that fell back to Cesaro averaging",
		}),
		multipleStationary: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "multiple_stationary_total",
			Help:      "Computations over chains with several closed classes and no start state",
		}),
		runsPruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_pruned_total",
			Help:      "Run-history rows removed by retention",
		}),
	}
}

// ObserveComputation records one engine run.
func (m *Metrics) ObserveComputation(status string, took time.Duration, iterations int, cesaro, multiple bool) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(status).Inc()
	m.duration.Observe(took.Seconds())
	if status != StatusSuccess {
		return
	}
	m.iterations.Observe(float64(iterations))
	if cesaro {
		m.cesaro.Inc()
	}
	if multiple {
		m.multipleStationary.Inc()
	}
}

// CacheLookup records a cache hit, miss or error.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RunsPruned adds n to the pruned-runs counter.
func (m *Metrics) RunsPruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.runsPruned.Add(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
