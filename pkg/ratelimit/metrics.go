package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for rate limit checks and the
// idempotency cache. All record methods are nil-safe so callers can pass a
// nil *Metrics to disable instrumentation (tests do this).
type Metrics struct {
	checksTotal      *prometheus.CounterVec
	violationsTotal  *prometheus.CounterVec
	storeErrorsTotal *prometheus.CounterVec
	checkDuration    *prometheus.HistogramVec

	idempotencyHits   prometheus.Counter
	idempotencyMisses prometheus.Counter
}

// NewMetrics registers the instruments with the given registerer. Passing
// prometheus.DefaultRegisterer wires them to the default /metrics endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "floodgate_ratelimit_checks_total",
			Help: "Total number of rate limit checks by scope and result.",
		}, []string{"scope", "result"}),

		violationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "floodgate_ratelimit_violations_total",
			Help: "Total number of rate limit violations by scope.",
		}, []string{"scope"}),

		storeErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "floodgate_store_errors_total",
			Help: "Total number of counter store failures observed during checks.",
		}, []string{"scope"}),

		checkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "floodgate_ratelimit_check_duration_seconds",
			Help:    "Duration of rate limit checks including the store round trip.",
			Buckets: prometheus.DefBuckets,
		}, []string{"scope"}),

		idempotencyHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "floodgate_idempotency_hits_total",
			Help: "Total number of idempotency cache hits.",
		}),

		idempotencyMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "floodgate_idempotency_misses_total",
			Help: "Total number of idempotency cache misses.",
		}),
	}
}

// ObserveCheck records one check outcome and its duration.
func (m *Metrics) ObserveCheck(scope string, allowed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "rejected"
	}
	m.checksTotal.WithLabelValues(scope, result).Inc()
	m.checkDuration.WithLabelValues(scope).Observe(elapsed.Seconds())
}

// ObserveViolation records a limit violation for a scope.
func (m *Metrics) ObserveViolation(scope string) {
	if m == nil {
		return
	}
	m.violationsTotal.WithLabelValues(scope).Inc()
}

// ObserveStoreError records a store failure seen during a check.
func (m *Metrics) ObserveStoreError(scope string) {
	if m == nil {
		return
	}
	m.storeErrorsTotal.WithLabelValues(scope).Inc()
}

// ObserveIdempotencyHit records an idempotency cache hit.
func (m *Metrics) ObserveIdempotencyHit() {
	if m == nil {
		return
	}
	m.idempotencyHits.Inc()
}

// ObserveIdempotencyMiss records an idempotency cache miss.
func (m *Metrics) ObserveIdempotencyMiss() {
	if m == nil {
		return
	}
	m.idempotencyMisses.Inc()
}
