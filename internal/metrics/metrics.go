package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeApproved = "approved"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
)

// EntitlementMetrics counts gate decisions and committed usage.
// A nil *EntitlementMetrics is valid and records nothing.
type EntitlementMetrics struct {
	decisions      *prometheus.CounterVec
	committedUnits *prometheus.CounterVec
	commitFailures *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewEntitlementMetrics registers the collectors on registerer. A nil
// registerer means the default one.
func NewEntitlementMetrics(registerer prometheus.Registerer) *EntitlementMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_decisions_total",
		Help: "Entitlement gate decisions by feature, tier and outcome.",
	}, []string{"feature", "tier", "outcome"})
	committedUnits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_committed_units_total",
		Help: "Units recorded in the usage ledger.",
	}, []string{"feature"})
	commitFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_commit_failures_total",
		Help: "Usage commits that failed after the work was performed.",
	}, []string{"feature"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route", "status"})

	registerer.MustRegister(decisions, committedUnits, commitFailures, httpDuration)

	return &EntitlementMetrics{
		decisions:      decisions,
		committedUnits: committedUnits,
		commitFailures: commitFailures,
		httpDuration:   httpDuration,
	}
}

// ObserveDecision records one gate outcome.
func (m *EntitlementMetrics) ObserveDecision(feature, tier, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(feature, normalizeLabel(tier), outcome).Inc()
}

// AddCommitted records units written to the ledger.
func (m *EntitlementMetrics) AddCommitted(feature string, units int64) {
	if m == nil || units <= 0 {
		return
	}
	m.committedUnits.WithLabelValues(feature).Add(float64(units))
}

// IncCommitFailure records a ledger write that did not land.
func (m *EntitlementMetrics) IncCommitFailure(feature string) {
	if m == nil {
		return
	}
	m.commitFailures.WithLabelValues(feature).Inc()
}

// ObserveHTTP records the latency of one request.
func (m *EntitlementMetrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, normalizeLabel(route), status).Observe(seconds)
}

func normalizeLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
