package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the lifecycle engine.
type Metrics struct {
	ApplicationsSubmitted  prometheus.Counter
	ApplicationTransitions *prometheus.CounterVec
	VerificationDecisions  *prometheus.CounterVec
	StandingChanges        *prometheus.CounterVec
	RequestLatency         *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ApplicationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "homeward_applications_submitted_total",
			Help: "Total number of adoption applications submitted",
		}),
		ApplicationTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeward_application_transitions_total",
			Help: "Total number of adoption application status transitions",
		}, []string{"new_status"}),
		VerificationDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeward_verification_decisions_total",
			Help: "Total number of organization verification decisions",
		}, []string{"new_status"}),
		StandingChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeward_adopter_standing_changes_total",
			Help: "Total number of adopter standing changes",
		}, []string{"action"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "homeward_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// IncApplicationsSubmitted increments the submission counter by 1.
func (m *Metrics) IncApplicationsSubmitted() {
	m.ApplicationsSubmitted.Inc()
}

// IncApplicationTransition records a transition into newStatus.
func (m *Metrics) IncApplicationTransition(newStatus string) {
	m.ApplicationTransitions.WithLabelValues(newStatus).Inc()
}

// IncVerificationDecision records a verification decision into newStatus.
func (m *Metrics) IncVerificationDecision(newStatus string) {
	m.VerificationDecisions.WithLabelValues(newStatus).Inc()
}

// IncStandingChange records a suspend or reactivate action.
func (m *Metrics) IncStandingChange(action string) {
	m.StandingChanges.WithLabelValues(action).Inc()
}
