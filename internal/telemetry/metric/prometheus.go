package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stockvoice"

// Request outcomes used as the "outcome" label.
const (
	OutcomeOK           = "ok"
	OutcomeTransport    = "transport"
	OutcomeTimeout      = "timeout"
	OutcomeUnauthorized = "unauthorized"
	OutcomeNotFound     = "not_found"
	OutcomeRejected     = "rejected"
)

// Registry holds the gateway metrics.
//
// A nil *Registry is valid and records nothing.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SessionsExpired prometheus.Counter
}

// NewRegistry creates a registry with all gateway metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Backend requests by method and outcome",
	}, []string{"method", "outcome"})

	r.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Backend request latency in seconds",
		Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method"})

	r.SessionsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "expired_total",
		Help:      "Sessions cleared because the backend answered 401",
	})

	r.registry.MustRegister(r.RequestsTotal, r.RequestDuration, r.SessionsExpired)
	return r
}

// ObserveRequest records one finished request.
func (r *Registry) ObserveRequest(method, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, outcome).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// SessionExpired records an automatic session clear.
func (r *Registry) SessionExpired() {
	if r == nil {
		return
	}
	r.SessionsExpired.Inc()
}

