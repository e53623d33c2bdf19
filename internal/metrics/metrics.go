package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics счётчики бота, регистрируются в собственном registry
type Metrics struct {
	registry *prometheus.Registry

	bookingSteps        *prometheus.CounterVec
	payments            *prometheus.CounterVec
	sessionsCreated     prometheus.Counter
	compensations       *prometheus.CounterVec
	apiTransportRetries *prometheus.CounterVec
	apiRateLimitRetries prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bookingSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutoring_bot",
			Name:      "booking_steps_total",
			Help:      "Transitions of the booking flow by target step.",
		}, []string{"step"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutoring_bot",
			Name:      "payments_total",
			Help:      "Payment results received from the payment processor.",
		}, []string{"result"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tutoring_bot",
			Name:      "sessions_created_total",
			Help:      "Sessions created and enrolled by the materializer.",
		}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutoring_bot",
			Name:      "compensations_total",
			Help:      "Rollbacks of partially materialized booking series.",
		}, []string{"result"}),
		apiTransportRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutoring_bot",
			Name:      "api_transport_retries_total",
			Help:      "Backend calls retried after a transport failure.",
		}, []string{"method"}),
		apiRateLimitRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tutoring_bot",
			Name:      "api_rate_limit_retries_total",
			Help:      "Backend calls retried after HTTP 429.",
		}),
	}

	m.registry.MustRegister(
		m.bookingSteps,
		m.payments,
		m.sessionsCreated,
		m.compensations,
		m.apiTransportRetries,
		m.apiRateLimitRetries,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler отдаёт метрики для /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) BookingStep(step string) {
	m.bookingSteps.WithLabelValues(step).Inc()
}

func (m *Metrics) Payment(succeeded bool) {
	result := "failed"
	if succeeded {
		result = "succeeded"
	}
	m.payments.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionCreated() {
	m.sessionsCreated.Inc()
}

func (m *Metrics) Compensation(complete bool) {
	result := "partial"
	if complete {
		result = "complete"
	}
	m.compensations.WithLabelValues(result).Inc()
}

// TransportRetry реализует apiclient.Observer
func (m *Metrics) TransportRetry(method, _ string) {
	m.apiTransportRetries.WithLabelValues(method).Inc()
}

// RateLimitRetry реализует apiclient.Observer
func (m *Metrics) RateLimitRetry(string) {
	m.apiRateLimitRetries.Inc()
}
