package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.BookingStep("payment")
	m.BookingStep("payment")
	m.Payment(true)
	m.Payment(false)
	m.SessionCreated()
	m.Compensation(true)
	m.TransportRetry("GET", "/api/courses")
	m.RateLimitRetry("/api/courses")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingSteps.WithLabelValues("payment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensations.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiTransportRetries.WithLabelValues("GET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRateLimitRetries))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SessionCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tutoring_bot_sessions_created_total 1")
}
