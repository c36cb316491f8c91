package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransition(t *testing.T) {
	m := New(prometheus.NewRegistry(), "test")

	m.RecordTransition("rfq", "pending", "seen")
	m.RecordTransition("rfq", "pending", "seen")
	m.RecordFailure("quote", "not authorized")
	m.RecordBulkItem("rfq", "delete", "failed")
	m.RecordNotification("delivered")
	m.SetQueueDepth(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("rfq", "pending", "seen")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitionFailures.WithLabelValues("quote", "not authorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bulkItems.WithLabelValues("rfq", "delete", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("delivered")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.notificationQueue))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTransition("rfq", "a", "b")
		m.RecordFailure("rfq", "x")
		m.RecordBulkItem("rfq", "delete", "ok")
		m.RecordNotification("failed")
		m.SetQueueDepth(1)
	})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(h))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry(), "test")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/v1/rfqs/{rfqId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rfqs/17", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/v1/rfqs/{rfqId}", "418")))
}
