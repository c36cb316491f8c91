package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the workflow collectors. A nil *Metrics records nothing.
type Metrics struct {
	transitions         *prometheus.CounterVec
	transitionFailures  *prometheus.CounterVec
	bulkItems           *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	notificationQueue   prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg with the given name prefix.
func New(reg prometheus.Registerer, prefix string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_transitions_total",
				Help: "Total number of applied status transitions",
			},
			[]string{"entity", "from", "to"},
		),
		transitionFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_transition_failures_total",
				Help: "Total number of rejected workflow operations",
			},
			[]string{"entity", "reason"},
		),
		bulkItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_bulk_items_total",
				Help: "Total number of bulk action items by outcome",
			},
			[]string{"entity", "action", "outcome"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_notifications_total",
				Help: "Total number of notifications by outcome",
			},
			[]string{"outcome"},
		),
		notificationQueue: f.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_notification_queue_depth",
				Help: "Number of notifications waiting for dispatch",
			},
		),
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (m *Metrics) RecordTransition(entity, from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, from, to).Inc()
}

func (m *Metrics) RecordFailure(entity, reason string) {
	if m == nil {
		return
	}
	m.transitionFailures.WithLabelValues(entity, reason).Inc()
}

func (m *Metrics) RecordBulkItem(entity, action, outcome string) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(entity, action, outcome).Inc()
}

func (m *Metrics) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.notificationQueue.Set(float64(n))
}

// Middleware records request totals and latency labelled by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{r.Method, path, strconv.Itoa(status)}
		m.httpRequestsTotal.WithLabelValues(labels...).Inc()
		m.httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
