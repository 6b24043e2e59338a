// Package metrics holds the Prometheus collectors of the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qwanyx_auth"

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	CodesIssued        *prometheus.CounterVec
	DeliveryFailures   *prometheus.CounterVec
	Verifications      *prometheus.CounterVec
	UsersCreated       *prometheus.CounterVec
	ExpiredCodesPurged prometheus.Counter
	HTTPDuration       *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		CodesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codes_issued_total",
			Help:      "Auth codes persisted, by workspace and path (login or register).",
		}, []string{"workspace", "path"}),
		DeliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_delivery_failures_total",
			Help:      "Auth code emails that could not be delivered.",
		}, []string{"workspace"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_verifications_total",
			Help:      "Code verification attempts by result.",
		}, []string{"workspace", "result"}),
		UsersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "Users created, by workspace.",
		}, []string{"workspace"}),
		ExpiredCodesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_codes_purged_total",
			Help:      "Expired auth codes removed by housekeeping.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.CodesIssued,
		m.DeliveryFailures,
		m.Verifications,
		m.UsersCreated,
		m.ExpiredCodesPurged,
		m.HTTPDuration,
	)
	return m
}

func (m *Metrics) CodeIssued(workspace, path string) {
	if m == nil {
		return
	}
	m.CodesIssued.WithLabelValues(workspace, path).Inc()
}

func (m *Metrics) DeliveryFailed(workspace string) {
	if m == nil {
		return
	}
	m.DeliveryFailures.WithLabelValues(workspace).Inc()
}

// Verified records a verification outcome: "success", "invalid", "inactive"
// or "error".
func (m *Metrics) Verified(workspace, result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(workspace, result).Inc()
}

func (m *Metrics) UserCreated(workspace string) {
	if m == nil {
		return
	}
	m.UsersCreated.WithLabelValues(workspace).Inc()
}

func (m *Metrics) CodesPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ExpiredCodesPurged.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware observes request latency labelled by the matched route pattern,
// so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.HTTPDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
