package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/qwanyx/qwanyx/internal/auth/metrics"
)

func TestCounters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.CodeIssued("acme", "login")
	m.CodeIssued("acme", "login")
	m.DeliveryFailed("acme")
	m.Verified("acme", "invalid")
	m.UserCreated("acme")
	m.CodesPurged(3)
	m.CodesPurged(0)

	require.Equal(t, 2.0, testutil.ToFloat64(m.CodesIssued.WithLabelValues("acme", "login")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailures.WithLabelValues("acme")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("acme", "invalid")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.UsersCreated.WithLabelValues("acme")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.ExpiredCodesPurged))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.CodeIssued("acme", "login")
	m.Verified("acme", "success")

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func TestHandlerAndMiddleware(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	mux := http.NewServeMux()
	mux.Handle("GET /v1/users/{id}", m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	mux.Handle("GET /metrics", m.Handler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users/abc", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `qwanyx_auth_http_request_duration_seconds_count{method="GET",route="GET /v1/users/{id}",status="204"} 1`)
}
