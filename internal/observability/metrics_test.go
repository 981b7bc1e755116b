package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	m := NewMetrics()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	rec := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusTeapot, rec.Code)

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	m.Handler().ServeHTTP(metricsRec, metricsReq)
	body := metricsRec.Body.String()
	assert.Contains(t, body, "rodaauth_http_requests_total")
	assert.Contains(t, body, `code="418"`)
}

func TestDomainCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveLogin("success")
	m.ObserveLogin("failure")
	m.ObserveTokenIssued("access")
	m.ObserveTokenIssued("refresh")
	m.ObserveSweep(3)
	m.ObserveSweep(0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `rodaauth_logins_total{outcome="success"} 1`)
	assert.Contains(t, body, `rodaauth_logins_total{outcome="failure"} 1`)
	assert.Contains(t, body, `rodaauth_tokens_issued_total{kind="access"} 1`)
	assert.Contains(t, body, "rodaauth_tokens_swept_total 3")
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	m.ObserveLogin("success")
	m.ObserveSweep(1)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotPanics(t, func() {
		m.Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
