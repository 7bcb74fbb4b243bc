package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/backoffice/internal/filterview"
)

var _ filterview.Recorder = (*ViewMetrics)(nil)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/stats")
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `backoffice_http_requests_total{code="418",route="/stats"} 1`)
	assert.Contains(t, body, `backoffice_http_request_duration_seconds_bucket{route="/stats"`)
}

func TestViewMetricsCountOutcomes(t *testing.T) {
	metrics := NewMetrics()
	views := metrics.Views()

	views.LoadDispatched("stats")
	views.LoadDispatched("stats")
	views.LoadSuperseded("stats")
	views.LoadRetried("stats")
	views.LoadCommitted("stats", 30*time.Millisecond)
	views.LoadFailed("logger")

	assert.Equal(t, 2.0, testutil.ToFloat64(views.loads.WithLabelValues("stats", OutcomeDispatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(views.loads.WithLabelValues("stats", OutcomeSuperseded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(views.loads.WithLabelValues("stats", OutcomeCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(views.loads.WithLabelValues("logger", OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(views.retries.WithLabelValues("stats")))
	assert.Contains(t, scrape(t, metrics), `backoffice_view_load_duration_seconds_count{view="stats"} 1`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.Nil(t, m.Views())
	assert.NotPanics(t, func() {
		m.Views().LoadDispatched("stats")
		m.Views().LoadCommitted("stats", time.Second)
	})

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotPanics(t, func() { m.TrackSessions("stats", func() int { return 1 }) })
}

func TestTrackSessionsExportsGauge(t *testing.T) {
	metrics := NewMetrics()
	open := 3
	metrics.TrackSessions("logger", func() int { return open })

	assert.Contains(t, scrape(t, metrics), `backoffice_view_sessions{view="logger"} 3`)
	open = 1
	assert.Contains(t, scrape(t, metrics), `backoffice_view_sessions{view="logger"} 1`)
}
