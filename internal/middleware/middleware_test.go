package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()

	r := gin.New()
	r.Use(NewRequestLogger().Handler())
	promMw := NewPrometheusMiddleware("test", registry)
	r.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(r, registry)

	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "test error"})
	})
	return r, registry
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestPrometheusMiddleware_BasicMetrics(t *testing.T) {
	r, registry := newRouter(t)

	assert.Equal(t, http.StatusOK, get(r, "/ok").Code)
	assert.Equal(t, http.StatusInternalServerError, get(r, "/fail").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/missing").Code)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var durationFound, errorsFound bool
	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "test_http_request_duration_seconds":
			durationFound = true
			assert.Equal(t, "Длительность HTTP-запросов.", mf.GetHelp())
			assert.Len(t, mf.GetMetric(), 3)
		case "test_http_request_errors_total":
			errorsFound = true
			// /fail и ненайденный маршрут
			assert.Len(t, mf.GetMetric(), 2)
		}
	}
	assert.True(t, durationFound, "метрика длительности не найдена")
	assert.True(t, errorsFound, "метрика ошибок не найдена")
	assert.Equal(t, 0.0, testutil.ToFloat64(findGauge(t, registry)))
}

func findGauge(t *testing.T, registry *prometheus.Registry) prometheus.Collector {
	t.Helper()
	// Повторная регистрация с теми же опциями возвращает уже зарегистрированный коллектор
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "test",
		Name:      "http_requests_inflight",
		Help:      "Текущее количество обрабатываемых HTTP-запросов.",
	})
	err := registry.Register(g)
	var are prometheus.AlreadyRegisteredError
	require.ErrorAs(t, err, &are)
	return are.ExistingCollector
}

func TestPrometheusMiddleware_MetricsEndpoint(t *testing.T) {
	r, _ := newRouter(t)
	get(r, "/ok")

	w := get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_http_request_duration_seconds_count{method="GET",path="/ok",status="200"} 1`)
}

func TestRequestLogger_TraceHeader(t *testing.T) {
	r, _ := newRouter(t)

	first := get(r, "/ok").Header().Get("X-Trace-Id")
	second := get(r, "/ok").Header().Get("X-Trace-Id")
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
