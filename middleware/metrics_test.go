package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/history/", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/history/", nil))
	m.ObservePrediction("rice")
	m.ObservePrediction("rice")

	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/history/", "200")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("rice")), 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agrisense_crop_predictions_total")
}

func TestMetrics_NilSafeObserve(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObservePrediction("rice") })
}
