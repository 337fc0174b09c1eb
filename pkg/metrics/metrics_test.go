package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("wateralloc")
	m.ObserveEstimate(true)
	m.ObserveEstimate(false)
	m.ObserveEstimate(false)
	m.ObserveOptimize("fallback", 20*time.Millisecond)
	m.ObserveSearch(errors.New("boom"))
	m.ObserveEvent("published")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.estimates.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.estimates.WithLabelValues("no_result")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.optimizeCalls.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchRuns.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("published")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEstimate(true)
		m.ObserveOptimize("optimized", time.Second)
		m.ObserveSearch(nil)
		m.ObserveEvent("duplicate")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New("wateralloc")
	m.ObserveOptimize("optimized", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `wateralloc_optimize_requests_total{provenance="optimized"} 1`)
}
