package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollectorWithRegistry("bpih_test", prometheus.NewRegistry())

	c.RecordAPIRequest("/api/forecast", "GET", "200")
	c.RecordAPIRequest("/api/forecast", "GET", "200")
	c.RecordAPIError("invalid_input", "/api/forecast")
	c.RecordSignalFetch("gold", "fallback")
	c.RecordAdvisorCall("mock", "ok", 10*time.Millisecond)
	c.UpdateDBConnectionPool(1, 2, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/api/forecast", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.APIErrorsTotal.WithLabelValues("invalid_input", "/api/forecast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SignalFetchTotal.WithLabelValues("gold", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AdvisorCalls.WithLabelValues("mock", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("total")))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollectorWithRegistry("bpih_test", prometheus.NewRegistry())
		NewCollectorWithRegistry("bpih_test", prometheus.NewRegistry())
	})
}

func TestCalculationTimer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWithRegistry("bpih_test", reg)

	d := c.CalculationTimer("scenarios").ObserveDuration()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.CalculationDuration))
}
