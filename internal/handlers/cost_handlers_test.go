package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"bpih-platform/internal/advisor"
	"bpih-platform/internal/dataset"
	"bpih-platform/internal/services"
	"bpih-platform/pkg/logging"
	"bpih-platform/pkg/metrics"
)

type stubHealth struct {
	err error
}

func (s stubHealth) HealthCheck(context.Context) error {
	return s.err
}

type testEnv struct {
	router  *mux.Router
	metrics *metrics.Collector
}

func newTestEnv(t *testing.T, health HealthChecker, limiter *rate.Limiter) *testEnv {
	t.Helper()
	logger := logging.NewNopLogger()
	collector := metrics.NewCollectorWithRegistry("bpih_test", prometheus.NewRegistry())

	forecasts, err := services.NewForecastService(dataset.Default(), nil, services.DefaultForecastOptions(), logger, collector)
	require.NoError(t, err)
	growth, err := forecasts.Growth(context.Background())
	require.NoError(t, err)
	advisors := services.NewAdvisorService(forecasts, nil, advisor.NewMockAdvisor(growth), logger, collector)

	router := mux.NewRouter()
	router.Use(RequestID, Instrument(logger, collector))
	NewCostHandler(forecasts, advisors, health, limiter, logger, collector).RegisterRoutes(router)

	return &testEnv{router: router, metrics: collector}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestGetEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"costs", "/api/costs", http.StatusOK},
		{"one year", "/api/costs/2025", http.StatusOK},
		{"missing year", "/api/costs/2021", http.StatusNotFound},
		{"growth", "/api/growth", http.StatusOK},
		{"forecast", "/api/forecast?years=3", http.StatusOK},
		{"forecast bad years", "/api/forecast?years=abc", http.StatusBadRequest},
		{"forecast beyond max", "/api/forecast?years=99", http.StatusBadRequest},
		{"forecast negative gold", "/api/forecast?gold=-1", http.StatusBadRequest},
		{"monthly", "/api/forecast/monthly?months=6", http.StatusOK},
		{"ensemble", "/api/forecast/ensemble?years=2", http.StatusOK},
		{"regional", "/api/regional/2025", http.StatusOK},
		{"regional missing year", "/api/regional/2021", http.StatusNotFound},
		{"breakdown", "/api/breakdown?year=2026", http.StatusOK},
		{"breakdown missing year", "/api/breakdown?year=2021", http.StatusNotFound},
		{"risks", "/api/risks", http.StatusOK},
		{"summary", "/api/summary", http.StatusOK},
		{"context", "/api/context?q=prediksi", http.StatusOK},
		{"health", "/health", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestGetCosts(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/costs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CostsResponse
	decode(t, rec, &resp)
	assert.Equal(t, 9, resp.Total)
	assert.Equal(t, 2016, resp.Data[0].Year)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.APIRequestsTotal.WithLabelValues("/api/costs", "GET", "200")))
}

func TestGetForecast(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/forecast?years=3&gold=2000&rate=15000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp services.ScenarioForecast
	decode(t, rec, &resp)
	assert.Equal(t, 2025, resp.BaseYear)
	assert.Len(t, resp.Scenarios, 3)
	assert.Len(t, resp.SignalAdjusted, 3)
	assert.Equal(t, "request", resp.SignalSource)
}

func TestErrorResponse_CarriesRequestID(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/regional/2021", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	var resp ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, id, resp.RequestID)
	assert.Contains(t, resp.Message, "2021")

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.APIErrorsTotal.WithLabelValues("not_found", "/api/regional/{year:[0-9]+}")))
}

func TestRequestID_ReusesValidHeader(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestAsk(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodPost, "/api/ask", `{"question":"Berapa prediksi biaya haji 2026?","format":"html"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp services.Answer
	decode(t, rec, &resp)
	assert.Equal(t, "mock", resp.Provider)
	assert.Equal(t, services.FormatHTML, resp.Format)
	assert.Contains(t, resp.Answer, "<strong>")
	assert.Contains(t, resp.Sections, "prediction")

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"question":`},
		{"empty question", `{"question":"   "}`},
		{"unknown format", `{"question":"biaya","format":"pdf"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/ask", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAsk_RateLimited(t *testing.T) {
	env := newTestEnv(t, nil, rate.NewLimiter(rate.Every(time.Hour), 1))

	first := env.do(http.MethodPost, "/api/ask", `{"question":"biaya haji"}`)
	assert.Equal(t, http.StatusOK, first.Code)

	second := env.do(http.MethodPost, "/api/ask", `{"question":"biaya haji"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestHealthCheck_Degraded(t *testing.T) {
	env := newTestEnv(t, stubHealth{err: errors.New("connection refused")}, nil)

	rec := env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp map[string]interface{}
	decode(t, rec, &resp)
	assert.Equal(t, "degraded", resp["status"])
}

func TestOpenAPISpec(t *testing.T) {
	rec := httptest.NewRecorder()
	OpenAPISpec(rec, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var spec map[string]interface{}
	decode(t, rec, &spec)
	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/forecast")
	assert.Contains(t, paths, "/api/ask")
}

func TestSwaggerUI(t *testing.T) {
	router := mux.NewRouter()
	RegisterDocs(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DocsPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	page := rec.Body.String()
	assert.Contains(t, page, "<title>BPIH Forecast API Documentation</title>")
	assert.Contains(t, page, `url: "\/api\/docs\/openapi.json"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, OpenAPIPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
