package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"bpih-platform/internal/forecast"
	"bpih-platform/internal/models"
	"bpih-platform/internal/services"
	"bpih-platform/pkg/logging"
	"bpih-platform/pkg/metrics"
)

// HealthChecker reports whether the dataset source is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CostHandler serves the cost analysis and forecasting endpoints
type CostHandler struct {
	forecasts  *services.ForecastService
	advisors   *services.AdvisorService
	health     HealthChecker
	askLimiter *rate.Limiter
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewCostHandler creates the handler. health and askLimiter may be nil.
func NewCostHandler(
	forecasts *services.ForecastService,
	advisors *services.AdvisorService,
	health HealthChecker,
	askLimiter *rate.Limiter,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *CostHandler {
	return &CostHandler{
		forecasts:  forecasts,
		advisors:   advisors,
		health:     health,
		askLimiter: askLimiter,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// CostsResponse lists every published year
type CostsResponse struct {
	Data  []models.YearRecord `json:"data"`
	Total int                 `json:"total"`
}

// ContextResponse is the assembled advisor context for a query
type ContextResponse struct {
	Query    string   `json:"query"`
	Sections []string `json:"sections"`
	Context  string   `json:"context"`
}

// AskRequest is the body of POST /api/ask
type AskRequest struct {
	Question string `json:"question"`
	Format   string `json:"format"`
}

// GetCosts handles GET /api/costs
func (h *CostHandler) GetCosts(w http.ResponseWriter, r *http.Request) {
	records := h.forecasts.Dataset().Records()
	h.sendJSON(w, CostsResponse{Data: records, Total: len(records)}, http.StatusOK)
}

// GetCost handles GET /api/costs/{year}
func (h *CostHandler) GetCost(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	record, err := h.forecasts.Dataset().Get(year)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, record, http.StatusOK)
}

// GetGrowth handles GET /api/growth
func (h *CostHandler) GetGrowth(w http.ResponseWriter, r *http.Request) {
	growth, err := h.forecasts.Growth(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, growth, http.StatusOK)
}

// GetForecast handles GET /api/forecast
func (h *CostHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	years, err := queryInt(r, "years")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	gold, err := queryFloat(r, "gold")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	exchange, err := queryFloat(r, "rate")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.forecasts.Scenarios(r.Context(), years, forecast.Signals{GoldPrice: gold, ExchangeRate: exchange})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, result, http.StatusOK)
}

// GetMonthlyForecast handles GET /api/forecast/monthly
func (h *CostHandler) GetMonthlyForecast(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	sets, err := h.forecasts.Monthly(r.Context(), months)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, sets, http.StatusOK)
}

// GetEnsemble handles GET /api/forecast/ensemble
func (h *CostHandler) GetEnsemble(w http.ResponseWriter, r *http.Request) {
	years, err := queryInt(r, "years")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	points, err := h.forecasts.Ensemble(r.Context(), years)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, points, http.StatusOK)
}

// GetRegional handles GET /api/regional/{year}
func (h *CostHandler) GetRegional(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.forecasts.Regional(r.Context(), year)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, result, http.StatusOK)
}

// GetBreakdown handles GET /api/breakdown
func (h *CostHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.forecasts.Breakdown(r.Context(), year)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, result, http.StatusOK)
}

// GetRisks handles GET /api/risks
func (h *CostHandler) GetRisks(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, h.forecasts.Risks(), http.StatusOK)
}

// GetSummary handles GET /api/summary
func (h *CostHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	overview, err := h.forecasts.Summary(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, overview, http.StatusOK)
}

// GetContext handles GET /api/context
func (h *CostHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	h.sendJSON(w, ContextResponse{
		Query:    query,
		Sections: h.forecasts.MatchedRules(query),
		Context:  h.forecasts.Context(query),
	}, http.StatusOK)
}

// Ask handles POST /api/ask
func (h *CostHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.askLimiter != nil && !h.askLimiter.Allow() {
		h.logger.Warn(ctx, "[API_ASK_THROTTLED] Ask rate limit exceeded", logging.Fields{
			"remote_addr": r.RemoteAddr,
		})
		h.metrics.RecordAPIError("rate_limited", "/api/ask")
		h.sendError(w, r, "too many questions, try again shortly", http.StatusTooManyRequests)
		return
	}

	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		h.metrics.RecordAPIError("bad_request", "/api/ask")
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest)
		return
	}

	answer, err := h.advisors.Ask(ctx, req.Question, req.Format)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, answer, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *CostHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"years":     h.forecasts.Dataset().Len(),
	}
	code := http.StatusOK

	if h.health != nil {
		if err := h.health.HealthCheck(ctx); err != nil {
			h.logger.Warn(ctx, "[HEALTH_CHECK_FAILED] Dataset source unhealthy", logging.Fields{
				"error": err.Error(),
			})
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var (
		missingYear   *models.MissingYearError
		missingRegion *models.MissingRegionError
		invalidInput  *models.InvalidInputError
		insufficient  *models.InsufficientDataError
		invalidShares *models.InvalidShareTableError
	)
	switch {
	case errors.As(err, &missingYear), errors.As(err, &missingRegion):
		return http.StatusNotFound
	case errors.As(err, &invalidInput), errors.As(err, &insufficient), errors.As(err, &invalidShares):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *CostHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	endpoint := routeTemplate(r)
	code := statusFor(err)

	if code == http.StatusInternalServerError {
		h.logger.Error(ctx, "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "internal error", code)
		return
	}

	h.logger.Debug(ctx, "[API_REJECTED] Request rejected", logging.Fields{
		"endpoint": endpoint,
		"status":   code,
		"error":    err.Error(),
	})
	errorType := "invalid_input"
	if code == http.StatusNotFound {
		errorType = "not_found"
	}
	h.metrics.RecordAPIError(errorType, endpoint)
	h.sendError(w, r, err.Error(), code)
}

// sendJSON sends a JSON response
func (h *CostHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *CostHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Code:      statusCode,
		RequestID: logging.RequestIDFrom(r.Context()),
	}

	h.sendJSON(w, response, statusCode)
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.InvalidInputError{Field: name, Message: "must be an integer"}
	}
	return v, nil
}

// queryInt returns 0 when the parameter is absent
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.InvalidInputError{Field: name, Message: "must be an integer"}
	}
	return v, nil
}

// queryFloat returns 0 when the parameter is absent
func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, &models.InvalidInputError{Field: name, Value: v, Message: "must be a non-negative number"}
	}
	return v, nil
}

// RegisterRoutes registers all cost API routes
func (h *CostHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/costs", h.GetCosts).Methods("GET")
	router.HandleFunc("/api/costs/{year:[0-9]+}", h.GetCost).Methods("GET")
	router.HandleFunc("/api/growth", h.GetGrowth).Methods("GET")
	router.HandleFunc("/api/forecast", h.GetForecast).Methods("GET")
	router.HandleFunc("/api/forecast/monthly", h.GetMonthlyForecast).Methods("GET")
	router.HandleFunc("/api/forecast/ensemble", h.GetEnsemble).Methods("GET")
	router.HandleFunc("/api/regional/{year:[0-9]+}", h.GetRegional).Methods("GET")
	router.HandleFunc("/api/breakdown", h.GetBreakdown).Methods("GET")
	router.HandleFunc("/api/risks", h.GetRisks).Methods("GET")
	router.HandleFunc("/api/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/api/context", h.GetContext).Methods("GET")
	router.HandleFunc("/api/ask", h.Ask).Methods("POST")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
