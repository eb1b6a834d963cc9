package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"bpih-platform/internal/advisor"
	"bpih-platform/internal/config"
	"bpih-platform/internal/forecast"
	"bpih-platform/internal/handlers"
	"bpih-platform/internal/market"
	"bpih-platform/internal/repository"
	"bpih-platform/internal/services"
	"bpih-platform/pkg/database"
	"bpih-platform/pkg/logging"
	"bpih-platform/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewStructuredLogger("bpih-api", version, logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting BPIH forecast API server", logging.Fields{
		"version":          version,
		"server_host":      cfg.Server.Host,
		"server_port":      cfg.Server.Port,
		"dataset_source":   cfg.Dataset.Source,
		"advisor_provider": cfg.Advisor.Provider,
		"live_signals":     cfg.Market.Live(),
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("bpih")

	// Dataset source
	repo, closeRepo, err := newRepository(cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open dataset source", logging.Fields{
			"dataset_source": cfg.Dataset.Source,
		}, err)
	}
	defer closeRepo()

	ds, err := repository.LoadDataset(ctx, repo, logger)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{}, err)
	}

	// Initialize services
	opts := services.DefaultForecastOptions()
	opts.DefaultYears = cfg.Forecast.DefaultYears
	opts.MaxYears = cfg.Forecast.MaxYears
	opts.AnomalyThreshold = cfg.Forecast.AnomalyThreshold
	opts.Signals = forecast.SignalOptions{Gold: cfg.Market.Gold, Currency: cfg.Market.Currency}

	forecastService, err := services.NewForecastService(ds, newSignalProvider(cfg, logger, metricsCollector), opts, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to analyze dataset", logging.Fields{}, err)
	}

	growth, err := forecastService.Growth(ctx)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to read growth analysis", logging.Fields{}, err)
	}
	primary := newAdvisor(ctx, cfg, logger)
	advisorService := services.NewAdvisorService(forecastService, primary, advisor.NewMockAdvisor(growth), logger, metricsCollector)

	// Initialize handlers
	var askLimiter *rate.Limiter
	if n := cfg.Server.AskPerMinute; n > 0 {
		askLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}
	costHandler := handlers.NewCostHandler(forecastService, advisorService, repo, askLimiter, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.Instrument(logger, metricsCollector))

	// Register routes
	costHandler.RegisterRoutes(router)
	handlers.RegisterDocs(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
			"years":   ds.Len(),
			"advisor": advisorService.Provider(),
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

// newRepository opens the configured dataset source. The returned func
// releases it.
func newRepository(cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (repository.CostRepository, func(), error) {
	if cfg.Dataset.Source != config.SourcePostgres {
		return repository.NewStaticRepository(), func() {}, nil
	}

	db, err := database.NewPostgresDB(cfg.Database.Connection(), logger, metricsCollector)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewPostgresRepository(db, logger, metricsCollector), func() { db.Close() }, nil
}

// newSignalProvider uses the live APIs behind a static fallback when both keys
// are configured, and the static values otherwise
func newSignalProvider(cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) market.SignalProvider {
	static := market.NewStaticProvider()
	if !cfg.Market.Live() {
		return static
	}

	live := market.NewLiveProvider(market.LiveConfig{
		FinnhubBaseURL: cfg.Market.FinnhubBaseURL,
		FinnhubAPIKey:  cfg.Market.FinnhubAPIKey,
		FixerBaseURL:   cfg.Market.FixerBaseURL,
		FixerAPIKey:    cfg.Market.FixerAPIKey,
		Timeout:        cfg.Market.Timeout,
	})
	return market.NewFallbackProvider(live, static, logger, metricsCollector)
}

// newAdvisor returns nil when the offline answer should be used directly
func newAdvisor(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger) advisor.Advisor {
	var (
		a   advisor.Advisor
		err error
	)

	switch cfg.Advisor.Provider {
	case config.ProviderOpenRouter:
		a, err = advisor.NewOpenRouterAdvisor(advisor.OpenRouterConfig{
			BaseURL: cfg.Advisor.OpenRouterBaseURL,
			APIKey:  cfg.Advisor.OpenRouterAPIKey,
			Model:   cfg.Advisor.OpenRouterModel,
			Timeout: cfg.Advisor.Timeout,
		})
	case config.ProviderGemini:
		a, err = advisor.NewGeminiAdvisor(ctx, cfg.Advisor.GeminiAPIKey, cfg.Advisor.GeminiModel)
	default:
		return nil
	}

	if err != nil {
		logger.Warn(ctx, "[ADVISOR_UNAVAILABLE] Falling back to offline answers", logging.Fields{
			"provider": cfg.Advisor.Provider,
			"error":    err.Error(),
		})
		return nil
	}
	return a
}
