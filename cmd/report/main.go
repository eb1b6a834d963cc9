package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"bpih-platform/internal/config"
	"bpih-platform/internal/dataset"
	"bpih-platform/internal/forecast"
	"bpih-platform/internal/report"
	"bpih-platform/internal/services"
	"bpih-platform/pkg/logging"
	"bpih-platform/pkg/metrics"
)

const (
	workbookName = "bpih_forecast.xlsx"
	chartName    = "bpih_forecast.png"
)

func main() {
	outDir := flag.String("out", ".", "Directory for the workbook and chart")
	years := flag.Int("years", 0, "Years to project (default from configuration)")
	flag.Parse()

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

	logLevel, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewStructuredLogger("bpih-report", "1.0.0", logLevel)
	// one-shot run: metrics stay off the default registry
	metricsCollector := metrics.NewCollectorWithRegistry("bpih_report", prometheus.NewRegistry())

	ctx := context.Background()

	opts := services.DefaultForecastOptions()
	opts.DefaultYears = cfg.Forecast.DefaultYears
	opts.MaxYears = cfg.Forecast.MaxYears
	opts.AnomalyThreshold = cfg.Forecast.AnomalyThreshold
	opts.Signals = forecast.SignalOptions{Gold: cfg.Market.Gold, Currency: cfg.Market.Currency}

	svc, err := services.NewForecastService(dataset.Default(), nil, opts, logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to analyze dataset: %v\n", err)
		os.Exit(1)
	}

	r, err := report.Build(ctx, svc, *years)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build report: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	if err := writeFile(filepath.Join(*outDir, workbookName), r.WriteWorkbook); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write workbook: %v\n", err)
		os.Exit(1)
	}
	if err := writeFile(filepath.Join(*outDir, chartName), r.WriteChart); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write chart: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(r.ConsoleSummary())
	fmt.Printf("\nWrote %s and %s to %s\n", workbookName, chartName, *outDir)
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
