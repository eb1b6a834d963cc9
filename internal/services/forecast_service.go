package services

import (
	"context"
	"fmt"
	"time"

	"bpih-platform/internal/analysis"
	"bpih-platform/internal/breakdown"
	"bpih-platform/internal/dataset"
	"bpih-platform/internal/forecast"
	"bpih-platform/internal/knowledge"
	"bpih-platform/internal/market"
	"bpih-platform/internal/models"
	"bpih-platform/internal/regional"
	"bpih-platform/internal/risk"
	"bpih-platform/pkg/logging"
	"bpih-platform/pkg/metrics"
)

// ForecastOptions tunes the forecasting policy
type ForecastOptions struct {
	DefaultYears     int
	MaxYears         int
	AnomalyThreshold float64
	PolynomialDegree int
	Signals          forecast.SignalOptions
	Weights          forecast.Weights
	Shares           breakdown.ShareTable
}

// DefaultForecastOptions returns the options used when nothing is configured
func DefaultForecastOptions() ForecastOptions {
	return ForecastOptions{
		DefaultYears:     5,
		MaxYears:         30,
		AnomalyThreshold: analysis.DefaultAnomalyThreshold,
		PolynomialDegree: 2,
		Signals:          forecast.DefaultSignalOptions(),
		Weights:          forecast.DefaultWeights(),
		Shares:           breakdown.DefaultShareTable(),
	}
}

// ScenarioForecast is the plain projection next to its signal-adjusted variant
type ScenarioForecast struct {
	BaseYear       int                  `json:"base_year"`
	BaseCost       float64              `json:"base_cost"`
	GrowthRate     float64              `json:"growth_rate"`
	Scenarios      []models.ScenarioSet `json:"scenarios"`
	Signals        forecast.Signals     `json:"signals"`
	SignalSource   string               `json:"signal_source"`
	SignalAdjusted []models.ScenarioSet `json:"signal_adjusted"`
}

// RegionalComparison is the per-region view of one year
type RegionalComparison struct {
	Year            int                         `json:"year"`
	NationalAverage float64                     `json:"national_average"`
	Differences     []models.RegionalDifference `json:"differences"`
}

// CostBreakdown splits the cost of one year into components
type CostBreakdown struct {
	TargetYear int                 `json:"target_year"`
	Projected  bool                `json:"projected"`
	Breakdown  breakdown.Breakdown `json:"breakdown"`
}

// Overview holds the headline numbers of the dataset
type Overview struct {
	FirstYear            int                       `json:"first_year"`
	FirstCost            float64                   `json:"first_cost"`
	CurrentYear          int                       `json:"current_year"`
	CurrentCost          float64                   `json:"current_cost"`
	TotalIncreasePercent float64                   `json:"total_increase_percent"`
	AverageNormalGrowth  float64                   `json:"average_normal_growth"`
	OverallCAGR          float64                   `json:"overall_cagr_percent"`
	NormalPeriodCAGR     float64                   `json:"normal_period_cagr_percent"`
	NextYearEstimate     float64                   `json:"next_year_estimate"`
	Cheapest             models.RegionalDifference `json:"cheapest_region"`
	Priciest             models.RegionalDifference `json:"priciest_region"`
	Surge                *models.GrowthRate        `json:"surge,omitempty"`
}

// ForecastService runs the analysis and forecasting operations over one dataset
type ForecastService struct {
	ds        *dataset.Dataset
	signals   market.SignalProvider
	opts      ForecastOptions
	base      *knowledge.Base
	retriever *knowledge.Retriever
	model     *forecast.PolynomialModel
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewForecastService analyzes the dataset once up front. signals may be nil,
// in which case signal-adjusted scenarios use the configured baselines.
func NewForecastService(ds *dataset.Dataset, signals market.SignalProvider, opts ForecastOptions, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*ForecastService, error) {
	ctx := context.Background()
	startTime := time.Now()

	if err := opts.Shares.Validate(); err != nil {
		return nil, err
	}

	analyzer := analysis.NewAnalyzer()
	if opts.AnomalyThreshold > 0 {
		analyzer.Threshold = opts.AnomalyThreshold
	}

	base, err := knowledge.NewBase(ds, analyzer)
	if err != nil {
		return nil, fmt.Errorf("failed to build knowledge base: %w", err)
	}
	base.Shares = opts.Shares

	s := &ForecastService{
		ds:        ds,
		signals:   signals,
		opts:      opts,
		base:      base,
		retriever: knowledge.NewRetriever(base, nil),
		logger:    logger,
		metrics:   metricsCollector,
	}

	model, err := forecast.FitPolynomial(base.Summary.Series.Points, opts.PolynomialDegree)
	if err != nil {
		logger.Warn(ctx, "[FORECAST_MODEL_SKIPPED] Polynomial model unavailable, ensemble disabled", logging.Fields{
			"degree": opts.PolynomialDegree,
			"error":  err.Error(),
		})
	} else {
		s.model = model
	}

	metricsCollector.DatasetYears.Set(float64(ds.Len()))

	logger.Info(ctx, "[FORECAST_READY] Dataset analyzed", logging.Fields{
		"years":            ds.Len(),
		"current_year":     base.Summary.CurrentYear,
		"anomalous_rates":  len(base.Summary.AnomalousRates),
		"duration_seconds": time.Since(startTime).Seconds(),
		"stage":            "INITIALIZATION",
	})

	return s, nil
}

// Dataset returns the dataset the service was built from
func (s *ForecastService) Dataset() *dataset.Dataset {
	return s.ds
}

// Growth returns the growth analysis
func (s *ForecastService) Growth(_ context.Context) (analysis.GrowthSummary, error) {
	return s.base.Summary, nil
}

// resolveYears applies the default horizon and the configured ceiling
func (s *ForecastService) resolveYears(field string, years, limit int) (int, error) {
	if years == 0 {
		return s.opts.DefaultYears, nil
	}
	if years < 0 || years > limit {
		return 0, &models.InvalidInputError{
			Field:   field,
			Value:   float64(years),
			Message: fmt.Sprintf("must be between 1 and %d", limit),
		}
	}
	return years, nil
}

// Scenarios projects the three scenarios from the latest year. Non-positive
// fields of override are filled from the signal provider.
func (s *ForecastService) Scenarios(ctx context.Context, years int, override forecast.Signals) (*ScenarioForecast, error) {
	timer := s.metrics.CalculationTimer("scenarios")
	defer timer.ObserveDuration()

	years, err := s.resolveYears("years", years, s.opts.MaxYears)
	if err != nil {
		return nil, err
	}

	summary := s.base.Summary
	rate := summary.AverageNormal

	plain, err := forecast.ProjectYears(summary.CurrentCost, rate, years, summary.CurrentYear)
	if err != nil {
		return nil, err
	}

	signals, source := s.resolveSignals(ctx, override)
	adjusted, err := forecast.ProjectWithSignals(summary.CurrentCost, rate, years, summary.CurrentYear, signals, s.opts.Signals)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[FORECAST_SCENARIOS] Scenarios projected", logging.Fields{
		"years":         years,
		"growth_rate":   rate,
		"signal_source": source,
		"gold_price":    signals.GoldPrice,
		"exchange_rate": signals.ExchangeRate,
	})

	return &ScenarioForecast{
		BaseYear:       summary.CurrentYear,
		BaseCost:       summary.CurrentCost,
		GrowthRate:     rate,
		Scenarios:      plain,
		Signals:        signals,
		SignalSource:   source,
		SignalAdjusted: adjusted,
	}, nil
}

func (s *ForecastService) resolveSignals(ctx context.Context, override forecast.Signals) (forecast.Signals, string) {
	if override.GoldPrice > 0 && override.ExchangeRate > 0 {
		return override, "request"
	}
	if s.signals == nil {
		return override, "baseline"
	}

	snap, err := market.FetchSnapshot(ctx, s.signals)
	if err != nil {
		s.logger.Warn(ctx, "[FORECAST_SIGNALS_UNAVAILABLE] Using baseline signals", logging.Fields{
			"error": err.Error(),
		})
		return override, "baseline"
	}

	fetched := snap.Signals()
	if override.GoldPrice > 0 {
		fetched.GoldPrice = override.GoldPrice
	}
	if override.ExchangeRate > 0 {
		fetched.ExchangeRate = override.ExchangeRate
	}
	return fetched, snap.Gold.Source
}

// Monthly projects the scenarios month by month
func (s *ForecastService) Monthly(ctx context.Context, months int) ([]models.ScenarioSet, error) {
	timer := s.metrics.CalculationTimer("monthly")
	defer timer.ObserveDuration()

	if months == 0 {
		months = 12
	}
	if months < 0 || months > s.opts.MaxYears*12 {
		return nil, &models.InvalidInputError{
			Field:   "months",
			Value:   float64(months),
			Message: fmt.Sprintf("must be between 1 and %d", s.opts.MaxYears*12),
		}
	}

	summary := s.base.Summary
	sets, err := forecast.ProjectMonths(summary.CurrentCost, summary.AverageNormal, months, summary.CurrentYear)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "[FORECAST_MONTHLY] Monthly projection computed", logging.Fields{
		"months": months,
	})
	return sets, nil
}

// Ensemble blends the polynomial fit with the compounding bounds
func (s *ForecastService) Ensemble(ctx context.Context, years int) ([]forecast.EnsemblePoint, error) {
	timer := s.metrics.CalculationTimer("ensemble")
	defer timer.ObserveDuration()

	years, err := s.resolveYears("years", years, s.opts.MaxYears)
	if err != nil {
		return nil, err
	}

	summary := s.base.Summary
	growth := summary.NormalPeriodCAGR / 100
	points, err := forecast.EnsembleForecast(summary.CurrentCost, summary.CurrentYear, s.model, growth, years, s.opts.Weights)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[FORECAST_ENSEMBLE] Ensemble forecast computed", logging.Fields{
		"years":       years,
		"growth_rate": growth,
	})
	return points, nil
}

// Regional compares the regions of a published year against its average
func (s *ForecastService) Regional(ctx context.Context, year int) (*RegionalComparison, error) {
	timer := s.metrics.CalculationTimer("regional")
	defer timer.ObserveDuration()

	record, err := s.ds.Get(year)
	if err != nil {
		return nil, err
	}

	diffs, err := regional.Compare(record)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "[FORECAST_REGIONAL] Regions compared", logging.Fields{
		"year": year,
	})

	return &RegionalComparison{
		Year:            year,
		NationalAverage: record.NationalAverage,
		Differences:     regional.Ordered(diffs),
	}, nil
}

// Breakdown splits a year's cost into components. Published years use the
// published average; later years use the realistic projection from the latest
// year. A year of 0 means the year after the latest.
func (s *ForecastService) Breakdown(ctx context.Context, targetYear int) (*CostBreakdown, error) {
	timer := s.metrics.CalculationTimer("breakdown")
	defer timer.ObserveDuration()

	summary := s.base.Summary
	if targetYear == 0 {
		targetYear = summary.CurrentYear + 1
	}

	var (
		total     float64
		projected bool
	)
	switch {
	case s.ds.Has(targetYear):
		record, err := s.ds.Get(targetYear)
		if err != nil {
			return nil, err
		}
		total = record.NationalAverage
	case targetYear <= summary.CurrentYear:
		return nil, &models.MissingYearError{Year: targetYear}
	default:
		horizon := targetYear - summary.CurrentYear
		if horizon > s.opts.MaxYears {
			return nil, &models.InvalidInputError{
				Field:   "year",
				Value:   float64(targetYear),
				Message: fmt.Sprintf("must be at most %d", summary.CurrentYear+s.opts.MaxYears),
			}
		}
		cost, err := forecast.ProjectRealistic(summary.CurrentCost, summary.AverageNormal, horizon)
		if err != nil {
			return nil, err
		}
		total = cost
		projected = true
	}

	b, err := breakdown.Allocate(total, s.opts.Shares)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "[FORECAST_BREAKDOWN] Cost allocated", logging.Fields{
		"target_year": targetYear,
		"projected":   projected,
	})

	return &CostBreakdown{TargetYear: targetYear, Projected: projected, Breakdown: b}, nil
}

// Summary returns the headline numbers
func (s *ForecastService) Summary(_ context.Context) (*Overview, error) {
	records := s.ds.Records()
	if len(records) == 0 {
		return nil, &models.InsufficientDataError{Operation: "summary", Required: 1, Available: 0}
	}

	first := records[0]
	summary := s.base.Summary

	next, err := forecast.ProjectRealistic(summary.CurrentCost, summary.AverageNormal, 1)
	if err != nil {
		return nil, err
	}

	o := &Overview{
		FirstYear:           first.Year,
		FirstCost:           first.NationalAverage,
		CurrentYear:         summary.CurrentYear,
		CurrentCost:         summary.CurrentCost,
		AverageNormalGrowth: summary.AverageNormal,
		OverallCAGR:         summary.OverallCAGR,
		NormalPeriodCAGR:    summary.NormalPeriodCAGR,
		NextYearEstimate:    next,
		Cheapest:            s.base.Cheapest(),
		Priciest:            s.base.Priciest(),
		Surge:               s.base.Surge,
	}
	if first.NationalAverage > 0 {
		o.TotalIncreasePercent = (summary.CurrentCost - first.NationalAverage) / first.NationalAverage * 100
	}
	return o, nil
}

// Risks lists the qualitative risk factors
func (s *ForecastService) Risks() []risk.Factor {
	return risk.ListFactors()
}

// Context assembles the advisor context block for a query
func (s *ForecastService) Context(query string) string {
	return s.retriever.Retrieve(query)
}

// MatchedRules names the context rules a query triggers
func (s *ForecastService) MatchedRules(query string) []string {
	return s.retriever.MatchedRules(query)
}
