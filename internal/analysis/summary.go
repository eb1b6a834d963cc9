package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"bpih-platform/internal/dataset"
	"bpih-platform/internal/models"
)

// Fallbacks used when no normal-year transition exists
const (
	fallbackAverageGrowth = 0.03
	fallbackMedianGrowth  = 0.03
	fallbackStdDevGrowth  = 0.02
)

// GrowthSummary bundles every statistic the forecaster and presentation need
type GrowthSummary struct {
	Series           models.GrowthSeries `json:"series"`
	NormalRates      []models.GrowthRate `json:"normal_rates"`
	AnomalousRates   []models.GrowthRate `json:"anomalous_rates"`
	AverageNormal    float64             `json:"average_normal_growth"`
	MedianNormal     float64             `json:"median_normal_growth"`
	StdDevNormal     float64             `json:"std_normal_growth"`
	OverallCAGR      float64             `json:"overall_cagr_percent"`
	NormalPeriodCAGR float64             `json:"normal_period_cagr_percent"`
	CurrentYear      int                 `json:"current_year"`
	CurrentCost      float64             `json:"current_cost"`
	PreAnomalyTrend  models.TrendFit     `json:"pre_anomaly_trend"`
	AnomalyThreshold float64             `json:"anomaly_threshold"`
}

// Analyzer carries the two policy knobs of the growth analysis
type Analyzer struct {
	Threshold   float64
	NormalYears []int
}

// NewAnalyzer returns an analyzer with the default policy
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		Threshold:   DefaultAnomalyThreshold,
		NormalYears: append([]int(nil), NormalPeriodYears...),
	}
}

// Summarize derives the full growth picture from the dataset. CAGR periods are
// calendar-year spans, so the 2021 gap counts as a year.
func (a *Analyzer) Summarize(ds *dataset.Dataset) (GrowthSummary, error) {
	latest, err := ds.LatestYear()
	if err != nil {
		return GrowthSummary{}, err
	}

	series := ComputeGrowthSeries(ds)
	normal, anomalous := ClassifyAnomalies(series, a.Threshold)

	trend, err := FitNormalTrend(ds, a.NormalYears)
	if err != nil {
		return GrowthSummary{}, err
	}

	summary := GrowthSummary{
		Series:           series,
		NormalRates:      normal,
		AnomalousRates:   anomalous,
		AverageNormal:    fallbackAverageGrowth,
		MedianNormal:     fallbackMedianGrowth,
		StdDevNormal:     fallbackStdDevGrowth,
		CurrentYear:      latest.Year,
		CurrentCost:      latest.NationalAverage,
		PreAnomalyTrend:  trend,
		AnomalyThreshold: a.Threshold,
	}

	if len(normal) > 0 {
		values := models.RateValues(normal)
		mean, std := stat.PopMeanStdDev(values, nil)
		summary.AverageNormal = mean
		summary.StdDevNormal = std
		summary.MedianNormal = median(values)
	}

	if pts := series.Points; len(pts) >= 2 {
		first, last := pts[0], pts[len(pts)-1]
		summary.OverallCAGR = OverallCAGR(first.Cost, last.Cost, last.Year-first.Year)
	}

	if n := len(a.NormalYears); n >= 2 {
		startYear, endYear := a.NormalYears[0], a.NormalYears[n-1]
		start, errStart := ds.Get(startYear)
		end, errEnd := ds.Get(endYear)
		if errStart == nil && errEnd == nil {
			summary.NormalPeriodCAGR = OverallCAGR(start.NationalAverage, end.NationalAverage, endYear-startYear)
		}
	}

	return summary, nil
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
