package analysis

import (
	"math"

	"bpih-platform/internal/dataset"
	"bpih-platform/internal/models"
)

// DefaultAnomalyThreshold is the policy boundary between a normal year-over-year
// move and a one-time shock: |rate| < 0.5 is normal.
const DefaultAnomalyThreshold = 0.5

// NormalPeriodYears are the seasons preceding the 2022→2023 surge. The trend fit
// uses exactly this list rather than whatever the threshold happens to flag.
var NormalPeriodYears = []int{2016, 2017, 2018, 2019, 2020, 2022}

// ComputeGrowthSeries walks adjacent years in ascending order and records the
// simple change between them. A pair with a non-positive endpoint is omitted.
func ComputeGrowthSeries(ds *dataset.Dataset) models.GrowthSeries {
	records := ds.Records()

	series := models.GrowthSeries{
		Points: make([]models.GrowthPoint, 0, len(records)),
		Rates:  make([]models.GrowthRate, 0, len(records)),
	}

	for i, rec := range records {
		series.Points = append(series.Points, models.GrowthPoint{
			Year: rec.Year,
			Cost: rec.NationalAverage,
		})

		if i == 0 {
			continue
		}

		prev := records[i-1]
		if prev.NationalAverage <= 0 || rec.NationalAverage <= 0 {
			continue
		}

		series.Rates = append(series.Rates, models.GrowthRate{
			FromYear: prev.Year,
			ToYear:   rec.Year,
			Rate:     (rec.NationalAverage - prev.NationalAverage) / prev.NationalAverage,
		})
	}

	return series
}

// ClassifyAnomalies partitions the series rates by magnitude. Order is preserved
// in both partitions.
func ClassifyAnomalies(series models.GrowthSeries, threshold float64) (normal, anomalous []models.GrowthRate) {
	normal = make([]models.GrowthRate, 0, len(series.Rates))
	anomalous = make([]models.GrowthRate, 0)

	for _, r := range series.Rates {
		if IsAnomalous(r.Rate, threshold) {
			anomalous = append(anomalous, r)
		} else {
			normal = append(normal, r)
		}
	}

	return normal, anomalous
}

// IsAnomalous reports whether a single rate crosses the threshold
func IsAnomalous(rate, threshold float64) bool {
	return math.Abs(rate) >= threshold
}

// OverallCAGR returns the compound annual growth rate in percent.
// Degenerate input returns 0 instead of an error so sparse data never divides by zero.
func OverallCAGR(startCost, endCost float64, periods int) float64 {
	if startCost <= 0 || endCost <= 0 || periods <= 0 {
		return 0
	}
	return (math.Pow(endCost/startCost, 1/float64(periods)) - 1) * 100
}
