package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"bpih-platform/internal/dataset"
	"bpih-platform/internal/models"
)

// FitNormalTrend runs ordinary least squares of national average cost against
// the 0-based position of each year inside the given list.
func FitNormalTrend(ds *dataset.Dataset, years []int) (models.TrendFit, error) {
	if len(years) < 2 {
		return models.TrendFit{}, &models.InsufficientDataError{
			Operation: "normal trend fit",
			Required:  2,
			Available: len(years),
		}
	}

	xs := make([]float64, len(years))
	ys := make([]float64, len(years))
	for i, year := range years {
		rec, err := ds.Get(year)
		if err != nil {
			return models.TrendFit{}, fmt.Errorf("normal trend fit: %w", err)
		}
		xs[i] = float64(i)
		ys[i] = rec.NationalAverage
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	mean := stat.Mean(ys, nil)

	fit := models.TrendFit{
		Years:     append([]int(nil), years...),
		Slope:     slope,
		Intercept: intercept,
		MeanCost:  mean,
	}
	if mean != 0 {
		fit.AnnualGrowthRate = slope / mean
	}

	return fit, nil
}
