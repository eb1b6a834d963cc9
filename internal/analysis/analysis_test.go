package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpih-platform/internal/dataset"
	"bpih-platform/internal/models"
)

func TestComputeGrowthSeries_FullTable(t *testing.T) {
	ds := dataset.Default()
	series := ComputeGrowthSeries(ds)

	require.Len(t, series.Points, 9)
	require.Len(t, series.Rates, len(series.Points)-1)

	for i := 1; i < len(series.Points); i++ {
		assert.Less(t, series.Points[i-1].Year, series.Points[i].Year)
	}

	// 2020→2022 spans the missing 2021 and is not normalized per annum
	gap := series.Rates[4]
	assert.Equal(t, 2020, gap.FromYear)
	assert.Equal(t, 2022, gap.ToYear)
	assert.InDelta(t, (39442491.0-34865802.0)/34865802.0, gap.Rate, 1e-12)
}

func TestClassifyAnomalies_SurgeIsOnlyAnomaly(t *testing.T) {
	series := ComputeGrowthSeries(dataset.Default())
	normal, anomalous := ClassifyAnomalies(series, DefaultAnomalyThreshold)

	require.Len(t, anomalous, 1)
	assert.Equal(t, 2022, anomalous[0].FromYear)
	assert.Equal(t, 2023, anomalous[0].ToYear)
	assert.InDelta(t, 1.283, anomalous[0].Rate, 0.001)

	assert.Len(t, normal, 7)
	for _, r := range normal {
		assert.Less(t, math.Abs(r.Rate), DefaultAnomalyThreshold)
	}
}

func TestClassifyAnomalies_Threshold(t *testing.T) {
	series := models.GrowthSeries{Rates: []models.GrowthRate{
		{FromYear: 1, ToYear: 2, Rate: 0.49},
		{FromYear: 2, ToYear: 3, Rate: 0.5},
		{FromYear: 3, ToYear: 4, Rate: -0.6},
		{FromYear: 4, ToYear: 5, Rate: -0.1},
	}}

	normal, anomalous := ClassifyAnomalies(series, 0.5)
	assert.Equal(t, []float64{0.49, -0.1}, models.RateValues(normal))
	assert.Equal(t, []float64{0.5, -0.6}, models.RateValues(anomalous))

	for _, r := range series.Rates {
		assert.Equal(t, math.Abs(r.Rate) >= 0.5, IsAnomalous(r.Rate, 0.5), "rate %v", r.Rate)
	}
}

func TestComputeGrowthSeries_SkipsNonPositive(t *testing.T) {
	ds, err := dataset.New([]models.YearRecord{
		{Year: 2000, NationalAverage: 100},
		{Year: 2001, NationalAverage: 0},
		{Year: 2002, NationalAverage: 110},
		{Year: 2003, NationalAverage: 121},
	})
	require.NoError(t, err)

	series := ComputeGrowthSeries(ds)
	assert.Len(t, series.Points, 4)
	require.Len(t, series.Rates, 1)
	assert.Equal(t, 2002, series.Rates[0].FromYear)
	assert.InDelta(t, 0.1, series.Rates[0].Rate, 1e-12)
}

func TestFitNormalTrend(t *testing.T) {
	ds := dataset.Default()

	fit, err := FitNormalTrend(ds, NormalPeriodYears)
	require.NoError(t, err)

	assert.InDelta(t, 802725.5, fit.Slope, 1)
	assert.Greater(t, fit.AnnualGrowthRate, 0.0)
	assert.Less(t, fit.AnnualGrowthRate, 0.10, "single-digit percent")

	series := ComputeGrowthSeries(ds)
	_, anomalous := ClassifyAnomalies(series, DefaultAnomalyThreshold)
	assert.Less(t, fit.AnnualGrowthRate, anomalous[0].Rate)
}

func TestFitNormalTrend_Errors(t *testing.T) {
	ds := dataset.Default()

	tests := []struct {
		name  string
		years []int
		check func(*testing.T, error)
	}{
		{
			name:  "no years",
			years: nil,
			check: func(t *testing.T, err error) {
				var insufficient *models.InsufficientDataError
				require.True(t, errors.As(err, &insufficient))
				assert.Equal(t, 0, insufficient.Available)
			},
		},
		{
			name:  "single year",
			years: []int{2016},
			check: func(t *testing.T, err error) {
				var insufficient *models.InsufficientDataError
				assert.True(t, errors.As(err, &insufficient))
			},
		},
		{
			name:  "missing year",
			years: []int{2020, 2021},
			check: func(t *testing.T, err error) {
				var missing *models.MissingYearError
				require.True(t, errors.As(err, &missing))
				assert.Equal(t, 2021, missing.Year)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitNormalTrend(ds, tt.years)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestOverallCAGR(t *testing.T) {
	ds := dataset.Default()
	start, _ := ds.Get(2016)
	end, _ := ds.Get(2025)

	got := OverallCAGR(start.NationalAverage, end.NationalAverage, 9)
	want := (math.Pow(end.NationalAverage/start.NationalAverage, 1.0/9) - 1) * 100
	assert.InDelta(t, want, got, 1e-9)
	assert.InDelta(t, 11.1, got, 0.1)

	tests := []struct {
		name    string
		start   float64
		end     float64
		periods int
	}{
		{"zero start", 0, 100, 3},
		{"negative start", -1, 100, 3},
		{"zero end", 100, 0, 3},
		{"zero periods", 100, 200, 0},
		{"negative periods", 100, 200, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0.0, OverallCAGR(tt.start, tt.end, tt.periods))
		})
	}
}

func TestAnalyzer_Summarize(t *testing.T) {
	ds := dataset.Default()
	summary, err := NewAnalyzer().Summarize(ds)
	require.NoError(t, err)

	assert.Equal(t, 2025, summary.CurrentYear)
	assert.Equal(t, 88458765.0, summary.CurrentCost)
	assert.Len(t, summary.NormalRates, 7)
	assert.Len(t, summary.AnomalousRates, 1)
	assert.InDelta(t, 0.0195, summary.AverageNormal, 0.001)
	assert.InDelta(t, 0.0054, summary.MedianNormal, 0.001)
	assert.Greater(t, summary.StdDevNormal, 0.0)
	assert.InDelta(t, 11.1, summary.OverallCAGR, 0.1)
	assert.Greater(t, summary.NormalPeriodCAGR, 0.0)
	assert.Less(t, summary.NormalPeriodCAGR, 5.0)
}

func TestAnalyzer_SummarizeFallbacks(t *testing.T) {
	ds, err := dataset.New([]models.YearRecord{
		{Year: 2000, NationalAverage: 100},
		{Year: 2001, NationalAverage: 300},
	})
	require.NoError(t, err)

	a := &Analyzer{Threshold: DefaultAnomalyThreshold, NormalYears: []int{2000, 2001}}
	summary, err := a.Summarize(ds)
	require.NoError(t, err)

	assert.Empty(t, summary.NormalRates)
	assert.Equal(t, 0.03, summary.AverageNormal)
	assert.Equal(t, 0.03, summary.MedianNormal)
	assert.Equal(t, 0.02, summary.StdDevNormal)
}

func TestAnalyzer_Idempotent(t *testing.T) {
	ds := dataset.Default()
	a := NewAnalyzer()

	first, err := a.Summarize(ds)
	require.NoError(t, err)
	second, err := a.Summarize(ds)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
