package forecast

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpih-platform/internal/analysis"
	"bpih-platform/internal/dataset"
	"bpih-platform/internal/models"
)

const latestCost = 88458765.0

func TestConfidence(t *testing.T) {
	tests := []struct {
		yearsAhead int
		want       float64
	}{
		{0, 85},
		{1, 75},
		{2, 65},
		{4, 45},
		{5, 40},
		{9, 40},
		{30, 40},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Confidence(tt.yearsAhead), "years ahead %d", tt.yearsAhead)
	}

	for h := 1; h < 40; h++ {
		assert.LessOrEqual(t, Confidence(h), Confidence(h-1))
	}
}

func TestProjectYears_Ordering(t *testing.T) {
	tests := []struct {
		name string
		rate float64
	}{
		{"small positive", 0.0195},
		{"large positive", 0.2},
		{"small negative", -0.01},
		{"large negative", -0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sets, err := ProjectYears(latestCost, tt.rate, 1, 2025)
			require.NoError(t, err)
			require.Len(t, sets, 1)

			p := sets[0].Projections
			c, r, o := p[models.ScenarioConservative], p[models.ScenarioRealistic], p[models.ScenarioOptimistic]
			if tt.rate > 0 {
				assert.Less(t, c, r)
				assert.Less(t, r, o)
			} else {
				assert.Greater(t, c, r)
				assert.Greater(t, r, o)
			}
		})
	}
}

func TestProjectYears_Values(t *testing.T) {
	rate := 0.02
	sets, err := ProjectYears(latestCost, rate, 5, 2025)
	require.NoError(t, err)
	require.Len(t, sets, 5)

	for i, set := range sets {
		h := i + 1
		assert.Equal(t, h, set.Horizon)
		assert.Equal(t, 2025+h, set.TargetYear)
		assert.Equal(t, Confidence(h), set.Confidence)
		assert.InDelta(t, latestCost*math.Pow(1+rate, float64(h)), set.Projections[models.ScenarioRealistic], 1e-6)
		assert.InDelta(t, latestCost*math.Pow(1+rate*0.7, float64(h)), set.Projections[models.ScenarioConservative], 1e-6)
		assert.InDelta(t, latestCost*math.Pow(1+rate*1.3, float64(h)), set.Projections[models.ScenarioOptimistic], 1e-6)
	}
}

func TestProjectYears_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		base       float64
		yearsAhead int
		field      string
	}{
		{"zero horizon", latestCost, 0, "years_ahead"},
		{"negative horizon", latestCost, -3, "years_ahead"},
		{"negative base", -1, 3, "base_cost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProjectYears(tt.base, 0.02, tt.yearsAhead, 2025)
			var invalid *models.InvalidInputError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestProjectMonths(t *testing.T) {
	rate := 0.03
	sets, err := ProjectMonths(latestCost, rate, 24, 2025)
	require.NoError(t, err)
	require.Len(t, sets, 24)

	yearly, err := ProjectYears(latestCost, rate, 2, 2025)
	require.NoError(t, err)

	assert.InDelta(t, yearly[0].Projections[models.ScenarioRealistic], sets[11].Projections[models.ScenarioRealistic], 1e-6)
	assert.InDelta(t, yearly[1].Projections[models.ScenarioRealistic], sets[23].Projections[models.ScenarioRealistic], 1e-6)
	assert.Equal(t, 2026, sets[0].TargetYear)
	assert.Equal(t, 2027, sets[12].TargetYear)
	assert.Equal(t, Confidence(1), sets[11].Confidence)
	assert.Equal(t, Confidence(2), sets[12].Confidence)
}

func TestApplyExternalSignal(t *testing.T) {
	adj := DefaultGoldAdjustment()

	tests := []struct {
		name   string
		base   float64
		signal float64
		want   float64
	}{
		{"at baseline", 100, 2000, 100},
		{"ten percent up", 100, 2200, 103},
		{"ten percent down", 100, 1800, 97},
		{"capped up", 100, 4000, 115},
		{"capped down", 100, 0, 85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyExternalSignal(tt.base, tt.signal, adj)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := ApplyExternalSignal(-1, 2000, adj)
	assert.Error(t, err)

	_, err = ApplyExternalSignal(100, 2000, SignalAdjustment{Baseline: 0, Correlation: 0.3, MaxAdjustmentFraction: 0.15})
	var invalid *models.InvalidInputError
	assert.True(t, errors.As(err, &invalid))
}

func TestProjectWithSignals(t *testing.T) {
	opts := DefaultSignalOptions()

	sets, err := ProjectWithSignals(latestCost, 0.02, 3, 2025, Signals{GoldPrice: 2000.50}, opts)
	require.NoError(t, err)
	require.Len(t, sets, 3)

	for _, set := range sets {
		p := set.Projections
		assert.Less(t, p[models.ScenarioConservative], p[models.ScenarioRealistic])
		assert.Less(t, p[models.ScenarioRealistic], p[models.ScenarioOptimistic])
	}

	// an unavailable signal falls back to the baseline, which leaves the base untouched
	neutral, err := ProjectWithSignals(latestCost, 0.02, 1, 2025, Signals{}, opts)
	require.NoError(t, err)
	plain, err := ProjectYears(latestCost, 0.02, 1, 2025)
	require.NoError(t, err)
	assert.InDelta(t, plain[0].Projections[models.ScenarioRealistic], neutral[0].Projections[models.ScenarioRealistic], 1e-6)
}

func TestProjectWithSignals_CurrencyExposure(t *testing.T) {
	opts := DefaultSignalOptions()
	without, err := ProjectWithSignals(latestCost, 0.02, 1, 2025, Signals{GoldPrice: 2000, ExchangeRate: 16500}, opts)
	require.NoError(t, err)

	opts.Currency.Correlation = 0.5
	with, err := ProjectWithSignals(latestCost, 0.02, 1, 2025, Signals{GoldPrice: 2000, ExchangeRate: 16500}, opts)
	require.NoError(t, err)

	// 10% weaker rupiah at 0.5 exposure lifts the base by 5%
	assert.InDelta(t,
		without[0].Projections[models.ScenarioRealistic]*1.05,
		with[0].Projections[models.ScenarioRealistic],
		1e-3)
}

func TestFitPolynomial(t *testing.T) {
	points := []models.GrowthPoint{
		{Year: 2000, Cost: 1},
		{Year: 2001, Cost: 4},
		{Year: 2002, Cost: 9},
		{Year: 2003, Cost: 16},
	}
	// cost = (year - 1999)^2
	model, err := FitPolynomial(points, 2)
	require.NoError(t, err)

	assert.InDelta(t, 25, model.Predict(2004), 1e-6)
	assert.InDelta(t, 0, model.Predict(1999), 1e-6)

	_, err = FitPolynomial(points[:2], 2)
	var insufficient *models.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}

func TestFitPolynomial_HistoricalSeries(t *testing.T) {
	series := analysis.ComputeGrowthSeries(dataset.Default())
	model, err := FitPolynomial(series.Points, 2)
	require.NoError(t, err)

	// the quadratic captures the post-2023 level and keeps climbing
	assert.Greater(t, model.Predict(2026), model.Predict(2016))
	assert.Len(t, model.Coefficients, 3)
}

func TestEnsemble(t *testing.T) {
	got, err := Ensemble(100, 200, 300, DefaultWeights())
	require.NoError(t, err)
	assert.InDelta(t, 180, got, 1e-9)

	_, err = Ensemble(100, 200, 300, Weights{ML: 0.5, Conservative: 0.5, Optimistic: 0.5})
	assert.Error(t, err)
}

func TestEnsembleForecast(t *testing.T) {
	ds := dataset.Default()
	series := analysis.ComputeGrowthSeries(ds)
	model, err := FitPolynomial(series.Points, 2)
	require.NoError(t, err)

	points, err := EnsembleForecast(latestCost, 2025, model, 0.024, 5, DefaultWeights())
	require.NoError(t, err)
	require.Len(t, points, 5)

	for i, p := range points {
		assert.Equal(t, 2026+i, p.Year)
		assert.Greater(t, p.Conservative, p.Optimistic, "optimistic assumes slower growth")
		want := p.MLPrediction*0.4 + p.Conservative*0.4 + p.Optimistic*0.2
		assert.InDelta(t, want, p.Ensemble, 1e-6)
	}

	_, err = EnsembleForecast(latestCost, 2025, nil, 0.024, 5, DefaultWeights())
	assert.Error(t, err)
}

func TestProjectYears_Idempotent(t *testing.T) {
	a, err := ProjectYears(latestCost, 0.0195, 5, 2025)
	require.NoError(t, err)
	b, err := ProjectYears(latestCost, 0.0195, 5, 2025)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
