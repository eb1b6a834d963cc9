package forecast

import (
	"math"

	"bpih-platform/internal/models"
)

// Scenario growth multipliers applied to the normal growth rate
const (
	ConservativeGrowthFactor = 0.7
	OptimisticGrowthFactor   = 1.3
)

// Confidence decays by ten points per year ahead and never drops below 40
const (
	baseConfidence  = 85.0
	confidenceDecay = 10.0
	confidenceFloor = 40.0
)

const monthsPerYear = 12

// Confidence returns the confidence score (percent) for a horizon in years
func Confidence(yearsAhead int) float64 {
	return math.Max(baseConfidence-float64(yearsAhead)*confidenceDecay, confidenceFloor)
}

// ProjectYears compounds the base cost forward for every horizon 1..yearsAhead.
// Realistic uses the rate as given; Conservative and Optimistic scale it by 0.7
// and 1.3, so the three cross over when the rate turns negative.
func ProjectYears(baseCost, rate float64, yearsAhead, baseYear int) ([]models.ScenarioSet, error) {
	if err := validateProjection(baseCost, float64(yearsAhead), "years_ahead"); err != nil {
		return nil, err
	}

	sets := make([]models.ScenarioSet, 0, yearsAhead)
	for h := 1; h <= yearsAhead; h++ {
		exp := float64(h)
		sets = append(sets, models.ScenarioSet{
			Horizon:    h,
			TargetYear: baseYear + h,
			Projections: map[models.ScenarioName]float64{
				models.ScenarioConservative: compound(baseCost, rate*ConservativeGrowthFactor, exp),
				models.ScenarioRealistic:    compound(baseCost, rate, exp),
				models.ScenarioOptimistic:   compound(baseCost, rate*OptimisticGrowthFactor, exp),
			},
			Confidence: Confidence(h),
			GrowthRate: rate,
		})
	}

	return sets, nil
}

// ProjectMonths is ProjectYears on a monthly grid. The exponent is m/12 and the
// confidence uses the number of started years. TargetYear is the year the month
// falls in.
func ProjectMonths(baseCost, rate float64, monthsAhead, baseYear int) ([]models.ScenarioSet, error) {
	if err := validateProjection(baseCost, float64(monthsAhead), "months_ahead"); err != nil {
		return nil, err
	}

	sets := make([]models.ScenarioSet, 0, monthsAhead)
	for m := 1; m <= monthsAhead; m++ {
		exp := float64(m) / monthsPerYear
		yearsStarted := (m + monthsPerYear - 1) / monthsPerYear
		sets = append(sets, models.ScenarioSet{
			Horizon:    m,
			TargetYear: baseYear + yearsStarted,
			Projections: map[models.ScenarioName]float64{
				models.ScenarioConservative: compound(baseCost, rate*ConservativeGrowthFactor, exp),
				models.ScenarioRealistic:    compound(baseCost, rate, exp),
				models.ScenarioOptimistic:   compound(baseCost, rate*OptimisticGrowthFactor, exp),
			},
			Confidence: Confidence(yearsStarted),
			GrowthRate: rate,
		})
	}

	return sets, nil
}

// ProjectRealistic returns only the realistic figure for a single horizon
func ProjectRealistic(baseCost, rate float64, yearsAhead int) (float64, error) {
	if err := validateProjection(baseCost, float64(yearsAhead), "years_ahead"); err != nil {
		return 0, err
	}
	return compound(baseCost, rate, float64(yearsAhead)), nil
}

func compound(base, rate, periods float64) float64 {
	return base * math.Pow(1+rate, periods)
}

func validateProjection(baseCost, horizon float64, horizonField string) error {
	if horizon <= 0 {
		return &models.InvalidInputError{
			Field:   horizonField,
			Value:   horizon,
			Message: "forecast horizon must be at least 1",
		}
	}
	if baseCost < 0 || math.IsNaN(baseCost) {
		return &models.InvalidInputError{
			Field:   "base_cost",
			Value:   baseCost,
			Message: "base cost must not be negative",
		}
	}
	return nil
}
