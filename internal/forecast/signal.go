package forecast

import (
	"math"

	"bpih-platform/internal/models"
)

// Reference values the external signals are measured against
const (
	DefaultGoldBaseline     = 2000.0
	DefaultGoldCorrelation  = 0.3
	DefaultMaxAdjustment    = 0.15
	DefaultExchangeBaseline = 15000.0

	conservativeSignalFactor = 0.95
	optimisticSignalFactor   = 1.05
)

// SignalAdjustment is the bounded sensitivity of total cost to one external
// indicator. The adjustment never exceeds MaxAdjustmentFraction of the base cost.
type SignalAdjustment struct {
	Baseline              float64 `json:"baseline" yaml:"baseline"`
	Correlation           float64 `json:"correlation" yaml:"correlation"`
	MaxAdjustmentFraction float64 `json:"max_adjustment_fraction" yaml:"max_adjustment_fraction"`
}

// DefaultGoldAdjustment is the commodity-price sensitivity used by the scenarios
func DefaultGoldAdjustment() SignalAdjustment {
	return SignalAdjustment{
		Baseline:              DefaultGoldBaseline,
		Correlation:           DefaultGoldCorrelation,
		MaxAdjustmentFraction: DefaultMaxAdjustment,
	}
}

// DefaultCurrencyAdjustment keeps the exchange rate neutral (zero correlation)
// until an exposure is configured
func DefaultCurrencyAdjustment() SignalAdjustment {
	return SignalAdjustment{
		Baseline:              DefaultExchangeBaseline,
		Correlation:           0,
		MaxAdjustmentFraction: DefaultMaxAdjustment,
	}
}

// ApplyExternalSignal shifts the base cost by |base * delta * correlation|,
// capped at base * MaxAdjustmentFraction, in the direction of delta.
func ApplyExternalSignal(baseCost, signal float64, adj SignalAdjustment) (float64, error) {
	if baseCost < 0 {
		return 0, &models.InvalidInputError{
			Field:   "base_cost",
			Value:   baseCost,
			Message: "base cost must not be negative",
		}
	}
	if adj.Baseline <= 0 {
		return 0, &models.InvalidInputError{
			Field:   "signal_baseline",
			Value:   adj.Baseline,
			Message: "signal baseline must be positive",
		}
	}

	delta := (signal - adj.Baseline) / adj.Baseline
	limit := math.Max(baseCost*adj.MaxAdjustmentFraction, 0)
	adjustment := math.Min(math.Abs(baseCost*delta*adj.Correlation), limit)

	if delta > 0 {
		return baseCost + adjustment, nil
	}
	return baseCost - adjustment, nil
}

// Signals are the optional external inputs. A non-positive value means the
// signal was unavailable and the configured baseline is used instead.
type Signals struct {
	GoldPrice    float64 `json:"gold_price"`
	ExchangeRate float64 `json:"exchange_rate"`
}

// SignalOptions configures the external-signal variant of the scenario projection
type SignalOptions struct {
	Gold     SignalAdjustment
	Currency SignalAdjustment
}

// DefaultSignalOptions returns the gold sensitivity and a neutral currency exposure
func DefaultSignalOptions() SignalOptions {
	return SignalOptions{
		Gold:     DefaultGoldAdjustment(),
		Currency: DefaultCurrencyAdjustment(),
	}
}

// ProjectWithSignals is ProjectYears where each scenario starts from a
// signal-adjusted base: the conservative case sees the gold price 5% lower and
// the optimistic case 5% higher before the correlation adjustment.
func ProjectWithSignals(baseCost, rate float64, yearsAhead, baseYear int, signals Signals, opts SignalOptions) ([]models.ScenarioSet, error) {
	if err := validateProjection(baseCost, float64(yearsAhead), "years_ahead"); err != nil {
		return nil, err
	}

	gold := signals.GoldPrice
	if gold <= 0 {
		gold = opts.Gold.Baseline
	}
	exchange := signals.ExchangeRate
	if exchange <= 0 {
		exchange = opts.Currency.Baseline
	}

	starts := make(map[models.ScenarioName]float64, 3)
	goldFactors := map[models.ScenarioName]float64{
		models.ScenarioConservative: conservativeSignalFactor,
		models.ScenarioRealistic:    1,
		models.ScenarioOptimistic:   optimisticSignalFactor,
	}
	for name, factor := range goldFactors {
		start, err := ApplyExternalSignal(baseCost, gold*factor, opts.Gold)
		if err != nil {
			return nil, err
		}
		if opts.Currency.Correlation != 0 {
			start, err = ApplyExternalSignal(start, exchange, opts.Currency)
			if err != nil {
				return nil, err
			}
		}
		starts[name] = start
	}

	sets := make([]models.ScenarioSet, 0, yearsAhead)
	for h := 1; h <= yearsAhead; h++ {
		exp := float64(h)
		sets = append(sets, models.ScenarioSet{
			Horizon:    h,
			TargetYear: baseYear + h,
			Projections: map[models.ScenarioName]float64{
				models.ScenarioConservative: compound(starts[models.ScenarioConservative], rate*ConservativeGrowthFactor, exp),
				models.ScenarioRealistic:    compound(starts[models.ScenarioRealistic], rate, exp),
				models.ScenarioOptimistic:   compound(starts[models.ScenarioOptimistic], rate*OptimisticGrowthFactor, exp),
			},
			Confidence: Confidence(h),
			GrowthRate: rate,
		})
	}

	return sets, nil
}
