package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"bpih-platform/internal/models"
)

// PolynomialModel is a least-squares polynomial of cost against calendar year.
// Years are centered before fitting; Coefficients are in the centered variable,
// lowest power first.
type PolynomialModel struct {
	Degree       int       `json:"degree"`
	Center       float64   `json:"center"`
	Coefficients []float64 `json:"coefficients"`
}

// FitPolynomial fits cost = Σ c_k (year - center)^k over every point given.
// It ignores any normal/anomaly split.
func FitPolynomial(points []models.GrowthPoint, degree int) (*PolynomialModel, error) {
	if degree < 0 {
		return nil, &models.InvalidInputError{Field: "degree", Value: float64(degree), Message: "degree must not be negative"}
	}
	if len(points) < degree+1 {
		return nil, &models.InsufficientDataError{
			Operation: fmt.Sprintf("degree-%d polynomial fit", degree),
			Required:  degree + 1,
			Available: len(points),
		}
	}

	center := 0.0
	for _, p := range points {
		center += float64(p.Year)
	}
	center /= float64(len(points))

	design := mat.NewDense(len(points), degree+1, nil)
	costs := mat.NewVecDense(len(points), nil)
	for i, p := range points {
		x := float64(p.Year) - center
		v := 1.0
		for k := 0; k <= degree; k++ {
			design.Set(i, k, v)
			v *= x
		}
		costs.SetVec(i, p.Cost)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, costs); err != nil {
		return nil, fmt.Errorf("polynomial fit: %w", err)
	}

	model := &PolynomialModel{
		Degree:       degree,
		Center:       center,
		Coefficients: make([]float64, degree+1),
	}
	for k := 0; k <= degree; k++ {
		model.Coefficients[k] = coef.AtVec(k)
	}
	return model, nil
}

// Predict evaluates the polynomial at a calendar year
func (m *PolynomialModel) Predict(year int) float64 {
	x := float64(year) - m.Center
	y := 0.0
	for k := len(m.Coefficients) - 1; k >= 0; k-- {
		y = y*x + m.Coefficients[k]
	}
	return y
}

// Weights blend the regression estimate with the two growth bounds
type Weights struct {
	ML           float64 `json:"ml"`
	Conservative float64 `json:"conservative"`
	Optimistic   float64 `json:"optimistic"`
}

// DefaultWeights is the 0.4 / 0.4 / 0.2 blend
func DefaultWeights() Weights {
	return Weights{ML: 0.4, Conservative: 0.4, Optimistic: 0.2}
}

const weightTolerance = 1e-9

// Ensemble returns the weighted sum of the three estimates
func Ensemble(ml, conservative, optimistic float64, w Weights) (float64, error) {
	sum := w.ML + w.Conservative + w.Optimistic
	if math.Abs(sum-1) > weightTolerance {
		return 0, &models.InvalidInputError{Field: "ensemble_weights", Value: sum, Message: "weights must sum to 1"}
	}
	return ml*w.ML + conservative*w.Conservative + optimistic*w.Optimistic, nil
}

// EnsemblePoint is one projected year of the regression-assisted forecast
type EnsemblePoint struct {
	Year         int     `json:"year"`
	MLPrediction float64 `json:"ml_prediction"`
	Conservative float64 `json:"conservative"`
	Optimistic   float64 `json:"optimistic"`
	Ensemble     float64 `json:"ensemble"`
	Confidence   float64 `json:"confidence"`
}

// optimisticEnsembleFactor assumes a gradual normalization, i.e. slower growth
const optimisticEnsembleFactor = 0.8

// EnsembleForecast projects yearsAhead years past baseYear. The conservative
// bound compounds growthRate, the optimistic bound 0.8 of it, and each year is
// blended with the polynomial prediction.
func EnsembleForecast(baseCost float64, baseYear int, model *PolynomialModel, growthRate float64, yearsAhead int, w Weights) ([]EnsemblePoint, error) {
	if err := validateProjection(baseCost, float64(yearsAhead), "years_ahead"); err != nil {
		return nil, err
	}
	if model == nil {
		return nil, &models.InsufficientDataError{Operation: "ensemble forecast", Required: 1, Available: 0}
	}

	points := make([]EnsemblePoint, 0, yearsAhead)
	for h := 1; h <= yearsAhead; h++ {
		year := baseYear + h
		p := EnsemblePoint{
			Year:         year,
			MLPrediction: model.Predict(year),
			Conservative: compound(baseCost, growthRate, float64(h)),
			Optimistic:   compound(baseCost, growthRate*optimisticEnsembleFactor, float64(h)),
			Confidence:   Confidence(h),
		}
		blend, err := Ensemble(p.MLPrediction, p.Conservative, p.Optimistic, w)
		if err != nil {
			return nil, err
		}
		p.Ensemble = blend
		points = append(points, p)
	}

	return points, nil
}
