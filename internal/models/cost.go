package models

import (
	"math"
	"sort"
)

// Region identifies one of the five embarkation points (embarkasi) that the
// presidential decrees publish a cost for
type Region string

const (
	RegionAceh     Region = "aceh"
	RegionMedan    Region = "medan"
	RegionJakarta  Region = "jakarta"
	RegionSurabaya Region = "surabaya"
	RegionMakassar Region = "makassar"
)

// AllRegions returns the closed region set in display order
func AllRegions() []Region {
	return []Region{RegionAceh, RegionMedan, RegionJakarta, RegionSurabaya, RegionMakassar}
}

// ParseRegion validates a region identifier
func ParseRegion(s string) (Region, bool) {
	for _, r := range AllRegions() {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// YearRecord represents the published BPIH figures for one Gregorian year
type YearRecord struct {
	Year            int                `json:"year" db:"year"`
	HijriLabel      string             `json:"hijri_label" db:"hijri_label"`
	Decree          string             `json:"decree,omitempty" db:"decree"`
	RegionalCosts   map[Region]float64 `json:"regional_costs"`
	NationalAverage float64            `json:"national_average" db:"national_average"`
}

// Clone returns a deep copy so callers can never mutate a shared record
func (r YearRecord) Clone() YearRecord {
	out := r
	out.RegionalCosts = make(map[Region]float64, len(r.RegionalCosts))
	for k, v := range r.RegionalCosts {
		out.RegionalCosts[k] = v
	}
	return out
}

// RegionalMean is the plain mean of the regional figures. The decree publishes
// NationalAverage independently, so the two only agree approximately.
func (r YearRecord) RegionalMean() float64 {
	if len(r.RegionalCosts) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range r.RegionalCosts {
		sum += v
	}
	return sum / float64(len(r.RegionalCosts))
}

// GrowthPoint is one (year, national average) observation
type GrowthPoint struct {
	Year int     `json:"year"`
	Cost float64 `json:"cost"`
}

// GrowthRate is the simple change between two adjacent years present in the data.
// The rate spans whatever year gap exists and is not normalized per annum.
type GrowthRate struct {
	FromYear int     `json:"from_year"`
	ToYear   int     `json:"to_year"`
	Rate     float64 `json:"rate"`
}

// GrowthSeries holds the ascending points and the year-over-year rates derived from them
type GrowthSeries struct {
	Points []GrowthPoint `json:"points"`
	Rates  []GrowthRate  `json:"yoy_growth_rates"`
}

// RateValues flattens the rates for statistics
func RateValues(rates []GrowthRate) []float64 {
	out := make([]float64, len(rates))
	for i, r := range rates {
		out[i] = r.Rate
	}
	return out
}

// TrendFit is a least-squares line cost ≈ Slope*index + Intercept over an
// explicit year subset, where index is the 0-based position inside that subset
type TrendFit struct {
	Years            []int   `json:"years"`
	Slope            float64 `json:"slope"`
	Intercept        float64 `json:"intercept"`
	MeanCost         float64 `json:"mean_cost"`
	AnnualGrowthRate float64 `json:"annual_growth_rate"`
}

// ScenarioName is one of the three projection scenarios
type ScenarioName string

const (
	ScenarioConservative ScenarioName = "Conservative"
	ScenarioRealistic    ScenarioName = "Realistic"
	ScenarioOptimistic   ScenarioName = "Optimistic"
)

// AllScenarios returns the closed scenario set in display order
func AllScenarios() []ScenarioName {
	return []ScenarioName{ScenarioConservative, ScenarioRealistic, ScenarioOptimistic}
}

// ScenarioSet is the projection for a single horizon
type ScenarioSet struct {
	Horizon     int                      `json:"horizon"`
	TargetYear  int                      `json:"target_year"`
	Projections map[ScenarioName]float64 `json:"projections"`
	Confidence  float64                  `json:"confidence"`
	GrowthRate  float64                  `json:"growth_rate"`
}

// Category classifies a region's cost against the national average
type Category string

const (
	CategoryExpensive Category = "Expensive"
	CategoryNormal    Category = "Normal"
	CategoryCheap     Category = "Cheap"
)

// RegionalDifference describes one region against the national average for a year
type RegionalDifference struct {
	Region               Region   `json:"region"`
	Cost                 float64  `json:"cost"`
	DifferenceAmount     float64  `json:"difference_amount"`
	DifferencePercentage float64  `json:"difference_percentage"`
	Category             Category `json:"category"`
}

// SortedYears returns the keys of a year-indexed map in ascending order
func SortedYears[V any](m map[int]V) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// AlmostEqual compares two floats with an absolute tolerance
func AlmostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
