package knowledge

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bpih-platform/internal/analysis"
	"bpih-platform/internal/breakdown"
	"bpih-platform/internal/dataset"
	"bpih-platform/internal/models"
	"bpih-platform/internal/regional"
)

var rupiahPrinter = message.NewPrinter(language.English)

// Base is the precomputed material the rules render from. Every figure comes
// from the dataset and the analyzer.
type Base struct {
	Records  []models.YearRecord
	Summary  analysis.GrowthSummary
	Latest   models.YearRecord
	Regional []models.RegionalDifference
	Shares   breakdown.ShareTable
	// Surge is the largest anomalous transition, if any
	Surge *models.GrowthRate
}

// NewBase analyzes the dataset once so retrieval stays a pure string assembly
func NewBase(ds *dataset.Dataset, analyzer *analysis.Analyzer) (*Base, error) {
	summary, err := analyzer.Summarize(ds)
	if err != nil {
		return nil, fmt.Errorf("summarize dataset: %w", err)
	}

	latest, err := ds.LatestYear()
	if err != nil {
		return nil, err
	}

	diffs, err := regional.Compare(latest)
	if err != nil {
		return nil, fmt.Errorf("compare regions %d: %w", latest.Year, err)
	}

	b := &Base{
		Records:  ds.Records(),
		Summary:  summary,
		Latest:   latest,
		Regional: regional.Ordered(diffs),
		Shares:   breakdown.DefaultShareTable(),
	}

	for i := range summary.AnomalousRates {
		r := summary.AnomalousRates[i]
		if b.Surge == nil || math.Abs(r.Rate) > math.Abs(b.Surge.Rate) {
			b.Surge = &r
		}
	}

	return b, nil
}

// Cost returns the national average for a year, or 0 if it is not in the base
func (b *Base) Cost(year int) float64 {
	for _, r := range b.Records {
		if r.Year == year {
			return r.NationalAverage
		}
	}
	return 0
}

// Cheapest and Priciest return the extreme regions of the latest year
func (b *Base) Cheapest() models.RegionalDifference {
	return b.extreme(func(a, c float64) bool { return a < c })
}

func (b *Base) Priciest() models.RegionalDifference {
	return b.extreme(func(a, c float64) bool { return a > c })
}

func (b *Base) extreme(better func(a, c float64) bool) models.RegionalDifference {
	var best models.RegionalDifference
	for i, d := range b.Regional {
		if i == 0 || better(d.DifferencePercentage, best.DifferencePercentage) {
			best = d
		}
	}
	return best
}

// FormatRupiah renders an amount as "Rp 88,458,765"
func FormatRupiah(amount float64) string {
	return "Rp " + rupiahPrinter.Sprintf("%d", int64(math.Round(amount)))
}

// FormatMillions renders an amount as "Rp 88.5 juta"
func FormatMillions(amount float64) string {
	return fmt.Sprintf("Rp %.1f juta", amount/1e6)
}

func percent(rate float64) string {
	return fmt.Sprintf("%+.1f%%", rate*100)
}
