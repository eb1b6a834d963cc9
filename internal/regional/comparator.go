package regional

import (
	"bpih-platform/internal/models"
)

// CategoryThresholdPercent is the band around the national average that counts as Normal
const CategoryThresholdPercent = 5.0

// Compare classifies every region of the record against its national average
func Compare(record models.YearRecord) (map[models.Region]models.RegionalDifference, error) {
	return CompareRegions(record, models.AllRegions())
}

// CompareRegions classifies the requested regions only
func CompareRegions(record models.YearRecord, regions []models.Region) (map[models.Region]models.RegionalDifference, error) {
	average := record.NationalAverage
	if average <= 0 {
		return nil, &models.InvalidInputError{
			Field:   "national_average",
			Value:   average,
			Message: "national average must be positive",
		}
	}

	out := make(map[models.Region]models.RegionalDifference, len(regions))
	for _, region := range regions {
		cost, ok := record.RegionalCosts[region]
		if !ok {
			return nil, &models.MissingRegionError{Year: record.Year, Region: region}
		}

		diff := cost - average
		pct := diff / average * 100

		out[region] = models.RegionalDifference{
			Region:               region,
			Cost:                 cost,
			DifferenceAmount:     diff,
			DifferencePercentage: pct,
			Category:             Categorize(pct),
		}
	}

	return out, nil
}

// Categorize maps a percentage difference to its category. The boundaries
// themselves (exactly ±5%) are Normal.
func Categorize(differencePercentage float64) models.Category {
	switch {
	case differencePercentage > CategoryThresholdPercent:
		return models.CategoryExpensive
	case differencePercentage < -CategoryThresholdPercent:
		return models.CategoryCheap
	default:
		return models.CategoryNormal
	}
}

// Ordered returns the differences in display region order, skipping regions not in the map
func Ordered(diffs map[models.Region]models.RegionalDifference) []models.RegionalDifference {
	out := make([]models.RegionalDifference, 0, len(diffs))
	for _, region := range models.AllRegions() {
		if d, ok := diffs[region]; ok {
			out = append(out, d)
		}
	}
	return out
}
