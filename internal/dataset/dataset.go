package dataset

import (
	"fmt"

	"bpih-platform/internal/models"
)

// Dataset is the immutable, sparse-year table of published costs.
// Every accessor hands out copies; nothing inside can change after New.
type Dataset struct {
	byYear map[int]models.YearRecord
	years  []int
}

// New builds a dataset from the given records. Only duplicate years are
// rejected; figures are trusted as published.
func New(records []models.YearRecord) (*Dataset, error) {
	ds := &Dataset{byYear: make(map[int]models.YearRecord, len(records))}

	for _, r := range records {
		if _, exists := ds.byYear[r.Year]; exists {
			return nil, &models.InvalidInputError{
				Field:   "year",
				Value:   float64(r.Year),
				Message: fmt.Sprintf("duplicate record for year %d", r.Year),
			}
		}
		ds.byYear[r.Year] = r.Clone()
	}

	ds.years = models.SortedYears(ds.byYear)
	return ds, nil
}

// Default returns the dataset built from the compiled-in decree table
func Default() *Dataset {
	ds, err := New(Keppres())
	if err != nil {
		// the compiled-in table has unique years
		panic(err)
	}
	return ds
}

// Get returns the record for a year
func (d *Dataset) Get(year int) (models.YearRecord, error) {
	r, ok := d.byYear[year]
	if !ok {
		return models.YearRecord{}, &models.MissingYearError{Year: year}
	}
	return r.Clone(), nil
}

// Has reports whether a year is present
func (d *Dataset) Has(year int) bool {
	_, ok := d.byYear[year]
	return ok
}

// AllYears returns the years in ascending order
func (d *Dataset) AllYears() []int {
	out := make([]int, len(d.years))
	copy(out, d.years)
	return out
}

// Records returns every record in ascending year order
func (d *Dataset) Records() []models.YearRecord {
	out := make([]models.YearRecord, 0, len(d.years))
	for _, y := range d.years {
		out = append(out, d.byYear[y].Clone())
	}
	return out
}

// LatestYear returns the record with the greatest year
func (d *Dataset) LatestYear() (models.YearRecord, error) {
	if len(d.years) == 0 {
		return models.YearRecord{}, &models.MissingYearError{Year: 0}
	}
	return d.byYear[d.years[len(d.years)-1]].Clone(), nil
}

// Len returns the number of years in the dataset
func (d *Dataset) Len() int {
	return len(d.years)
}
