package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpih-platform/internal/models"
)

func TestDefault_KnownYears(t *testing.T) {
	ds := Default()

	assert.Equal(t, []int{2016, 2017, 2018, 2019, 2020, 2022, 2023, 2024, 2025}, ds.AllYears())
	assert.Equal(t, 9, ds.Len())
	assert.False(t, ds.Has(2021), "no cost was published for 2021")
}

func TestDataset_Get(t *testing.T) {
	ds := Default()

	tests := []struct {
		name    string
		year    int
		wantAvg float64
		wantErr bool
	}{
		{name: "first year", year: 2016, wantAvg: 34152912},
		{name: "surge year", year: 2023, wantAvg: 90040973},
		{name: "latest year", year: 2025, wantAvg: 88458765},
		{name: "gap year", year: 2021, wantErr: true},
		{name: "future year", year: 2030, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ds.Get(tt.year)
			if tt.wantErr {
				var missing *models.MissingYearError
				require.True(t, errors.As(err, &missing))
				assert.Equal(t, tt.year, missing.Year)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAvg, rec.NationalAverage)
			assert.Len(t, rec.RegionalCosts, 5)
		})
	}
}

func TestDataset_LatestYear(t *testing.T) {
	rec, err := Default().LatestYear()
	require.NoError(t, err)
	assert.Equal(t, 2025, rec.Year)
	assert.Equal(t, "1446H", rec.HijriLabel)

	empty, err := New(nil)
	require.NoError(t, err)
	_, err = empty.LatestYear()
	assert.Error(t, err)
}

func TestNew_SortsAndRejectsDuplicates(t *testing.T) {
	records := Keppres()
	reversed := make([]models.YearRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}

	ds, err := New(reversed)
	require.NoError(t, err)
	assert.Equal(t, Default().AllYears(), ds.AllYears())

	_, err = New(append(records, records[0]))
	var invalid *models.InvalidInputError
	assert.True(t, errors.As(err, &invalid))
}

func TestDataset_Immutable(t *testing.T) {
	ds := Default()

	rec, err := ds.Get(2025)
	require.NoError(t, err)
	rec.RegionalCosts[models.RegionAceh] = 1
	rec.NationalAverage = 1

	again, err := ds.Get(2025)
	require.NoError(t, err)
	assert.Equal(t, 80900841.0, again.RegionalCosts[models.RegionAceh])
	assert.Equal(t, 88458765.0, again.NationalAverage)

	years := ds.AllYears()
	years[0] = 1999
	assert.Equal(t, 2016, ds.AllYears()[0])
}

func TestKeppres_AverageCloseToRegionalMean(t *testing.T) {
	for _, rec := range Keppres() {
		mean := rec.RegionalMean()
		diff := (mean - rec.NationalAverage) / rec.NationalAverage
		assert.InDelta(t, 0, diff, 0.02, "year %d", rec.Year)
	}
}
