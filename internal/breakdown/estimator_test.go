package breakdown

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpih-platform/internal/models"
)

func TestDefaultShareTable(t *testing.T) {
	table := DefaultShareTable()
	require.NoError(t, table.Validate())
	require.Len(t, table, 7)
	assert.Equal(t, ComponentFlight, table[0].Component)
	assert.Equal(t, ComponentAdministration, table[6].Component)
}

func TestAllocate_SumsToTotal(t *testing.T) {
	totals := []float64{0, 1, 90193440.33, 88458765, 123456789.987}

	for _, total := range totals {
		b, err := Allocate(total, DefaultShareTable())
		require.NoError(t, err)
		require.Len(t, b.Items, 7)

		sum := decimal.Zero
		for _, item := range b.Items {
			sum = sum.Add(item.Amount)
		}
		assert.True(t, sum.Equal(b.Total), "total %v: items sum to %s", total, sum)
		assert.InDelta(t, total, sum.InexactFloat64(), 1e-6)
	}
}

func TestAllocate_Shares(t *testing.T) {
	b, err := Allocate(100_000_000, DefaultShareTable())
	require.NoError(t, err)

	amounts := b.Amounts()
	assert.InDelta(t, 28_000_000, amounts[ComponentFlight], 1e-6)
	assert.InDelta(t, 23_000_000, amounts[ComponentMakkahLodging], 1e-6)
	assert.InDelta(t, 17_000_000, amounts[ComponentMadinahLodging], 1e-6)
	assert.InDelta(t, 3_000_000, amounts[ComponentAdministration], 1e-6)
}

func TestAllocate_LeftoverCentsByLargestRemainder(t *testing.T) {
	table := ShareTable{{"a", 1.0 / 3}, {"b", 1.0 / 3}, {"c", 1.0 / 3}}
	// a share of 1/3 within float tolerance of the whole
	require.NoError(t, table.Validate())

	b, err := Allocate(100, table)
	require.NoError(t, err)
	assert.Equal(t, "33.34", b.Items[0].Amount.String())
	assert.Equal(t, "33.33", b.Items[1].Amount.String())
	assert.Equal(t, "33.33", b.Items[2].Amount.String())
}

func TestAllocate_SmallTotalsNeverNegative(t *testing.T) {
	tables := map[string]ShareTable{
		"default":    DefaultShareTable(),
		"zero_last":  {{"a", 0.5}, {"b", 0.5}, {"c", 0}},
		"tiny_last":  {{"a", 0.499}, {"b", 0.499}, {"c", 0.002}},
		"single_all": {{"a", 1}},
	}
	totals := []float64{0.01, 0.03, 0.09, 0.5, 0.9, 1.23, 0.999, 100}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			for _, total := range totals {
				b, err := Allocate(total, table)
				require.NoError(t, err)

				sum := decimal.Zero
				for _, item := range b.Items {
					assert.False(t, item.Amount.IsNegative(), "total %v: %s = %s", total, item.Component, item.Amount)
					sum = sum.Add(item.Amount)
				}
				assert.True(t, sum.Equal(b.Total), "total %v: items sum to %s", total, sum)
			}
		})
	}

	b, err := Allocate(0.09, DefaultShareTable())
	require.NoError(t, err)
	amounts := b.Amounts()
	assert.InDelta(t, 0.0, amounts[ComponentAdministration], 1e-9)
	assert.InDelta(t, 0.01, amounts[ComponentServices], 1e-9)
	assert.InDelta(t, 0.02, amounts[ComponentMadinahLodging], 1e-9)
}

func TestAllocate_InvalidTotal(t *testing.T) {
	_, err := Allocate(-1, DefaultShareTable())
	var invalid *models.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "total", invalid.Field)
}

func TestShareTable_Validate(t *testing.T) {
	tests := []struct {
		name  string
		table ShareTable
	}{
		{"empty", ShareTable{}},
		{"short", ShareTable{{"a", 0.5}, {"b", 0.4}}},
		{"over", ShareTable{{"a", 0.7}, {"b", 0.4}}},
		{"negative", ShareTable{{"a", 1.2}, {"b", -0.2}}},
		{"duplicate", ShareTable{{"a", 0.5}, {"a", 0.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			var invalid *models.InvalidShareTableError
			assert.True(t, errors.As(err, &invalid))

			_, err = Allocate(100, tt.table)
			assert.True(t, errors.As(err, &invalid))
		})
	}
}
