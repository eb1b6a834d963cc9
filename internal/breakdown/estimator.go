package breakdown

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"bpih-platform/internal/models"
)

// Component is one cost line of a pilgrim's total
type Component string

const (
	ComponentFlight         Component = "flight"
	ComponentMakkahLodging  Component = "makkah_lodging"
	ComponentMadinahLodging Component = "madinah_lodging"
	ComponentLivingCost     Component = "living_cost"
	ComponentServices       Component = "hajj_services"
	ComponentLocalTransport Component = "local_transport"
	ComponentAdministration Component = "administration"
)

// Share is the fraction of the total attributed to a component
type Share struct {
	Component Component `json:"component"`
	Share     float64   `json:"share"`
}

// ShareTable is an ordered list of component shares. Allocation keeps the
// table order and breaks rounding ties in favor of earlier components.
type ShareTable []Share

const shareTolerance = 1e-9

// amountPlaces is the rupiah precision allocations are rounded to
const amountPlaces = 2

// DefaultShareTable returns the fixed Keppres-derived component split
func DefaultShareTable() ShareTable {
	return ShareTable{
		{ComponentFlight, 0.28},
		{ComponentMakkahLodging, 0.23},
		{ComponentMadinahLodging, 0.17},
		{ComponentLivingCost, 0.12},
		{ComponentServices, 0.10},
		{ComponentLocalTransport, 0.07},
		{ComponentAdministration, 0.03},
	}
}

// Validate checks that the shares are non-negative, unique and sum to 1
func (t ShareTable) Validate() error {
	if len(t) == 0 {
		return &models.InvalidShareTableError{Message: "share table is empty"}
	}

	seen := make(map[Component]struct{}, len(t))
	sum := 0.0
	for _, s := range t {
		if s.Share < 0 || math.IsNaN(s.Share) {
			return &models.InvalidShareTableError{Sum: sum, Message: fmt.Sprintf("share for %s must not be negative", s.Component)}
		}
		if _, dup := seen[s.Component]; dup {
			return &models.InvalidShareTableError{Sum: sum, Message: fmt.Sprintf("component %s listed twice", s.Component)}
		}
		seen[s.Component] = struct{}{}
		sum += s.Share
	}

	if math.Abs(sum-1) > shareTolerance {
		return &models.InvalidShareTableError{Sum: sum, Message: "shares must sum to 1"}
	}
	return nil
}

// Item is one allocated line
type Item struct {
	Component Component       `json:"component"`
	Share     float64         `json:"share"`
	Amount    decimal.Decimal `json:"amount"`
}

// Breakdown is a total split across components, in table order
type Breakdown struct {
	Total decimal.Decimal `json:"total"`
	Items []Item          `json:"items"`
}

// Amounts returns the allocation keyed by component
func (b Breakdown) Amounts() map[Component]float64 {
	out := make(map[Component]float64, len(b.Items))
	for _, item := range b.Items {
		out[item.Component] = item.Amount.InexactFloat64()
	}
	return out
}

// Allocate splits total across the table. Each line is truncated to whole
// cents and the leftover cents go to the lines with the largest truncated
// remainders, so no line is negative and the items add up to the total exactly.
// Sub-cent precision in the total itself lands on the largest share.
func Allocate(total float64, table ShareTable) (Breakdown, error) {
	if total < 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return Breakdown{}, &models.InvalidInputError{
			Field:   "total",
			Value:   total,
			Message: "total must be a finite non-negative amount",
		}
	}
	if err := table.Validate(); err != nil {
		return Breakdown{}, err
	}

	totalAmount := decimal.NewFromFloat(total)
	cent := decimal.New(1, -amountPlaces)
	items := make([]Item, len(table))
	remainders := make([]decimal.Decimal, len(table))
	allocated := decimal.Zero
	largest := 0

	for i, s := range table {
		exact := totalAmount.Mul(decimal.NewFromFloat(s.Share))
		amount := exact.Truncate(amountPlaces)
		items[i] = Item{Component: s.Component, Share: s.Share, Amount: amount}
		remainders[i] = exact.Sub(amount)
		allocated = allocated.Add(amount)
		if s.Share > table[largest].Share {
			largest = i
		}
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})

	leftover := totalAmount.Sub(allocated)
	cents := leftover.Div(cent).Truncate(0).IntPart()
	for k := int64(0); k < cents; k++ {
		i := order[k%int64(len(order))]
		items[i].Amount = items[i].Amount.Add(cent)
	}
	if rest := leftover.Sub(cent.Mul(decimal.NewFromInt(cents))); !rest.IsZero() {
		items[largest].Amount = items[largest].Amount.Add(rest)
	}

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount)
	}
	if !sum.Equal(totalAmount) {
		return Breakdown{}, fmt.Errorf("allocation of %s does not add up: got %s", totalAmount, sum)
	}

	return Breakdown{Total: totalAmount, Items: items}, nil
}
