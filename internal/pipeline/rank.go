package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/budgetlens/budgetlens/internal/model"
)

// DefaultTopN is the number of entries kept by ranked charts.
const DefaultTopN = 5

// Activity accumulates gross activity (summed absolute amounts) per name.
// Entities sharing a display name merge into one entry.
type Activity struct {
	order []string
	sums  map[string]decimal.Decimal
}

// NewActivity returns an empty accumulator.
func NewActivity() *Activity {
	return &Activity{sums: make(map[string]decimal.Decimal)}
}

// Add records abs(raw) against name.
func (a *Activity) Add(name string, raw int64) {
	cur, ok := a.sums[name]
	if !ok {
		a.order = append(a.order, name)
	}
	a.sums[name] = cur.Add(Major(raw).Abs())
}

// Ranked is one name with its gross activity.
type Ranked struct {
	Name     string
	Activity decimal.Decimal
}

// Ranking returns every entry sorted by activity descending. Ties keep
// first-seen order.
func (a *Activity) Ranking() []Ranked {
	out := make([]Ranked, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, Ranked{Name: name, Activity: a.sums[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Activity.GreaterThan(out[j].Activity)
	})
	return out
}

// TopN returns the n most active names as chart slices plus a legend in the
// same order. The remainder is dropped.
func (a *Activity) TopN(n int) ([]model.PieSlice, []string) {
	ranked := a.Ranking()
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	slices := make([]model.PieSlice, 0, len(ranked))
	legend := make([]string, 0, len(ranked))
	for _, r := range ranked {
		slices = append(slices, model.PieSlice{Payee: r.Name, Activity: Round2(r.Activity)})
		legend = append(legend, r.Name)
	}
	return slices, legend
}

// PayeeActivity ranks the payees of a flat transaction list by gross activity.
// Each item counts once; split parents are not expanded.
func PayeeActivity(txns []model.Transaction) (*Activity, []model.Skip) {
	a := NewActivity()
	var skipped []model.Skip
	for _, t := range txns {
		if err := t.ValidateAmount(); err != nil {
			skipped = append(skipped, model.Skip{ID: t.ID, Err: err})
			continue
		}
		a.Add(orDefault(t.PayeeName, UnknownPayeeName), t.Amount)
	}
	return a, skipped
}
