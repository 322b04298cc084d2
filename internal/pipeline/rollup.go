package pipeline

import (
	"github.com/budgetlens/budgetlens/internal/model"
)

// Display names used when the upstream leaves an entity unnamed.
const (
	UncategorizedName  = "Uncategorized"
	UnknownPayeeName   = "Unknown"
	UnknownAccountName = "Unknown Account"
)

// Dimension selects the entity a rollup groups by.
type Dimension int

const (
	ByCategory Dimension = iota
	ByPayee
	ByAccount
)

// Units returns the financial units of a transaction: its subtransactions when
// it is split, otherwise the transaction itself.
func Units(t model.Transaction) []model.Transaction {
	if t.IsSplit() {
		return t.Subtransactions
	}
	return []model.Transaction{t}
}

// EntityTotals is the running income/expense of one entity.
type EntityTotals struct {
	ID   string
	Name string
	Note string
	Totals
}

// Rollup groups unit amounts by entity id, preserving first-seen order.
type Rollup struct {
	dim     Dimension
	order   []string
	entries map[string]*EntityTotals
	total   Totals
}

// NewRollup returns an empty rollup over dim.
func NewRollup(dim Dimension) *Rollup {
	return &Rollup{dim: dim, entries: make(map[string]*EntityTotals)}
}

// Add folds one unit in. It returns false when the unit has no id for the
// rollup's dimension and was left out.
func (r *Rollup) Add(u model.Transaction) bool {
	id, name, note := r.identify(u)
	if id == "" {
		return false
	}
	e, ok := r.entries[id]
	if !ok {
		e = &EntityTotals{ID: id, Name: name, Note: note}
		r.entries[id] = e
		r.order = append(r.order, id)
	}
	e.Add(u.Amount)
	r.total.Add(u.Amount)
	return true
}

func (r *Rollup) identify(u model.Transaction) (id, name, note string) {
	switch r.dim {
	case ByPayee:
		return u.PayeeID, orDefault(u.PayeeName, UnknownPayeeName), ""
	case ByAccount:
		return u.AccountID, orDefault(u.AccountName, UnknownAccountName), u.AccountNote
	default:
		return u.CategoryID, orDefault(u.CategoryName, UncategorizedName), ""
	}
}

// Totals returns the unrounded sums over every entity.
func (r *Rollup) Totals() Totals { return r.total }

// List finalizes the rollup into rounded rows in first-seen order.
// Account rows carry their note.
func (r *Rollup) List() []model.EntityActivity {
	out := make([]model.EntityActivity, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		row := model.EntityActivity{
			ID:         e.ID,
			Name:       e.Name,
			SumIncome:  Round2(e.Income),
			SumExpense: Round2(e.Expense),
		}
		if r.dim == ByAccount {
			note := e.Note
			row.Note = &note
		}
		out = append(out, row)
	}
	return out
}

// validateForAggregation checks the parent and, for splits, every child amount.
func validateForAggregation(t model.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	for _, sub := range t.Subtransactions {
		if err := sub.ValidateAmount(); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
