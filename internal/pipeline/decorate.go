package pipeline

import (
	"github.com/budgetlens/budgetlens/internal/model"
)

// AccountIndex maps account ids to accounts.
type AccountIndex map[string]model.Account

// IndexAccounts builds a lookup from an account list.
func IndexAccounts(accounts []model.Account) AccountIndex {
	idx := make(AccountIndex, len(accounts))
	for _, a := range accounts {
		idx[a.ID] = a
	}
	return idx
}

// Decorate returns a copy of txns with account name and note filled from the
// account list. Known accounts always supply the note; the name is only
// filled when the upstream left it empty.
func Decorate(txns []model.Transaction, accounts AccountIndex) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	for i, t := range txns {
		if a, ok := accounts[t.AccountID]; ok {
			if t.AccountName == "" {
				t.AccountName = a.Name
			}
			t.AccountNote = a.Note
		}
		out[i] = t
	}
	return out
}

// WithoutDeleted drops records the upstream flags as deleted.
func WithoutDeleted(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if !t.Deleted {
			out = append(out, t)
		}
	}
	return out
}

// VisibleCategoryGroups drops deleted groups and deleted categories.
func VisibleCategoryGroups(groups []model.CategoryGroup) []model.CategoryGroup {
	out := make([]model.CategoryGroup, 0, len(groups))
	for _, g := range groups {
		if g.Deleted {
			continue
		}
		cats := make([]model.Category, 0, len(g.Categories))
		for _, c := range g.Categories {
			if !c.Deleted {
				cats = append(cats, c)
			}
		}
		g.Categories = cats
		out = append(out, g)
	}
	return out
}
