// Package pipeline turns upstream transaction feeds into bucketed charts,
// entity rollups, rankings and unified trees. Everything here is pure.
package pipeline

import (
	"sort"
	"strings"

	"github.com/budgetlens/budgetlens/internal/model"
)

// Aggregate computes period totals and per-entity rollups for the
// transactions dated inside span. Only categorized units count.
func Aggregate(txns []model.Transaction, span Span) model.SummaryStats {
	stats := model.SummaryStats{
		Start: span.Start.Format(model.DateLayout),
		End:   span.End.Format(model.DateLayout),
	}
	if span.Granularity == Month {
		stats.End = span.End.AddDate(0, 1, -1).Format(model.DateLayout)
	}

	categories := NewRollup(ByCategory)
	payees := NewRollup(ByPayee)
	accounts := NewRollup(ByAccount)
	activeDays := make(map[string]struct{})

	for _, t := range txns {
		if err := validateForAggregation(t); err != nil {
			stats.Skipped++
			continue
		}
		if !span.Contains(t.Date) {
			continue
		}
		stats.Transactions++
		for _, u := range Units(t) {
			if u.CategoryID == "" {
				continue
			}
			categories.Add(u)
			payees.Add(u)
			accounts.Add(u)
			activeDays[t.Date] = struct{}{}
		}
	}

	// Every categorized unit lands in the category rollup.
	totals := categories.Totals()
	stats.ActiveDays = len(activeDays)
	stats.Income = Round2(totals.Income)
	stats.Expense = Round2(totals.Expense)
	stats.Net = Round2(totals.Net())
	if totals.Income.IsPositive() {
		stats.SavingsRate = totals.Net().Div(totals.Income).InexactFloat64()
	}

	stats.Categories = byExpense(categories.List())
	stats.Payees = byExpense(payees.List())
	stats.Accounts = byExpense(accounts.List())
	return stats
}

// byExpense sorts rows by expense descending, keeping first-seen order on ties.
func byExpense(rows []model.EntityActivity) []model.EntityActivity {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SumExpense > rows[j].SumExpense
	})
	return rows
}

// FilterByPayee returns transactions whose payee name contains the substring,
// case-insensitively. Split transactions match on any child payee.
func FilterByPayee(txns []model.Transaction, payee string) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if containsIgnoreCase(t.PayeeName, payee) {
			out = append(out, t)
			continue
		}
		for _, sub := range t.Subtransactions {
			if containsIgnoreCase(sub.PayeeName, payee) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// FilterByAccount returns transactions whose account name contains the substring.
func FilterByAccount(txns []model.Transaction, account string) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if containsIgnoreCase(t.AccountName, account) {
			out = append(out, t)
		}
	}
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
