package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetlens/budgetlens/internal/model"
)

// CategoryHistoryMonths is how many months before the current one a category
// report looks back.
const CategoryHistoryMonths = 13

const spendingLabelLayout = "06 Jan"

// CategoryReport builds the drill-down for one category from its flat
// transaction feed: top payees by gross activity and net spending per month
// over the trailing window ending with the month of now. The feed itself is
// echoed unchanged, malformed and out-of-window records included.
func CategoryReport(txns []model.Transaction, now time.Time) model.CategoryReport {
	months := TrailingMonths(now, CategoryHistoryMonths)
	days := Span{Start: months.Start, End: months.End.AddDate(0, 1, -1), Granularity: Day}

	var (
		inWindow []model.Transaction
		skipped  []model.Skip
	)
	net := make(map[string]decimal.Decimal, months.Len())

	for _, t := range txns {
		if err := t.Validate(); err != nil {
			skipped = append(skipped, model.Skip{ID: t.ID, Err: err})
			continue
		}
		if !days.Contains(t.Date) {
			continue
		}
		inWindow = append(inWindow, t)
		key, _ := months.KeyOfDate(t.Date)
		net[key] = net[key].Add(Major(t.Amount))
	}

	activity, _ := PayeeActivity(inWindow)
	slices, legend := activity.TopN(DefaultTopN)

	monthly := make([]model.MonthlySpending, 0, months.Len())
	for _, u := range months.Units() {
		n := net[u.Format(monthKeyLayout)]
		spending := decimal.Zero
		if n.IsNegative() {
			spending = n.Abs()
		}
		monthly = append(monthly, model.MonthlySpending{
			Month:    u.Format(spendingLabelLayout),
			Spending: Round2(spending),
		})
	}

	echo := txns
	if echo == nil {
		echo = []model.Transaction{}
	}
	return model.CategoryReport{
		PayeeChartData:   slices,
		Legend:           legend,
		MonthlyChartData: monthly,
		Transactions:     echo,
		Skipped:          skipped,
	}
}
