package pipeline

import (
	"time"

	"github.com/budgetlens/budgetlens/internal/model"
)

// dayBucket is the mutable state of one calendar bucket.
type dayBucket struct {
	key        string
	totals     Totals
	categories *Rollup
	payees     *Rollup
	accounts   *Rollup
}

func newDayBucket(key string) *dayBucket {
	return &dayBucket{
		key:        key,
		categories: NewRollup(ByCategory),
		payees:     NewRollup(ByPayee),
		accounts:   NewRollup(ByAccount),
	}
}

// add folds one categorized unit into the bucket. Uncategorized units are
// transfers and do not count toward income or expense.
func (b *dayBucket) add(u model.Transaction) {
	if u.CategoryID == "" {
		return
	}
	b.totals.Add(u.Amount)
	b.categories.Add(u)
	b.payees.Add(u)
	b.accounts.Add(u)
}

// bucketSet holds one bucket per key of a span, in span order.
type bucketSet struct {
	span    Span
	order   []*dayBucket
	byKey   map[string]*dayBucket
	skipped []model.Skip
}

func newBucketSet(span Span) *bucketSet {
	bs := &bucketSet{span: span, byKey: make(map[string]*dayBucket, span.Len())}
	for _, key := range span.Keys() {
		b := newDayBucket(key)
		bs.order = append(bs.order, b)
		bs.byKey[key] = b
	}
	return bs
}

// fold assigns every unit of every in-range transaction to its bucket.
func (bs *bucketSet) fold(txns []model.Transaction) {
	for _, t := range txns {
		if err := validateForAggregation(t); err != nil {
			bs.skipped = append(bs.skipped, model.Skip{ID: t.ID, Err: err})
			continue
		}
		key, ok := bs.span.KeyOfDate(t.Date)
		if !ok {
			continue
		}
		b := bs.byKey[key]
		for _, u := range Units(t) {
			b.add(u)
		}
	}
}

// MonthlyChart builds the per-day chart and summary for the month containing
// month. Every day of the month is present. The input is echoed back as
// Transactions, uncategorized and malformed records included.
func MonthlyChart(txns []model.Transaction, month time.Time) model.MonthlyChart {
	bs := newBucketSet(MonthSpan(month))
	bs.fold(txns)

	out := model.MonthlyChart{
		ChartData:    make([]model.ChartPoint, 0, len(bs.order)),
		DailySummary: make([]model.DailySummary, 0, len(bs.order)),
		Transactions: txns,
		Skipped:      bs.skipped,
	}
	if out.Transactions == nil {
		out.Transactions = []model.Transaction{}
	}
	for _, b := range bs.order {
		out.ChartData = append(out.ChartData, model.ChartPoint{
			Date:    b.key,
			Income:  Round2(b.totals.Income),
			Expense: Round2(b.totals.Expense),
		})
		out.DailySummary = append(out.DailySummary, model.DailySummary{
			Date:             b.key,
			SumIncome:        Round2(b.totals.Income),
			SumExpenses:      Round2(b.totals.Expense),
			NetValue:         Round2(b.totals.Net()),
			ActiveCategories: b.categories.List(),
			ActivePayees:     b.payees.List(),
			ActiveAccounts:   b.accounts.List(),
		})
	}
	return out
}

// IncomeExpenseSeries folds txns into every bucket of span and returns one
// point per bucket.
func IncomeExpenseSeries(txns []model.Transaction, span Span) ([]model.TrendPoint, []model.Skip) {
	bs := newBucketSet(span)
	bs.fold(txns)

	points := make([]model.TrendPoint, 0, len(bs.order))
	for _, b := range bs.order {
		points = append(points, model.TrendPoint{
			Period:  b.key,
			Income:  Round2(b.totals.Income),
			Expense: Round2(b.totals.Expense),
			Net:     Round2(b.totals.Net()),
		})
	}
	return points, bs.skipped
}
