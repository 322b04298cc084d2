package pipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetlens/budgetlens/internal/model"
)

// AgeOfMoneyMonths is the number of months, including the current one, in the
// age of money chart.
const AgeOfMoneyMonths = 6

// AgeOfMoney charts the age of money over the trailing months ending with the
// month of now, and the change between the last two charted months.
func AgeOfMoney(months []model.MonthDetail, now time.Time) model.AgeOfMoneyReport {
	span := TrailingMonths(now, AgeOfMoneyMonths-1)

	type point struct {
		at  time.Time
		age *int
	}
	var kept []point
	for _, m := range months {
		if m.Deleted {
			continue
		}
		t, err := model.ParseDate(m.Month)
		if err != nil {
			continue
		}
		if _, ok := span.KeyOf(t); !ok {
			continue
		}
		kept = append(kept, point{at: t, age: m.AgeOfMoney})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].at.Before(kept[j].at) })

	report := model.AgeOfMoneyReport{ChartData: make([]model.AgeOfMoneyPoint, 0, len(kept))}
	for _, p := range kept {
		report.ChartData = append(report.ChartData, model.AgeOfMoneyPoint{
			Month:      p.at.Format("January"),
			AgeOfMoney: p.age,
		})
	}
	if len(kept) == 0 {
		return report
	}

	cur := kept[len(kept)-1].age
	report.CurrentAgeOfMoney = cur
	if len(kept) < 2 {
		return report
	}
	prev := kept[len(kept)-2].age
	if cur == nil || prev == nil || *prev == 0 {
		return report
	}

	change := decimal.NewFromInt(int64(*cur - *prev)).
		Div(decimal.NewFromInt(int64(*prev))).
		Mul(decimal.NewFromInt(100))
	pct := Round2(change)
	dir := model.TrendNeutral
	switch {
	case change.IsPositive():
		dir = model.TrendUp
	case change.IsNegative():
		dir = model.TrendDown
	}
	report.TrendPercentage = &pct
	report.TrendDirection = &dir
	return report
}
