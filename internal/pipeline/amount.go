package pipeline

import "github.com/shopspring/decimal"

// milliunitExp is the decimal exponent of the upstream fixed-point amounts.
const milliunitExp = -3

// Flow classifies the sign of an amount.
type Flow int

const (
	Neutral Flow = iota
	Income
	Expense
)

// Major converts milliunits to a major-unit decimal. The conversion is exact.
func Major(raw int64) decimal.Decimal {
	return decimal.New(raw, milliunitExp)
}

// Classify returns Income for positive amounts, Expense for negative ones.
func Classify(raw int64) Flow {
	switch {
	case raw > 0:
		return Income
	case raw < 0:
		return Expense
	default:
		return Neutral
	}
}

// Split returns the income and expense contributions of raw. The expense
// side is reported as a magnitude and a zero amount contributes to neither.
func Split(raw int64) (income, expense decimal.Decimal) {
	switch Classify(raw) {
	case Income:
		return Major(raw), decimal.Zero
	case Expense:
		return decimal.Zero, Major(raw).Abs()
	default:
		return decimal.Zero, decimal.Zero
	}
}

// Round2 rounds to cents for output. Nothing upstream of serialization rounds.
func Round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Totals accumulates income and expense magnitudes.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Add folds one raw amount in.
func (t *Totals) Add(raw int64) {
	in, out := Split(raw)
	t.Income = t.Income.Add(in)
	t.Expense = t.Expense.Add(out)
}

// Net is income minus expense, unrounded.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}
