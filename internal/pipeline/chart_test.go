package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/budgetlens/budgetlens/internal/model"
)

func decodeTxns(t *testing.T, raw string) []model.Transaction {
	t.Helper()
	var txns []model.Transaction
	if err := json.Unmarshal([]byte(raw), &txns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return txns
}

// rollupAll folds every unit of txns into one rollup, reporting malformed
// transactions.
func rollupAll(txns []model.Transaction, dim Dimension) (*Rollup, []model.Skip) {
	r := NewRollup(dim)
	var skipped []model.Skip
	for _, t := range txns {
		if err := validateForAggregation(t); err != nil {
			skipped = append(skipped, model.Skip{ID: t.ID, Err: err})
			continue
		}
		for _, u := range Units(t) {
			r.Add(u)
		}
	}
	return r, skipped
}

func TestMonthlyChartApril(t *testing.T) {
	txns := []model.Transaction{
		{ID: "t1", Date: "2024-04-01", Amount: 50000, CategoryID: "c1", CategoryName: "Salary"},
		{ID: "t2", Date: "2024-04-01", Amount: -20000, CategoryID: "c2", CategoryName: "Groceries"},
	}

	chart := MonthlyChart(txns, day(2024, 4, 1))

	if len(chart.ChartData) != 30 {
		t.Fatalf("len(ChartData) = %d, want 30", len(chart.ChartData))
	}
	if len(chart.DailySummary) != 30 {
		t.Fatalf("len(DailySummary) = %d, want 30", len(chart.DailySummary))
	}
	first := chart.ChartData[0]
	if first.Date != "2024-04-01" || first.Income != 50 || first.Expense != 20 {
		t.Fatalf("day one = %+v, want {2024-04-01 50 20}", first)
	}
	for _, p := range chart.ChartData[1:] {
		if p.Income != 0 || p.Expense != 0 {
			t.Fatalf("day %s = %+v, want zeros", p.Date, p)
		}
	}

	s := chart.DailySummary[0]
	if s.NetValue != 30 {
		t.Fatalf("NetValue = %.2f, want 30", s.NetValue)
	}
	if len(s.ActiveCategories) != 2 || s.ActiveCategories[0].Name != "Salary" {
		t.Fatalf("ActiveCategories = %+v", s.ActiveCategories)
	}
	if len(chart.DailySummary[1].ActiveCategories) != 0 {
		t.Fatal("empty day has active categories")
	}
}

func TestMonthlyChartNoTransactions(t *testing.T) {
	chart := MonthlyChart(nil, day(2024, 2, 10))
	if len(chart.ChartData) != 29 {
		t.Fatalf("len(ChartData) = %d, want 29", len(chart.ChartData))
	}
	if chart.ChartData[28].Date != "2024-02-29" {
		t.Fatalf("last day = %s, want 2024-02-29", chart.ChartData[28].Date)
	}
}

func TestMonthlyChartEchoesTransactions(t *testing.T) {
	txns := decodeTxns(t, `[
		{"id": "transfer", "date": "2024-04-02", "amount": -1000, "transfer_account_id": "sav"},
		{"id": "food", "date": "2024-04-02", "amount": -2000, "category_id": "c1", "category_name": "Food"},
		{"id": "broken", "date": "2024-04-03", "category_id": "c1"}
	]`)

	chart := MonthlyChart(txns, day(2024, 4, 1))

	if len(chart.Transactions) != 3 {
		t.Fatalf("echoed %d transactions, want all 3", len(chart.Transactions))
	}
	if chart.Transactions[0].ID != "transfer" || chart.Transactions[0].CategoryID != "" {
		t.Fatalf("first echo = %+v, want the uncategorized transfer", chart.Transactions[0])
	}
	if chart.ChartData[1].Expense != 2 {
		t.Fatalf("April 2 expense = %.2f, want only the categorized 2", chart.ChartData[1].Expense)
	}
	if len(chart.Skipped) != 1 || chart.Skipped[0].ID != "broken" {
		t.Fatalf("skipped = %+v", chart.Skipped)
	}

	raw, err := json.Marshal(MonthlyChart([]model.Transaction{{ID: "x", Amount: -1000}}, day(2024, 4, 1)))
	if err != nil {
		t.Fatal(err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		t.Fatal(err)
	}
	if _, ok := keys["transactions"]; !ok {
		t.Fatalf("keys = %v, want a transactions field", keys)
	}

	empty, _ := json.Marshal(MonthlyChart(nil, day(2024, 4, 1)).Transactions)
	if string(empty) != "[]" {
		t.Fatalf("empty echo = %s, want []", empty)
	}
}

func TestMonthlyChartIgnoresOtherMonths(t *testing.T) {
	txns := []model.Transaction{
		{ID: "t1", Date: "2024-03-31", Amount: -5000, CategoryID: "c1"},
		{ID: "t2", Date: "2024-05-01", Amount: -5000, CategoryID: "c1"},
	}
	chart := MonthlyChart(txns, day(2024, 4, 1))
	for _, p := range chart.ChartData {
		if p.Expense != 0 {
			t.Fatalf("day %s picked up out-of-month expense", p.Date)
		}
	}
}

func TestSplitOverride(t *testing.T) {
	parent := model.Transaction{
		ID:         "p1",
		Date:       "2024-04-10",
		Amount:     -50000,
		PayeeID:    "payee-1",
		PayeeName:  "Costco",
		AccountID:  "acct-1",
		CategoryID: "",
		Subtransactions: []model.Transaction{
			{ID: "s1", Amount: -30000, CategoryID: "a", CategoryName: "A"},
			{ID: "s2", Amount: -20000, CategoryID: "b", CategoryName: "B"},
		},
	}

	r, skipped := rollupAll([]model.Transaction{parent}, ByCategory)
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v", skipped)
	}
	rows := r.List()
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want categories A and B only", rows)
	}
	if rows[0].Name != "A" || rows[0].SumExpense != 30 {
		t.Fatalf("A = %+v, want expense 30", rows[0])
	}
	if rows[1].Name != "B" || rows[1].SumExpense != 20 {
		t.Fatalf("B = %+v, want expense 20", rows[1])
	}

	// A categorized parent is still replaced by its children.
	parent.CategoryID = "p"
	r, _ = rollupAll([]model.Transaction{parent}, ByCategory)
	for _, row := range r.List() {
		if row.ID == "p" {
			t.Fatal("split parent appeared in category rollup")
		}
	}
}

func TestSplitChildrenDoNotInheritPayee(t *testing.T) {
	parent := model.Transaction{
		ID:        "p1",
		Date:      "2024-04-10",
		Amount:    -50000,
		PayeeID:   "payee-1",
		PayeeName: "Costco",
		Subtransactions: []model.Transaction{
			{ID: "s1", Amount: -30000, CategoryID: "a"},
			{ID: "s2", Amount: -20000, CategoryID: "b", PayeeID: "payee-2", PayeeName: "Pharmacy"},
		},
	}

	r, _ := rollupAll([]model.Transaction{parent}, ByPayee)
	rows := r.List()
	if len(rows) != 1 || rows[0].Name != "Pharmacy" {
		t.Fatalf("payee rows = %+v, want only Pharmacy", rows)
	}
}

func TestUncategorizedExcludedFromCharts(t *testing.T) {
	txns := []model.Transaction{
		{ID: "transfer", Date: "2024-04-03", Amount: -100000, AccountID: "checking", TransferAccountID: "savings"},
		{ID: "coffee", Date: "2024-04-03", Amount: -4500, CategoryID: "c1", AccountID: "checking", PayeeID: "p1"},
	}

	chart := MonthlyChart(txns, day(2024, 4, 1))
	got := chart.ChartData[2]
	if got.Expense != 4.5 {
		t.Fatalf("expense = %.2f, want 4.50", got.Expense)
	}
	s := chart.DailySummary[2]
	if len(s.ActiveAccounts) != 1 || s.ActiveAccounts[0].SumExpense != 4.5 {
		t.Fatalf("ActiveAccounts = %+v, want only the categorized spend", s.ActiveAccounts)
	}

	stats := Aggregate(txns, MonthSpan(day(2024, 4, 1)))
	if stats.Expense != got.Expense {
		t.Fatalf("summary expense %.2f differs from chart %.2f", stats.Expense, got.Expense)
	}
	if stats.Transactions != 2 {
		t.Fatalf("Transactions = %d, want 2", stats.Transactions)
	}
}

func TestConservation(t *testing.T) {
	amounts := []int64{100, 200, -333, -1, 999_999, -7, 12_345, -12_344}
	txns := make([]model.Transaction, 0, len(amounts))
	for i, a := range amounts {
		txns = append(txns, model.Transaction{
			ID:         string(rune('a' + i)),
			Date:       "2024-04-0" + string(rune('1'+i)),
			Amount:     a,
			CategoryID: "c",
		})
	}

	r, skipped := rollupAll(txns, ByCategory)
	totals := r.Totals()
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v", skipped)
	}

	var income, expense decimal.Decimal
	for _, a := range amounts {
		in, out := Split(a)
		income = income.Add(in)
		expense = expense.Add(out)
	}
	if !totals.Income.Equal(income) || !totals.Expense.Equal(expense) {
		t.Fatalf("totals = %s/%s, want %s/%s", totals.Income, totals.Expense, income, expense)
	}
	if !totals.Net().Equal(income.Sub(expense)) {
		t.Fatalf("net %s != income - expense %s", totals.Net(), income.Sub(expense))
	}

	// 0.1 + 0.2 is exact in milliunits.
	r, _ = rollupAll(txns[:2], ByCategory)
	if want := decimal.RequireFromString("0.3"); !r.Totals().Income.Equal(want) {
		t.Fatalf("income = %s, want 0.3", r.Totals().Income)
	}
}

func TestMalformedRecordsSkipped(t *testing.T) {
	txns := decodeTxns(t, `[
		{"id": "ok", "date": "2024-04-02", "amount": -1000, "category_id": "c"},
		{"id": "no-amount", "date": "2024-04-02", "category_id": "c"},
		{"id": "null-amount", "date": "2024-04-02", "amount": null, "category_id": "c"},
		{"id": "bad-date", "date": "04/02/2024", "amount": -1000, "category_id": "c"},
		{"id": "bad-child", "date": "2024-04-02", "amount": -1000,
		 "subtransactions": [{"id": "child", "category_id": "c"}]}
	]`)

	chart := MonthlyChart(txns, day(2024, 4, 1))
	if len(chart.Skipped) != 4 {
		t.Fatalf("skipped = %d, want 4", len(chart.Skipped))
	}
	for _, sk := range chart.Skipped {
		if !errors.Is(sk.Err, model.ErrMalformedRecord) {
			t.Fatalf("skip %s: err %v is not ErrMalformedRecord", sk.ID, sk.Err)
		}
	}
	if chart.ChartData[1].Expense != 1 {
		t.Fatalf("expense = %.2f, want 1.00 from the one valid record", chart.ChartData[1].Expense)
	}

	stats := Aggregate(txns, MonthSpan(day(2024, 4, 1)))
	if stats.Skipped != 4 || stats.Transactions != 1 {
		t.Fatalf("Skipped/Transactions = %d/%d, want 4/1", stats.Skipped, stats.Transactions)
	}
}

func TestAggregate(t *testing.T) {
	txns := []model.Transaction{
		{ID: "pay", Date: "2024-04-01", Amount: 3_000_000, CategoryID: "inc", CategoryName: "Income", PayeeID: "emp", PayeeName: "Employer", AccountID: "chk", AccountName: "Checking"},
		{ID: "rent", Date: "2024-04-02", Amount: -1_500_000, CategoryID: "rent", CategoryName: "Rent", PayeeID: "ll", PayeeName: "Landlord", AccountID: "chk", AccountName: "Checking"},
		{ID: "food", Date: "2024-04-02", Amount: -300_000, CategoryID: "food", CategoryName: "Groceries", PayeeID: "shop", PayeeName: "Shop", AccountID: "cc", AccountName: "Card"},
		{ID: "may", Date: "2024-05-01", Amount: -999_000, CategoryID: "food"},
	}

	stats := Aggregate(txns, MonthSpan(day(2024, 4, 15)))

	if stats.Start != "2024-04-01" || stats.End != "2024-04-30" {
		t.Fatalf("range = %s..%s", stats.Start, stats.End)
	}
	if stats.Income != 3000 || stats.Expense != 1800 || stats.Net != 1200 {
		t.Fatalf("income/expense/net = %.2f/%.2f/%.2f", stats.Income, stats.Expense, stats.Net)
	}
	if stats.SavingsRate != 0.4 {
		t.Fatalf("SavingsRate = %f, want 0.4", stats.SavingsRate)
	}
	if stats.ActiveDays != 2 {
		t.Fatalf("ActiveDays = %d, want 2", stats.ActiveDays)
	}
	if stats.Categories[0].Name != "Rent" {
		t.Fatalf("top category = %s, want Rent", stats.Categories[0].Name)
	}
	if len(stats.Accounts) != 2 || stats.Accounts[0].Note == nil {
		t.Fatalf("accounts = %+v, want two rows with notes", stats.Accounts)
	}
}

func TestIncomeExpenseSeries(t *testing.T) {
	txns := []model.Transaction{
		{ID: "a", Date: "2024-01-15", Amount: -10_000, CategoryID: "c"},
		{ID: "b", Date: "2024-03-01", Amount: 25_000, CategoryID: "c"},
		{ID: "c", Date: "2023-12-31", Amount: -1, CategoryID: "c"},
	}
	points, _ := IncomeExpenseSeries(txns, TrailingMonths(day(2024, 3, 20), 2))
	if len(points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(points))
	}
	if points[0].Period != "2024-01" || points[0].Expense != 10 || points[0].Net != -10 {
		t.Fatalf("january = %+v", points[0])
	}
	if points[1].Income != 0 || points[1].Expense != 0 {
		t.Fatalf("february = %+v, want zeros", points[1])
	}
	if points[2].Income != 25 {
		t.Fatalf("march = %+v", points[2])
	}
}

func TestFilterByPayee(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", PayeeName: "Whole Foods"},
		{ID: "2", PayeeName: "Shell"},
		{ID: "3", PayeeName: "Split", Subtransactions: []model.Transaction{{PayeeName: "WHOLE FOODS"}}},
	}
	got := FilterByPayee(txns, "whole")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("FilterByPayee = %+v", got)
	}
	if got := FilterByAccount([]model.Transaction{{AccountName: "Checking"}}, "check"); len(got) != 1 {
		t.Fatalf("FilterByAccount = %+v", got)
	}
}
