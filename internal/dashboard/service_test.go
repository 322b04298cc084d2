package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetlens/budgetlens/internal/model"
	"github.com/budgetlens/budgetlens/internal/ynab"
)

var now = time.Date(2024, 4, 12, 9, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	mu sync.Mutex

	accounts  []model.Account
	groups    []model.CategoryGroup
	payees    []model.Payee
	months    []model.MonthDetail
	monthTxns []model.Transaction
	since     []model.Transaction
	feed      []model.Transaction
	scheduled []model.ScheduledTransaction

	// failOn names the method that returns err.
	failOn string
	err    error

	calls     []string
	sinceDate time.Time
}

func (f *fakeFetcher) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return f.err
	}
	return nil
}

func (f *fakeFetcher) Budgets(_ context.Context, _ string) ([]model.BudgetSummary, error) {
	if err := f.record("Budgets"); err != nil {
		return nil, err
	}
	return []model.BudgetSummary{{ID: "b1", Name: "Home"}}, nil
}

func (f *fakeFetcher) Accounts(_ context.Context, _, _ string) ([]model.Account, error) {
	return f.accounts, f.record("Accounts")
}

func (f *fakeFetcher) CategoryGroups(_ context.Context, _, _ string) ([]model.CategoryGroup, error) {
	return f.groups, f.record("CategoryGroups")
}

func (f *fakeFetcher) Payees(_ context.Context, _, _ string) ([]model.Payee, error) {
	return f.payees, f.record("Payees")
}

func (f *fakeFetcher) Months(_ context.Context, _, _ string) ([]model.MonthDetail, error) {
	return f.months, f.record("Months")
}

func (f *fakeFetcher) MonthTransactions(_ context.Context, _, _ string, _ time.Time) ([]model.Transaction, error) {
	return f.monthTxns, f.record("MonthTransactions")
}

func (f *fakeFetcher) TransactionsSince(_ context.Context, _, _ string, since time.Time) ([]model.Transaction, error) {
	f.mu.Lock()
	f.sinceDate = since
	f.mu.Unlock()
	return f.since, f.record("TransactionsSince")
}

func (f *fakeFetcher) CategoryTransactions(_ context.Context, _, _, _ string) ([]model.Transaction, error) {
	return f.feed, f.record("CategoryTransactions")
}

func (f *fakeFetcher) PayeeTransactions(_ context.Context, _, _, _ string) ([]model.Transaction, error) {
	return f.feed, f.record("PayeeTransactions")
}

func (f *fakeFetcher) AccountTransactions(_ context.Context, _, _, _ string) ([]model.Transaction, error) {
	return f.feed, f.record("AccountTransactions")
}

func (f *fakeFetcher) ScheduledTransactions(_ context.Context, _, _ string) ([]model.ScheduledTransaction, error) {
	return f.scheduled, f.record("ScheduledTransactions")
}

func newTestService(f *fakeFetcher) *Service {
	return New(f, Config{Now: func() time.Time { return now }})
}

var req = Request{Token: "tok", BudgetID: "b1"}

func aprilTxns() []model.Transaction {
	return []model.Transaction{
		{ID: "pay", Date: "2024-04-01", Amount: 3_000_000, PayeeID: "p-emp", PayeeName: "Employer", CategoryID: "c-inc", CategoryName: "Inflow", AccountID: "chk"},
		{ID: "food", Date: "2024-04-03", Amount: -120_500, PayeeID: "p-groc", PayeeName: "Grocer", CategoryID: "c-food", CategoryName: "Groceries", AccountID: "chk"},
		{ID: "card", Date: "2024-04-04", Amount: -80_000, PayeeID: "p-cafe", PayeeName: "Cafe", CategoryID: "c-food", CategoryName: "Groceries", AccountID: "visa", AccountName: "Visa"},
		{ID: "gone", Date: "2024-04-05", Amount: -999_000, PayeeID: "p-x", CategoryID: "c-x", Deleted: true},
	}
}

func TestRequestValidation(t *testing.T) {
	svc := newTestService(&fakeFetcher{})
	ctx := context.Background()

	_, err := svc.Summary(ctx, Request{BudgetID: "b1"}, now, Filter{})
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = svc.ScheduledTransactions(ctx, Request{Token: "tok"})
	assert.ErrorIs(t, err, ErrMissingBudget)

	_, err = svc.Budgets(ctx, " ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestMonthlyTransactionsDecoratesAccounts(t *testing.T) {
	f := &fakeFetcher{
		monthTxns: aprilTxns(),
		accounts:  []model.Account{{ID: "chk", Name: "Checking", Note: "joint"}},
	}

	chart, err := newTestService(f).MonthlyTransactions(context.Background(), req, now)
	require.NoError(t, err)

	require.Len(t, chart.ChartData, 30)
	assert.Equal(t, 3000.0, chart.ChartData[0].Income)
	assert.Equal(t, 120.5, chart.ChartData[2].Expense)
	assert.Equal(t, 0.0, chart.ChartData[4].Expense, "deleted transactions are dropped")
	require.Len(t, chart.Transactions, 3)
	assert.Equal(t, "Checking", chart.Transactions[0].AccountName, "echo carries decorated accounts")

	accounts := chart.DailySummary[2].ActiveAccounts
	require.Len(t, accounts, 1)
	assert.Equal(t, "Checking", accounts[0].Name)
	require.NotNil(t, accounts[0].Note)
	assert.Equal(t, "joint", *accounts[0].Note)
}

func TestMonthlyTransactionsFailsWhenAnyFetchFails(t *testing.T) {
	boom := &ynab.FetchError{Endpoint: "/budgets/b1/accounts", Status: 500}
	f := &fakeFetcher{monthTxns: aprilTxns(), failOn: "Accounts", err: boom}

	_, err := newTestService(f).MonthlyTransactions(context.Background(), req, now)
	assert.ErrorIs(t, err, boom)
}

func TestSummaryFilter(t *testing.T) {
	f := &fakeFetcher{monthTxns: aprilTxns()}
	svc := newTestService(f)

	all, err := svc.Summary(context.Background(), req, now, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Transactions)
	assert.Equal(t, 3000.0, all.Income)
	assert.Equal(t, 200.5, all.Expense)
	assert.Equal(t, "2024-04-30", all.End)

	cafe, err := svc.Summary(context.Background(), req, now, Filter{Payee: "CAF"})
	require.NoError(t, err)
	assert.Equal(t, 1, cafe.Transactions)
	assert.Equal(t, 80.0, cafe.Expense)

	visa, err := svc.Summary(context.Background(), req, now, Filter{Account: "vis"})
	require.NoError(t, err)
	assert.Equal(t, 1, visa.Transactions)
}

func TestRangeSummary(t *testing.T) {
	f := &fakeFetcher{since: aprilTxns()}
	svc := newTestService(f)
	from := time.Date(2024, 4, 2, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 4, 0, 0, 0, 0, time.UTC)

	stats, err := svc.RangeSummary(context.Background(), req, from, to, Filter{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), f.sinceDate)
	assert.Equal(t, "2024-04-02", stats.Start)
	assert.Equal(t, "2024-04-04", stats.End)
	assert.Equal(t, 2, stats.Transactions, "the April 1 paycheck is outside the range")
	assert.Equal(t, 0.0, stats.Income)
	assert.Equal(t, 200.5, stats.Expense)

	_, err = svc.RangeSummary(context.Background(), req, to, from, Filter{})
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Len(t, f.calls, 1, "a reversed range is rejected before fetching")
}

func TestPayeesHidesDeleted(t *testing.T) {
	f := &fakeFetcher{payees: []model.Payee{
		{ID: "p1", Name: "Grocer"},
		{ID: "p2", Name: "Old", Deleted: true},
	}}

	payees, err := newTestService(f).Payees(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, payees, 1)
	assert.Equal(t, "Grocer", payees[0].Name)
}

func TestTrendUsesTrailingWindow(t *testing.T) {
	f := &fakeFetcher{since: aprilTxns()}

	points, err := newTestService(f).Trend(context.Background(), req, 3)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), f.sinceDate)
	require.Len(t, points, 3)
	assert.Equal(t, 3000.0, points[2].Income)
	assert.Equal(t, 0.0, points[0].Income)
}

func TestScheduledTransactions(t *testing.T) {
	f := &fakeFetcher{
		accounts:  []model.Account{{ID: "visa", Name: "Visa", Type: "creditCard"}},
		scheduled: []model.ScheduledTransaction{{ID: "s1", DateNext: "2024-05-04", Amount: -80_000, PayeeName: "Cafe", CategoryName: "Groceries"}},
		monthTxns: aprilTxns(),
	}

	report, err := newTestService(f).ScheduledTransactions(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, report.ScheduledTransactions, 1)
	e := report.ScheduledTransactions[0]
	assert.Equal(t, model.StatusPaid, e.Status)
	assert.Equal(t, "2024-04-04", e.Date)
	assert.Equal(t, "Visa", e.AccountName)
	assert.Equal(t, 80.0, report.Overview.TotalPaid)
}

func TestScheduledTransactionsAbortsOnFailure(t *testing.T) {
	f := &fakeFetcher{failOn: "ScheduledTransactions", err: ynab.ErrUnauthorized}

	_, err := newTestService(f).ScheduledTransactions(context.Background(), req)
	assert.ErrorIs(t, err, ynab.ErrUnauthorized)
}

func TestDrilldowns(t *testing.T) {
	f := &fakeFetcher{feed: []model.Transaction{
		{ID: "t1", Date: "2024-04-02", Amount: -50_000, PayeeName: "Cafe", CategoryName: "Food", Type: model.TypeTransaction},
		{ID: "s1", Amount: -20_000, CategoryName: "Food", Type: model.TypeSubtransaction, ParentTransactionID: "t2"},
	}}
	svc := newTestService(f)

	payee, err := svc.PayeeTransactions(context.Background(), req, "p-cafe")
	require.NoError(t, err)
	assert.Len(t, payee.Transactions, 2)
	assert.Equal(t, 70.0, payee.Analytics.TotalSpent)

	account, err := svc.AccountTransactions(context.Background(), req, "chk")
	require.NoError(t, err)
	assert.Equal(t, payee, account)
}

func TestDrilldownReportsMalformed(t *testing.T) {
	var feed []model.Transaction
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": "a", "date": "2024-04-01", "amount": null, "category_name": "Ghost"},
		{"id": "b", "date": "2024-04-02", "amount": -5000, "category_name": "Food"}
	]`), &feed))
	svc := newTestService(&fakeFetcher{feed: feed})

	report, err := svc.AccountTransactions(context.Background(), req, "chk")
	require.NoError(t, err)
	assert.Len(t, report.Transactions, 2)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "a", report.Skipped[0].ID)
	assert.NotContains(t, report.Analytics.CategoryBreakdown, "Ghost")
}

func TestAccountsHidesClosed(t *testing.T) {
	f := &fakeFetcher{accounts: []model.Account{
		{ID: "a", Name: "Open"},
		{ID: "b", Name: "Closed", Closed: true},
		{ID: "c", Name: "Gone", Deleted: true},
	}}

	accounts, err := newTestService(f).Accounts(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Open", accounts[0].Name)
}

func TestCategoriesHidesDeleted(t *testing.T) {
	f := &fakeFetcher{groups: []model.CategoryGroup{
		{ID: "g1", Name: "Bills", Categories: []model.Category{{ID: "c1", Name: "Rent"}, {ID: "c2", Name: "Old", Deleted: true}}},
		{ID: "g2", Name: "Retired", Deleted: true},
	}}

	groups, err := newTestService(f).Categories(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Categories, 1)
}

func TestUpstreamErrorPassesThrough(t *testing.T) {
	f := &fakeFetcher{failOn: "Months", err: errors.New("dial tcp: refused")}

	_, err := newTestService(f).AgeOfMoney(context.Background(), req)
	assert.EqualError(t, err, "dial tcp: refused")
}
