// Package dashboard fetches budget data for one request and runs the
// analytics over it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/budgetlens/budgetlens/internal/logger"
	"github.com/budgetlens/budgetlens/internal/model"
	"github.com/budgetlens/budgetlens/internal/pipeline"
	"github.com/budgetlens/budgetlens/internal/reconcile"
	"github.com/budgetlens/budgetlens/internal/ynab"
)

// ErrMissingToken is returned before any fetch when the request has no token.
var ErrMissingToken = errors.New("dashboard: YNAB token is required")

// ErrMissingBudget is returned when the request names no budget.
var ErrMissingBudget = errors.New("dashboard: budget id is required")

// ErrInvalidRange is returned when a date range ends before it starts.
var ErrInvalidRange = errors.New("dashboard: invalid date range")

// Request identifies whose data to read. It is passed explicitly to every
// call; the service keeps no per-user state.
type Request struct {
	Token    string
	BudgetID string
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(r.BudgetID) == "" {
		return ErrMissingBudget
	}
	return nil
}

// Fetcher reads upstream data. *ynab.Client implements it.
type Fetcher interface {
	Budgets(ctx context.Context, token string) ([]model.BudgetSummary, error)
	Accounts(ctx context.Context, token, budgetID string) ([]model.Account, error)
	CategoryGroups(ctx context.Context, token, budgetID string) ([]model.CategoryGroup, error)
	Payees(ctx context.Context, token, budgetID string) ([]model.Payee, error)
	Months(ctx context.Context, token, budgetID string) ([]model.MonthDetail, error)
	MonthTransactions(ctx context.Context, token, budgetID string, month time.Time) ([]model.Transaction, error)
	TransactionsSince(ctx context.Context, token, budgetID string, since time.Time) ([]model.Transaction, error)
	CategoryTransactions(ctx context.Context, token, budgetID, categoryID string) ([]model.Transaction, error)
	PayeeTransactions(ctx context.Context, token, budgetID, payeeID string) ([]model.Transaction, error)
	AccountTransactions(ctx context.Context, token, budgetID, accountID string) ([]model.Transaction, error)
	ScheduledTransactions(ctx context.Context, token, budgetID string) ([]model.ScheduledTransaction, error)
}

var _ Fetcher = (*ynab.Client)(nil)

// Config controls a Service.
type Config struct {
	Reconcile reconcile.Options
	Now       func() time.Time
	Logger    *zerolog.Logger
}

// Service composes upstream fetches with the analytics engine.
type Service struct {
	fetch Fetcher
	cfg   Config
}

// New returns a service reading through f.
func New(f Fetcher, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	if cfg.Reconcile == (reconcile.Options{}) {
		cfg.Reconcile = reconcile.DefaultOptions()
	}
	return &Service{fetch: f, cfg: cfg}
}

// Budgets lists the budgets visible to token.
func (s *Service) Budgets(ctx context.Context, token string) ([]model.BudgetSummary, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	budgets, err := s.fetch.Budgets(ctx, token)
	if err != nil {
		return nil, s.upstreamFailed(ctx, "budgets", err)
	}
	return budgets, nil
}

// MonthlyTransactions builds the per-day chart and summary of the month
// containing month. Accounts are fetched alongside to fill account notes.
func (s *Service) MonthlyTransactions(ctx context.Context, req Request, month time.Time) (model.MonthlyChart, error) {
	if err := req.validate(); err != nil {
		return model.MonthlyChart{}, err
	}

	var (
		txns     []model.Transaction
		accounts []model.Account
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txns, err = s.fetch.MonthTransactions(gctx, req.Token, req.BudgetID, month)
		return s.upstreamFailed(ctx, "month transactions", err)
	})
	g.Go(func() error {
		var err error
		accounts, err = s.fetch.Accounts(gctx, req.Token, req.BudgetID)
		return s.upstreamFailed(ctx, "accounts", err)
	})
	if err := g.Wait(); err != nil {
		return model.MonthlyChart{}, err
	}

	txns = pipeline.Decorate(pipeline.WithoutDeleted(txns), pipeline.IndexAccounts(accounts))
	chart := pipeline.MonthlyChart(txns, month)
	s.logSkipped(ctx, "monthly chart", chart.Skipped)
	return chart, nil
}

// Filter narrows a summary to payees or accounts whose names contain the
// given substrings. Empty fields match everything.
type Filter struct {
	Payee   string
	Account string
}

func (f Filter) apply(txns []model.Transaction) []model.Transaction {
	if f.Payee != "" {
		txns = pipeline.FilterByPayee(txns, f.Payee)
	}
	if f.Account != "" {
		txns = pipeline.FilterByAccount(txns, f.Account)
	}
	return txns
}

// Summary aggregates the transactions of the month containing month.
func (s *Service) Summary(ctx context.Context, req Request, month time.Time, f Filter) (model.SummaryStats, error) {
	if err := req.validate(); err != nil {
		return model.SummaryStats{}, err
	}
	txns, err := s.fetch.MonthTransactions(ctx, req.Token, req.BudgetID, month)
	if err != nil {
		return model.SummaryStats{}, s.upstreamFailed(ctx, "month transactions", err)
	}
	stats := pipeline.Aggregate(f.apply(pipeline.WithoutDeleted(txns)), pipeline.MonthSpan(month))
	if stats.Skipped > 0 {
		s.log(ctx).Warn().Int("skipped", stats.Skipped).Msg("summary skipped malformed transactions")
	}
	return stats, nil
}

// RangeSummary aggregates the transactions dated from through to, inclusive.
func (s *Service) RangeSummary(ctx context.Context, req Request, from, to time.Time, f Filter) (model.SummaryStats, error) {
	if err := req.validate(); err != nil {
		return model.SummaryStats{}, err
	}
	span, err := pipeline.NewSpan(from, to, pipeline.Day)
	if err != nil {
		return model.SummaryStats{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	txns, err := s.fetch.TransactionsSince(ctx, req.Token, req.BudgetID, span.Start)
	if err != nil {
		return model.SummaryStats{}, s.upstreamFailed(ctx, "transactions", err)
	}
	stats := pipeline.Aggregate(f.apply(pipeline.WithoutDeleted(txns)), span)
	if stats.Skipped > 0 {
		s.log(ctx).Warn().Int("skipped", stats.Skipped).Msg("summary skipped malformed transactions")
	}
	return stats, nil
}

// Trend buckets income and expense by month over the trailing months,
// including the current one.
func (s *Service) Trend(ctx context.Context, req Request, months int) ([]model.TrendPoint, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if months < 1 {
		months = 1
	}
	span := pipeline.TrailingMonths(s.cfg.Now(), months-1)
	txns, err := s.fetch.TransactionsSince(ctx, req.Token, req.BudgetID, span.Start)
	if err != nil {
		return nil, s.upstreamFailed(ctx, "transactions", err)
	}
	points, skipped := pipeline.IncomeExpenseSeries(pipeline.WithoutDeleted(txns), span)
	s.logSkipped(ctx, "trend", skipped)
	return points, nil
}

// CategoryTransactions builds the drill-down of one category.
func (s *Service) CategoryTransactions(ctx context.Context, req Request, categoryID string) (model.CategoryReport, error) {
	if err := req.validate(); err != nil {
		return model.CategoryReport{}, err
	}
	txns, err := s.fetch.CategoryTransactions(ctx, req.Token, req.BudgetID, categoryID)
	if err != nil {
		return model.CategoryReport{}, s.upstreamFailed(ctx, "category transactions", err)
	}
	report := pipeline.CategoryReport(pipeline.WithoutDeleted(txns), s.cfg.Now())
	s.logSkipped(ctx, "category report", report.Skipped)
	return report, nil
}

// PayeeTransactions unifies the flat feed of one payee.
func (s *Service) PayeeTransactions(ctx context.Context, req Request, payeeID string) (model.UnifiedReport, error) {
	if err := req.validate(); err != nil {
		return model.UnifiedReport{}, err
	}
	items, err := s.fetch.PayeeTransactions(ctx, req.Token, req.BudgetID, payeeID)
	if err != nil {
		return model.UnifiedReport{}, s.upstreamFailed(ctx, "payee transactions", err)
	}
	report := pipeline.Unify(pipeline.WithoutDeleted(items)).Report()
	s.logSkipped(ctx, "payee transactions", report.Skipped)
	return report, nil
}

// AccountTransactions unifies the transactions of one account.
func (s *Service) AccountTransactions(ctx context.Context, req Request, accountID string) (model.UnifiedReport, error) {
	if err := req.validate(); err != nil {
		return model.UnifiedReport{}, err
	}
	items, err := s.fetch.AccountTransactions(ctx, req.Token, req.BudgetID, accountID)
	if err != nil {
		return model.UnifiedReport{}, s.upstreamFailed(ctx, "account transactions", err)
	}
	report := pipeline.Unify(pipeline.WithoutDeleted(items)).Report()
	s.logSkipped(ctx, "account transactions", report.Skipped)
	return report, nil
}

// ScheduledTransactions reconciles scheduled transactions against this
// month's posted ones. The three reads run concurrently and any failure
// fails the whole call.
func (s *Service) ScheduledTransactions(ctx context.Context, req Request) (model.ScheduledReport, error) {
	if err := req.validate(); err != nil {
		return model.ScheduledReport{}, err
	}
	now := s.cfg.Now()

	var in reconcile.Input
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.Accounts, err = s.fetch.Accounts(gctx, req.Token, req.BudgetID)
		return s.upstreamFailed(ctx, "accounts", err)
	})
	g.Go(func() error {
		var err error
		in.Scheduled, err = s.fetch.ScheduledTransactions(gctx, req.Token, req.BudgetID)
		return s.upstreamFailed(ctx, "scheduled transactions", err)
	})
	g.Go(func() error {
		var err error
		in.Posted, err = s.fetch.MonthTransactions(gctx, req.Token, req.BudgetID, now)
		return s.upstreamFailed(ctx, "month transactions", err)
	})
	if err := g.Wait(); err != nil {
		return model.ScheduledReport{}, err
	}

	report := reconcile.Reconcile(in, now, s.cfg.Reconcile)
	if len(report.Unmatched) > 0 {
		s.log(ctx).Debug().Strs("ids", report.Unmatched).Msg("scheduled candidates without a posted match")
	}
	return report, nil
}

// AgeOfMoney charts the age of money over the trailing months.
func (s *Service) AgeOfMoney(ctx context.Context, req Request) (model.AgeOfMoneyReport, error) {
	if err := req.validate(); err != nil {
		return model.AgeOfMoneyReport{}, err
	}
	months, err := s.fetch.Months(ctx, req.Token, req.BudgetID)
	if err != nil {
		return model.AgeOfMoneyReport{}, s.upstreamFailed(ctx, "months", err)
	}
	return pipeline.AgeOfMoney(months, s.cfg.Now()), nil
}

// Categories lists visible category groups.
func (s *Service) Categories(ctx context.Context, req Request) ([]model.CategoryGroup, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	groups, err := s.fetch.CategoryGroups(ctx, req.Token, req.BudgetID)
	if err != nil {
		return nil, s.upstreamFailed(ctx, "categories", err)
	}
	return pipeline.VisibleCategoryGroups(groups), nil
}

// Accounts lists open, non-deleted accounts.
func (s *Service) Accounts(ctx context.Context, req Request) ([]model.Account, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	accounts, err := s.fetch.Accounts(ctx, req.Token, req.BudgetID)
	if err != nil {
		return nil, s.upstreamFailed(ctx, "accounts", err)
	}
	out := make([]model.Account, 0, len(accounts))
	for _, a := range accounts {
		if !a.Deleted && !a.Closed {
			out = append(out, a)
		}
	}
	return out, nil
}

// Payees lists the budget's payees, deleted ones removed.
func (s *Service) Payees(ctx context.Context, req Request) ([]model.Payee, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	payees, err := s.fetch.Payees(ctx, req.Token, req.BudgetID)
	if err != nil {
		return nil, s.upstreamFailed(ctx, "payees", err)
	}
	out := make([]model.Payee, 0, len(payees))
	for _, p := range payees {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	return out, nil
}

// upstreamFailed logs a failed fetch with its status and body and returns err
// unchanged. It returns nil for a nil err.
func (s *Service) upstreamFailed(ctx context.Context, what string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	ev := s.log(ctx).Error().Err(err).Str("fetch", what)
	var fe *ynab.FetchError
	if errors.As(err, &fe) {
		ev = ev.Str("endpoint", fe.Endpoint).Int("status", fe.Status).Str("body", fe.Body)
	}
	ev.Msg("upstream fetch failed")
	return err
}

func (s *Service) logSkipped(ctx context.Context, view string, skipped []model.Skip) {
	l := s.log(ctx)
	for _, sk := range skipped {
		l.Warn().Str("view", view).Str("transaction_id", sk.ID).Err(sk.Err).Msg("skipped malformed transaction")
	}
}

// log prefers the request logger so entries carry the request id.
func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if l := logger.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		return &l
	}
	return s.cfg.Logger
}
