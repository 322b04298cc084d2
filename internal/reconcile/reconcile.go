// Package reconcile matches scheduled transactions against posted ones and
// reports how much of the month's scheduled spending has been paid.
package reconcile

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetlens/budgetlens/internal/model"
	"github.com/budgetlens/budgetlens/internal/pipeline"
)

// Display defaults for entries missing upstream detail.
const (
	UnknownPayee       = "Unknown Payee"
	UnknownAccount     = "Unknown Account"
	UnknownAccountType = "Unknown"
	Uncategorized      = "Uncategorized"
)

const monthLayout = "2006-01"

// Options tunes the matcher.
type Options struct {
	// AmountTolerance is the largest accepted amount difference, in milliunits.
	AmountTolerance int64
	// MinSimilarity is the payee similarity percentage a match must exceed.
	MinSimilarity float64
}

// DefaultOptions accepts amounts within one major unit and payee names more
// than 80% similar.
func DefaultOptions() Options {
	return Options{AmountTolerance: 1000, MinSimilarity: 80}
}

// Input is everything one reconciliation needs. Posted holds the current
// month's transactions in upstream order.
type Input struct {
	Accounts  []model.Account
	Scheduled []model.ScheduledTransaction
	Posted    []model.Transaction
}

// Reconcile classifies scheduled transactions relative to today.
//
// Occurrences still due this month are "To Be Paid" and make up the scheduled
// total. Occurrences dated next month are matched against this month's posted
// transactions; the first posted transaction within the amount tolerance,
// with a similar enough payee and the same category name, marks the candidate
// "Paid". Unmatched candidates are left out of the entries and listed in
// Unmatched. Overview totals are magnitudes.
func Reconcile(in Input, today time.Time, opts Options) model.ScheduledReport {
	y, m, d := today.Date()
	todayStart := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	todayKey := todayStart.Format(model.DateLayout)
	currentMonth := todayStart.Format(monthLayout)
	nextMonth := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)

	accounts := pipeline.IndexAccounts(in.Accounts)

	var (
		entries        []model.ScheduledEntry
		candidates     []model.ScheduledTransaction
		totalScheduled decimal.Decimal
		totalPaid      decimal.Decimal
	)

	for _, s := range in.Scheduled {
		if s.Deleted || len(s.DateNext) < len(monthLayout) {
			continue
		}
		switch s.DateNext[:len(monthLayout)] {
		case nextMonth:
			candidates = append(candidates, s)
		case currentMonth:
			if s.DateNext >= todayKey {
				entries = append(entries, scheduledEntry(s, s.DateNext, accounts[s.AccountID], model.StatusToBePaid))
				totalScheduled = totalScheduled.Add(pipeline.Major(s.Amount).Abs())
			}
		}
	}

	var unmatched []string
	for _, c := range candidates {
		posted, ok := firstMatch(c, in.Posted, opts)
		if !ok {
			unmatched = append(unmatched, c.ID)
			continue
		}
		entries = append(entries, scheduledEntry(c, posted.Date, accounts[posted.AccountID], model.StatusPaid))
		totalPaid = totalPaid.Add(pipeline.Major(c.Amount).Abs())
	}

	sortEntries(entries)
	if entries == nil {
		entries = []model.ScheduledEntry{}
	}

	toBePaid := totalScheduled.Sub(totalPaid)
	pct := decimal.Zero
	if !totalScheduled.IsZero() {
		pct = totalPaid.Div(totalScheduled).Mul(decimal.NewFromInt(100))
	}

	return model.ScheduledReport{
		Overview: model.ScheduledOverview{
			Month:            currentMonth,
			TotalScheduled:   pipeline.Round2(totalScheduled),
			TotalPaid:        pipeline.Round2(totalPaid),
			ToBePaid:         pipeline.Round2(toBePaid),
			RemainingBalance: pipeline.Round2(toBePaid),
			PercentagePaid:   pipeline.Round2(pct),
		},
		ScheduledTransactions: entries,
		Unmatched:             unmatched,
	}
}

// firstMatch returns the first posted transaction that matches c. Posted
// transactions are not consumed, so one may satisfy several candidates.
func firstMatch(c model.ScheduledTransaction, posted []model.Transaction, opts Options) (model.Transaction, bool) {
	for _, p := range posted {
		if p.Deleted || p.ValidateAmount() != nil {
			continue
		}
		if Matches(c, p, opts) {
			return p, true
		}
	}
	return model.Transaction{}, false
}

// Matches reports whether posted plausibly is the real occurrence of c.
func Matches(c model.ScheduledTransaction, posted model.Transaction, opts Options) bool {
	diff := posted.Amount - c.Amount
	if diff < 0 {
		diff = -diff
	}
	if diff > opts.AmountTolerance {
		return false
	}
	if SimilarText(posted.PayeeName, c.PayeeName) <= opts.MinSimilarity {
		return false
	}
	return posted.CategoryName == c.CategoryName
}

func scheduledEntry(s model.ScheduledTransaction, date string, acct model.Account, status string) model.ScheduledEntry {
	e := model.ScheduledEntry{
		ID:           s.ID,
		Date:         date,
		Amount:       pipeline.Round2(pipeline.Major(s.Amount)),
		Memo:         s.Memo,
		CategoryName: orDefault(s.CategoryName, Uncategorized),
		PayeeName:    orDefault(s.PayeeName, UnknownPayee),
		AccountName:  UnknownAccount,
		AccountType:  UnknownAccountType,
		Status:       status,
	}
	if acct.ID != "" {
		e.AccountName = orDefault(acct.Name, UnknownAccount)
		e.AccountNote = acct.Note
		e.AccountType = orDefault(acct.Type, UnknownAccountType)
	}
	return e
}

// sortEntries puts unpaid entries first, each group by ascending date.
func sortEntries(entries []model.ScheduledEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		pi := entries[i].Status == model.StatusPaid
		pj := entries[j].Status == model.StatusPaid
		if pi != pj {
			return !pi
		}
		return entries[i].Date < entries[j].Date
	})
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
