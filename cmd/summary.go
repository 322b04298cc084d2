package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/budgetlens/budgetlens/internal/cli"
	"github.com/budgetlens/budgetlens/internal/dashboard"
	"github.com/budgetlens/budgetlens/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagMonth   string
	flagPayee   string
	flagAccount string
	flagTop     int
	flagFrom    string
	flagTo      string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Income, expense and top spenders for one month",
	RunE:  runSummary,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, summaryCmd} {
		c.Flags().StringVarP(&flagMonth, "month", "m", "", "Month as YYYY-MM (defaults to the current month)")
		c.Flags().StringVarP(&flagPayee, "payee", "p", "", "Filter to payee (substring match)")
		c.Flags().StringVarP(&flagAccount, "account", "a", "", "Filter to account (substring match)")
		c.Flags().IntVar(&flagTop, "top", 5, "Rows per breakdown table")
		c.Flags().StringVar(&flagFrom, "from", "", "Range start as YYYY-MM-DD (overrides --month)")
		c.Flags().StringVar(&flagTo, "to", "", "Range end as YYYY-MM-DD (defaults to today)")
	}
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	month, err := parseMonthFlag(flagMonth)
	if err != nil {
		return err
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	filter := dashboard.Filter{Payee: flagPayee, Account: flagAccount}
	var stats model.SummaryStats
	if flagFrom != "" {
		from, to, rerr := parseRangeFlags(flagFrom, flagTo)
		if rerr != nil {
			return rerr
		}
		progress("Fetching transactions %s to %s...", flagFrom, to.Format(model.DateLayout))
		stats, err = s.svc.RangeSummary(cmd.Context(), s.req, from, to, filter)
	} else {
		progress("Fetching %s transactions...", month.Format("January 2006"))
		stats, err = s.svc.Summary(cmd.Context(), s.req, month, filter)
	}
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(stats)
	}

	if stats.Transactions == 0 {
		fmt.Println("\n  No transactions in the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET SUMMARY  %s", month.Format("January 2006"))))
	fmt.Println()

	rows := [][]string{
		{"Transactions", cli.FormatNumber(int64(stats.Transactions))},
		{"Active Days", cli.FormatNumber(int64(stats.ActiveDays))},
		cli.SeparatorRow,
		{"Income", cli.FormatMoney(stats.Income, flagCurrency)},
		{"Expense", cli.FormatMoney(stats.Expense, flagCurrency)},
		{"Net", cli.FormatDelta(stats.Net, flagCurrency)},
		{"Savings Rate", cli.FormatPercent(stats.SavingsRate * 100)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
		Signed:  []int{1},
	}))

	printActivity("Top Categories", stats.Categories)
	printActivity("Top Payees", stats.Payees)
	printActivity("Accounts", stats.Accounts)

	if stats.Skipped > 0 {
		fmt.Fprintln(os.Stderr, cli.Warn(fmt.Sprintf("\n  %d malformed transactions were skipped", stats.Skipped)))
	}
	return nil
}

func printActivity(title string, rows []model.EntityActivity) {
	if len(rows) == 0 {
		return
	}
	if flagTop > 0 && len(rows) > flagTop {
		rows = rows[:flagTop]
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			cli.Truncate(r.Name, 32),
			cli.FormatMoney(r.SumIncome, flagCurrency),
			cli.FormatMoney(r.SumExpense, flagCurrency),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Name", "Income", "Expense"},
		Rows:    out,
	}))
}

// parseMonthFlag accepts YYYY-MM or YYYY-MM-DD; empty means this month.
func parseMonthFlag(v string) (time.Time, error) {
	if v == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range []string{"2006-01", model.DateLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --month %q, expected YYYY-MM", v)
}

func parseRangeFlags(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q, expected YYYY-MM-DD", from)
	}
	now := time.Now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if to != "" {
		if end, err = time.Parse(model.DateLayout, to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q, expected YYYY-MM-DD", to)
		}
	}
	return start, end, nil
}
