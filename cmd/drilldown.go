package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/budgetlens/budgetlens/internal/cli"
	"github.com/budgetlens/budgetlens/internal/dashboard"
	"github.com/budgetlens/budgetlens/internal/model"

	"github.com/spf13/cobra"
)

var flagLimit int

var payeeCmd = &cobra.Command{
	Use:   "payee <payee-id>",
	Short: "Transactions and totals of one payee, splits unified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDrilldown(cmd.Context(), "PAYEE", args[0], (*dashboard.Service).PayeeTransactions, payeeName)
	},
}

var accountCmd = &cobra.Command{
	Use:   "account <account-id>",
	Short: "Transactions and totals of one account, splits unified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDrilldown(cmd.Context(), "ACCOUNT", args[0], (*dashboard.Service).AccountTransactions, accountName)
	},
}

func init() {
	for _, c := range []*cobra.Command{payeeCmd, accountCmd} {
		c.Flags().IntVarP(&flagLimit, "limit", "l", 25, "Maximum transactions to list")
		rootCmd.AddCommand(c)
	}
}

type drilldownFunc func(*dashboard.Service, context.Context, dashboard.Request, string) (model.UnifiedReport, error)

// nameFunc resolves an id to a display name. It returns "" when unknown.
type nameFunc func(*dashboard.Service, context.Context, dashboard.Request, string) string

func payeeName(svc *dashboard.Service, ctx context.Context, req dashboard.Request, id string) string {
	payees, err := svc.Payees(ctx, req)
	if err != nil {
		return ""
	}
	for _, p := range payees {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

func accountName(svc *dashboard.Service, ctx context.Context, req dashboard.Request, id string) string {
	accounts, err := svc.Accounts(ctx, req)
	if err != nil {
		return ""
	}
	for _, a := range accounts {
		if a.ID == id {
			return a.Name
		}
	}
	return ""
}

func runDrilldown(ctx context.Context, title, id string, fetch drilldownFunc, lookup nameFunc) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	progress("Fetching transactions...")
	report, err := fetch(s.svc, ctx, s.req, id)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(report)
	}

	if name := lookup(s.svc, ctx, s.req, id); name != "" {
		title += ": " + strings.ToUpper(name)
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title + " TRANSACTIONS"))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Transactions", cli.FormatNumber(int64(len(report.Transactions)))},
			{"Spent", cli.FormatMoney(report.Analytics.TotalSpent, flagCurrency)},
			{"Received", cli.FormatMoney(report.Analytics.TotalReceived, flagCurrency)},
		},
	}))

	if len(report.Analytics.CategoryBreakdown) > 0 {
		names := make([]string, 0, len(report.Analytics.CategoryBreakdown))
		for name := range report.Analytics.CategoryBreakdown {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return report.Analytics.CategoryBreakdown[names[i]].Spent > report.Analytics.CategoryBreakdown[names[j]].Spent
		})
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			f := report.Analytics.CategoryBreakdown[name]
			rows = append(rows, []string{cli.Truncate(name, 32), cli.FormatMoney(f.Spent, flagCurrency), cli.FormatMoney(f.Received, flagCurrency)})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "By Category",
			Headers: []string{"Category", "Spent", "Received"},
			Rows:    rows,
		}))
	}

	txns := report.Transactions
	if flagLimit > 0 && len(txns) > flagLimit {
		txns = txns[:flagLimit]
	}
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, unifiedRow(t, ""))
		for _, c := range t.Subtransactions {
			rows = append(rows, unifiedRow(c, "  └ "))
		}
	}
	if len(rows) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Recent",
			Headers: []string{"Date", "Payee", "Category", "Amount"},
			Rows:    rows,
			Signed:  []int{3},
		}))
	}
	return nil
}

func unifiedRow(t model.UnifiedTransaction, indent string) []string {
	date := t.Date
	if indent != "" {
		date = indent
	}
	return []string{date, cli.Truncate(t.PayeeName, 24), cli.Truncate(t.CategoryName, 24), cli.FormatDelta(t.Amount, flagCurrency)}
}
