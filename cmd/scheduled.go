package cmd

import (
	"fmt"

	"github.com/budgetlens/budgetlens/internal/cli"
	"github.com/budgetlens/budgetlens/internal/model"

	"github.com/spf13/cobra"
)

var scheduledCmd = &cobra.Command{
	Use:   "scheduled",
	Short: "Scheduled payments this month and which have already posted",
	RunE:  runScheduled,
}

func init() {
	rootCmd.AddCommand(scheduledCmd)
}

func runScheduled(cmd *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	progress("Reconciling scheduled transactions...")
	report, err := s.svc.ScheduledTransactions(cmd.Context(), s.req)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(report)
	}

	o := report.Overview
	fmt.Println()
	fmt.Println(cli.RenderTitle("SCHEDULED  " + o.Month))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Scheduled", cli.FormatMoney(o.TotalScheduled, flagCurrency)},
			{"Paid", cli.FormatMoney(o.TotalPaid, flagCurrency)},
			{"To Be Paid", cli.FormatMoney(o.ToBePaid, flagCurrency)},
			{"Remaining Balance", cli.FormatDelta(o.RemainingBalance, flagCurrency)},
			{"Paid So Far", cli.FormatPercent(o.PercentagePaid)},
		},
		Signed: []int{1},
	}))

	if len(report.ScheduledTransactions) == 0 {
		fmt.Println("\n  Nothing else scheduled this month.")
		return nil
	}

	rows := make([][]string, 0, len(report.ScheduledTransactions))
	for _, e := range report.ScheduledTransactions {
		status := e.Status
		if status == model.StatusPaid {
			status = "✓ " + status
		}
		rows = append(rows, []string{
			e.Date,
			cli.Truncate(e.PayeeName, 24),
			cli.Truncate(e.CategoryName, 20),
			cli.Truncate(e.AccountName, 18),
			cli.FormatMoney(e.Amount, flagCurrency),
			status,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Payee", "Category", "Account", "Amount", "Status"},
		Rows:    rows,
	}))
	return nil
}
