package cmd

import (
	"fmt"
	"os"

	"github.com/budgetlens/budgetlens/internal/cli"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:   "category <category-id>",
	Short: "Spending history and top payees of one category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategory,
}

func init() {
	rootCmd.AddCommand(categoryCmd)
}

func runCategory(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	progress("Fetching category transactions...")
	report, err := s.svc.CategoryTransactions(cmd.Context(), s.req, args[0])
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(report)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CATEGORY SPENDING"))
	fmt.Println()

	var peak float64
	spending := make([]float64, 0, len(report.MonthlyChartData))
	for _, m := range report.MonthlyChartData {
		spending = append(spending, m.Spending)
		peak = max(peak, m.Spending)
	}
	for _, m := range report.MonthlyChartData {
		fmt.Printf("%s %s\n", cli.RenderBar(m.Month, m.Spending, peak, 36), cli.Muted(cli.FormatMoney(m.Spending, flagCurrency)))
	}
	fmt.Printf("\n  Trend  %s\n", cli.RenderSparkline(spending))

	if len(report.PayeeChartData) > 0 {
		rows := make([][]string, 0, len(report.PayeeChartData))
		for _, p := range report.PayeeChartData {
			rows = append(rows, []string{cli.Truncate(p.Payee, 32), cli.FormatMoney(p.Activity, flagCurrency)})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Top Payees",
			Headers: []string{"Payee", "Activity"},
			Rows:    rows,
		}))
	}

	if n := len(report.Skipped); n > 0 {
		fmt.Fprintln(os.Stderr, cli.Warn(fmt.Sprintf("\n  %d malformed transactions were skipped", n)))
	}
	return nil
}
