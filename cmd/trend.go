package cmd

import (
	"fmt"
	"math"

	"github.com/budgetlens/budgetlens/internal/cli"

	"github.com/spf13/cobra"
)

var flagTrendMonths int

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Monthly income, expense and net over recent months",
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVarP(&flagTrendMonths, "months", "n", 12, "Number of months including the current one")
	rootCmd.AddCommand(trendCmd)
}

func runTrend(cmd *cobra.Command, _ []string) error {
	if flagTrendMonths < 1 {
		return fmt.Errorf("--months must be at least 1")
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	progress("Fetching %d months of transactions...", flagTrendMonths)
	points, err := s.svc.Trend(cmd.Context(), s.req, flagTrendMonths)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(points)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TREND  Last %d months", flagTrendMonths)))
	fmt.Println()

	var peak float64
	for _, p := range points {
		peak = max(peak, math.Abs(p.Net))
	}

	rows := make([][]string, 0, len(points))
	incomes := make([]float64, 0, len(points))
	expenses := make([]float64, 0, len(points))
	nets := make([]float64, 0, len(points))
	for _, p := range points {
		incomes = append(incomes, p.Income)
		expenses = append(expenses, p.Expense)
		nets = append(nets, p.Net)
		rows = append(rows, []string{
			p.Period,
			cli.FormatMoney(p.Income, flagCurrency),
			cli.FormatMoney(p.Expense, flagCurrency),
			cli.FormatDelta(p.Net, flagCurrency),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Income", "Expense", "Net"},
		Rows:    rows,
		Signed:  []int{3},
	}))

	fmt.Println()
	fmt.Printf("  Income   %s\n", cli.Income(cli.RenderSparkline(incomes)))
	fmt.Printf("  Expense  %s\n", cli.Expense(cli.RenderSparkline(expenses)))
	fmt.Printf("  Net      %s\n", cli.RenderSparkline(nets))
	if peak > 0 {
		fmt.Println()
		for _, p := range points {
			fmt.Printf("%s %s\n", cli.RenderNetBar(p.Period, p.Net, peak, 20), cli.Muted(cli.FormatDelta(p.Net, flagCurrency)))
		}
	}
	return nil
}
