package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/budgetlens/budgetlens/internal/cli"
	"github.com/budgetlens/budgetlens/internal/model"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Per-day income and expense for one month",
	RunE:  runDaily,
}

func init() {
	dailyCmd.Flags().StringVarP(&flagMonth, "month", "m", "", "Month as YYYY-MM (defaults to the current month)")
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
	month, err := parseMonthFlag(flagMonth)
	if err != nil {
		return err
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	progress("Fetching %s transactions...", month.Format("January 2006"))
	chart, err := s.svc.MonthlyTransactions(cmd.Context(), s.req, month)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(chart)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY ACTIVITY  %s", month.Format("January 2006"))))
	fmt.Println()

	expenses := make([]float64, 0, len(chart.ChartData))
	rows := make([][]string, 0, len(chart.ChartData))
	for i, p := range chart.ChartData {
		expenses = append(expenses, p.Expense)
		if p.Income == 0 && p.Expense == 0 {
			continue
		}
		d, err := model.ParseDate(p.Date)
		if err != nil {
			continue
		}
		rows = append(rows, []string{
			p.Date,
			cli.FormatDayOfWeek(int(d.Weekday())),
			cli.FormatMoney(p.Income, flagCurrency),
			cli.FormatMoney(p.Expense, flagCurrency),
			topNames(chart.DailySummary[i].ActiveCategories, 3),
		})
	}

	if len(rows) == 0 {
		fmt.Println("  No categorized activity this month.")
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Income", "Expense", "Categories"},
		Rows:    rows,
	}))
	fmt.Println()
	fmt.Printf("  Spending  %s\n", cli.RenderSparkline(expenses))

	if n := len(chart.Skipped); n > 0 {
		fmt.Fprintln(os.Stderr, cli.Warn(fmt.Sprintf("\n  %d malformed transactions were skipped", n)))
	}
	return nil
}

func topNames(rows []model.EntityActivity, n int) string {
	names := make([]string, 0, n)
	for i, r := range rows {
		if i == n {
			names = append(names, fmt.Sprintf("+%d", len(rows)-n))
			break
		}
		names = append(names, r.Name)
	}
	return cli.Truncate(strings.Join(names, ", "), 40)
}
