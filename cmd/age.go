package cmd

import (
	"fmt"
	"strconv"

	"github.com/budgetlens/budgetlens/internal/cli"
	"github.com/budgetlens/budgetlens/internal/model"

	"github.com/spf13/cobra"
)

var ageCmd = &cobra.Command{
	Use:     "age",
	Aliases: []string{"age-of-money"},
	Short:   "Age of money over recent months",
	RunE:    runAge,
}

func init() {
	rootCmd.AddCommand(ageCmd)
}

func runAge(cmd *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	progress("Fetching budget months...")
	report, err := s.svc.AgeOfMoney(cmd.Context(), s.req)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(report)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("AGE OF MONEY"))
	fmt.Println()

	var peak float64
	for _, p := range report.ChartData {
		if p.AgeOfMoney != nil {
			peak = max(peak, float64(*p.AgeOfMoney))
		}
	}
	for _, p := range report.ChartData {
		if p.AgeOfMoney == nil {
			fmt.Printf("  %-10s %s\n", p.Month, cli.Muted("no data"))
			continue
		}
		fmt.Printf("%s %d days\n", cli.RenderBar(fmt.Sprintf("%-10s", p.Month), float64(*p.AgeOfMoney), peak, 30), *p.AgeOfMoney)
	}

	fmt.Println()
	current := "n/a"
	if report.CurrentAgeOfMoney != nil {
		current = strconv.Itoa(*report.CurrentAgeOfMoney) + " days"
	}
	fmt.Printf("  Current: %s\n", current)
	if report.TrendPercentage != nil && report.TrendDirection != nil {
		arrow := "→"
		switch *report.TrendDirection {
		case model.TrendUp:
			arrow = "↑"
		case model.TrendDown:
			arrow = "↓"
		}
		fmt.Printf("  Trend:   %s %s vs last month\n", arrow, cli.FormatPercent(*report.TrendPercentage))
	}
	return nil
}
