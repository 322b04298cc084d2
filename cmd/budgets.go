package cmd

import (
	"fmt"

	"github.com/budgetlens/budgetlens/internal/cli"
	"github.com/budgetlens/budgetlens/internal/pipeline"

	"github.com/spf13/cobra"
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "List budgets the token can read",
	RunE:  runBudgets,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List visible categories with this month's figures",
	RunE:  runCategories,
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List open accounts",
	RunE:  runAccounts,
}

func init() {
	rootCmd.AddCommand(budgetsCmd, categoriesCmd, accountsCmd)
}

func runBudgets(cmd *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	budgets, err := s.svc.Budgets(cmd.Context(), s.req.Token)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(budgets)
	}

	rows := make([][]string, 0, len(budgets))
	for _, b := range budgets {
		rows = append(rows, []string{b.Name, b.ID, b.CurrencyFormat.ISOCode, b.LastModifiedOn})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Budgets",
		Headers: []string{"Name", "ID", "Currency", "Last Modified"},
		Rows:    rows,
	}))
	return nil
}

func runCategories(cmd *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	groups, err := s.svc.Categories(cmd.Context(), s.req)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(groups)
	}

	fmt.Println()
	for _, g := range groups {
		rows := make([][]string, 0, len(g.Categories))
		for _, c := range g.Categories {
			rows = append(rows, []string{
				cli.Truncate(c.Name, 28),
				c.ID,
				cli.FormatMoney(major(c.Budgeted), flagCurrency),
				cli.FormatMoney(major(c.Activity), flagCurrency),
				cli.FormatMoney(major(c.Balance), flagCurrency),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   g.Name,
			Headers: []string{"Category", "ID", "Budgeted", "Activity", "Balance"},
			Rows:    rows,
			Signed:  []int{3, 4},
		}))
		fmt.Println()
	}
	return nil
}

func runAccounts(cmd *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	accounts, err := s.svc.Accounts(cmd.Context(), s.req)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(accounts)
	}

	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, []string{
			cli.Truncate(a.Name, 28),
			cli.FormatAccountType(a.Type),
			a.ID,
			cli.FormatMoney(major(a.Balance), flagCurrency),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Accounts",
		Headers: []string{"Name", "Type", "ID", "Balance"},
		Rows:    rows,
		Signed:  []int{3},
	}))
	return nil
}

func major(raw int64) float64 {
	return pipeline.Round2(pipeline.Major(raw))
}
