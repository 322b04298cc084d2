package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/budgetlens/budgetlens/internal/config"
	"github.com/budgetlens/budgetlens/internal/ynab"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	_ = config.LoadEnvFile(flagEnvFile)
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to budgetlens!")
	fmt.Println()

	token := cfg.YNAB.Token
	tokenTitle := "YNAB personal access token"
	if token != "" {
		tokenTitle += fmt.Sprintf(" (current: %s, leave blank to keep)", maskToken(token))
	}
	var entered string
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(tokenTitle).
			Description("Create one under Account Settings > Developer Settings in YNAB.").
			EchoMode(huh.EchoModePassword).
			Value(&entered),
	)).Run(); err != nil {
		return setupAborted(err)
	}
	if entered = strings.TrimSpace(entered); entered != "" {
		token = entered
	}
	if token == "" {
		return errors.New("a token is required")
	}
	cfg.YNAB.Token = token
	if err := verifyToken(cmd.Context(), cfg); err != nil {
		return err
	}

	budget := cfg.YNAB.DefaultBudget
	budgetField := huh.NewInput().
		Title("Default budget id").
		Description("Use last-used to follow whichever budget you opened last.").
		Value(&budget)

	options := budgetOptions(cmd.Context(), cfg)
	var fields []huh.Field
	if len(options) > 0 {
		fields = append(fields, huh.NewSelect[string]().
			Title("Default budget").
			Options(options...).
			Value(&budget))
	} else {
		fields = append(fields, budgetField)
	}

	level := cfg.Log.Level
	fields = append(fields, huh.NewSelect[string]().
		Title("Log level").
		Options(
			huh.NewOption("Warnings and errors", "warn"),
			huh.NewOption("Info", "info"),
			huh.NewOption("Debug", "debug"),
		).
		Value(&level))

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return setupAborted(err)
	}
	cfg.YNAB.DefaultBudget = strings.TrimSpace(budget)
	cfg.Log.Level = level

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `budgetlens setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

// verifyToken rejects a token YNAB refuses. Other failures only print a notice.
func verifyToken(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	user, err := ynab.NewClient(ynab.WithBaseURL(cfg.YNAB.BaseURL)).User(ctx, cfg.YNAB.Token)
	switch {
	case errors.Is(err, ynab.ErrUnauthorized):
		return errors.New("YNAB rejected the token")
	case err != nil:
		fmt.Printf("  Could not verify token (%v)\n\n", err)
	default:
		fmt.Printf("  Token OK (user %s)\n\n", user.ID)
	}
	return nil
}

// budgetOptions lists the token's budgets for selection. Any failure just
// falls back to free-form entry.
func budgetOptions(ctx context.Context, cfg config.Config) []huh.Option[string] {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	budgets, err := ynab.NewClient(ynab.WithBaseURL(cfg.YNAB.BaseURL)).Budgets(ctx, cfg.YNAB.Token)
	if err != nil || len(budgets) == 0 {
		if err != nil {
			fmt.Printf("  Could not list budgets (%v)\n\n", err)
		}
		return nil
	}
	opts := []huh.Option[string]{huh.NewOption("Last used", "last-used")}
	for _, b := range budgets {
		opts = append(opts, huh.NewOption(b.Name, b.ID))
	}
	return opts
}

func setupAborted(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return errors.New("setup canceled")
	}
	return err
}
