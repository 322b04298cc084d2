// Package cmd implements the budgetlens CLI commands.
package cmd

import (
	"fmt"

	"github.com/budgetlens/budgetlens/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	_ = config.LoadEnvFile(flagEnvFile)
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [YNAB]")
	if token := config.GetToken(cfg); token != "" {
		fmt.Printf("    Token:          %s\n", maskToken(token))
	} else {
		fmt.Println("    Token:          not configured")
	}
	fmt.Printf("    Base URL:       %s\n", cfg.YNAB.BaseURL)
	fmt.Printf("    Default budget: %s\n", cfg.YNAB.DefaultBudget)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Enabled: %v\n", cfg.Cache.Enabled)
	fmt.Printf("    TTL:     %s\n", cfg.Cache.TTL)
	fmt.Printf("    Path:    %s\n", cfg.CachePath())
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:   %s\n", cfg.Server.Addr)
	fmt.Printf("    Memo size: %d\n", cfg.Server.MemoSize)
	fmt.Printf("    Memo TTL:  %s\n", cfg.Server.MemoTTL)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  [Reconcile]")
	fmt.Printf("    Amount tolerance:     %d milliunits\n", cfg.Reconcile.AmountTolerance)
	fmt.Printf("    Min payee similarity: %.0f%%\n", cfg.Reconcile.MinSimilarity)
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Printf("  Problems:\n    %v\n\n", err)
	}
	fmt.Println("  Run `budgetlens setup` to reconfigure.")
	return nil
}
