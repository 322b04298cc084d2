package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/budgetlens/budgetlens/internal/cli"
	"github.com/budgetlens/budgetlens/internal/config"
	"github.com/budgetlens/budgetlens/internal/dashboard"
	"github.com/budgetlens/budgetlens/internal/logger"
	"github.com/budgetlens/budgetlens/internal/reconcile"
	"github.com/budgetlens/budgetlens/internal/store"
	"github.com/budgetlens/budgetlens/internal/ynab"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagBudget   string
	flagToken    string
	flagCurrency string
	flagEnvFile  string
	flagLogLevel string
	flagNoCache  bool
	flagQuiet    bool
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:           "budgetlens",
	Short:         "YNAB spending analytics",
	Long:          "Summaries, trends, rollups and scheduled-payment reconciliation over your YNAB budget.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagBudget, "budget", "b", "", "Budget id (defaults to config, then last-used)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "YNAB personal access token (overrides "+config.EnvToken+")")
	rootCmd.PersistentFlags().StringVar(&flagCurrency, "currency", cli.DefaultCurrency, "ISO currency code used for display")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Load environment variables from this file if present")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the on-disk response cache")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print raw JSON instead of tables")
}

// loadConfig reads .env, the config file and the environment, then applies
// command-line overrides.
func loadConfig() (config.Config, error) {
	if err := config.LoadEnvFile(flagEnvFile); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagToken != "" {
		cfg.YNAB.Token = flagToken
	}
	if flagBudget != "" {
		cfg.YNAB.DefaultBudget = flagBudget
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration in %s:\n%w", config.ConfigPath(), err)
	}
	return cfg, nil
}

// session bundles what a command needs to query the dashboard.
type session struct {
	cfg   config.Config
	svc   *dashboard.Service
	req   dashboard.Request
	log   zerolog.Logger
	close func()
}

// newSession resolves the token and budget for a one-shot command.
func newSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	token := strings.TrimSpace(config.GetToken(cfg))
	if flagToken != "" {
		token = flagToken
	}
	if token == "" {
		return nil, errors.New("no YNAB token configured; run `budgetlens setup` or set " + config.EnvToken)
	}

	svc, closeFn := newService(cfg, log)
	return &session{
		cfg:   cfg,
		svc:   svc,
		log:   log,
		req:   dashboard.Request{Token: token, BudgetID: cfg.YNAB.DefaultBudget},
		close: closeFn,
	}, nil
}

// newService builds the dashboard service over the YNAB client, routing
// upstream reads through the on-disk cache unless disabled. The returned
// func releases the cache.
func newService(cfg config.Config, log zerolog.Logger) (*dashboard.Service, func()) {
	closeFn := func() {}
	opts := []ynab.Option{ynab.WithBaseURL(cfg.YNAB.BaseURL)}
	if cfg.Cache.Enabled && !flagNoCache {
		cache, err := store.Open(cfg.CachePath())
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.CachePath()).Msg("response cache unavailable")
		} else {
			opts = append(opts, ynab.WithCache(cache, cfg.CacheTTL()))
			closeFn = func() { _ = cache.Close() }
		}
	}

	svc := dashboard.New(ynab.NewClient(opts...), dashboard.Config{
		Reconcile: reconcile.Options{
			AmountTolerance: cfg.Reconcile.AmountTolerance,
			MinSimilarity:   cfg.Reconcile.MinSimilarity,
		},
		Logger: &log,
	})
	return svc, closeFn
}

func progress(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func maskToken(key string) string {
	if len(key) > 16 {
		return key[:6] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
