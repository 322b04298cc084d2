package cmd

import (
	"fmt"
	"sort"

	"github.com/budgetlens/budgetlens/internal/cli"
	"github.com/budgetlens/budgetlens/internal/store"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withCache(func(c *store.Cache) error {
			n, err := c.Clear()
			if err != nil {
				return err
			}
			fmt.Printf("  Removed %d cached responses\n", n)
			return nil
		})
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired cached responses",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withCache(func(c *store.Cache) error {
			n, err := c.Purge()
			if err != nil {
				return err
			}
			fmt.Printf("  Purged %d expired responses\n", n)
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(_ *cobra.Command, _ []string) error {
	return withCache(func(c *store.Cache) error {
		st, err := c.Stats()
		if err != nil {
			return err
		}
		endpoints, err := c.Endpoints()
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]any{"stats": st, "endpoints": endpoints})
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Response Cache",
			Headers: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Entries", cli.FormatNumber(int64(st.Entries))},
				{"Expired", cli.FormatNumber(int64(st.Expired))},
				{"Size", cli.FormatNumber(st.Bytes) + " B"},
			},
		}))

		names := make([]string, 0, len(endpoints))
		for name := range endpoints {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name, cli.FormatNumber(int64(endpoints[name]))})
		}
		if len(rows) > 0 {
			fmt.Println()
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   "By Endpoint",
				Headers: []string{"Endpoint", "Entries"},
				Rows:    rows,
			}))
		}
		return nil
	})
}

func withCache(fn func(*store.Cache) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := store.Open(cfg.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}
