package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cacheRoot := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	cacheRoot.AddCommand(
		cacheStatsCmd(),
		cacheClearCmd(),
	)

	return cacheRoot
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show result cache statistics",
		Example: `  gpc cache stats
  gpc cache stats --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			stats, err := c.CacheStats(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(stats)
			}
			return printCacheStats(stats)
		},
	}
}

func cacheClearCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cache entries",
		Example: `  gpc cache clear
  gpc cache clear --prefix 338646`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			removed, err := c.ClearCache(context.Background(), prefix)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d cache entries.\n", removed)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only remove entries whose identifier starts with this prefix")

	return cmd
}
