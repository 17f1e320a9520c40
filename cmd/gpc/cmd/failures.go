package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func failuresCmd() *cobra.Command {
	failuresRoot := &cobra.Command{
		Use:   "failures",
		Short: "Inspect recorded lookup failures",
		Long: "Inspect lookups that produced no usable offers. Repeat failures for the\n" +
			"same identifier within the dedup window share one record with an\n" +
			"incremented attempt count.",
	}

	failuresRoot.AddCommand(
		failuresListCmd(),
		failuresClearCmd(),
	)

	return failuresRoot
}

func failuresListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lookup failures, newest first",
		Example: `  gpc failures list
  gpc failures list --limit 20 --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			failures, err := c.ListFailures(context.Background(), limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(failures)
			}
			if len(failures) == 0 {
				fmt.Println("No failures recorded.")
				return nil
			}
			return printFailuresTable(failures)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to return (0 = all)")

	return cmd
}

func failuresClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "clear",
		Short:   "Delete all failure records",
		Example: `  gpc failures clear`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			removed, err := c.ClearFailures(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d failure records.\n", removed)
			return nil
		},
	}
}
