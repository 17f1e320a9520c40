package cmd

import (
	"context"

	"github.com/spf13/cobra"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

func compareCmd() *cobra.Command {
	var (
		locale string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "compare <identifier>",
		Short: "Compare marketplace prices for a product identifier",
		Args:  cobra.ExactArgs(1),
		Example: `  gpc compare 3386460065947
  gpc compare 3386460065947 --title "Dior Sauvage Eau de Toilette 100ml"
  gpc compare 5099206059573 --locale GB --output json`,
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			result, err := c.Compare(context.Background(), domain.ProductQuery{
				Identifier:     args[0],
				Locale:         locale,
				ReferenceTitle: title,
			})
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(result)
			}
			return printCompareResult(result)
		},
	}

	cmd.Flags().StringVar(&locale, "locale", "", "ISO country code (default US)")
	cmd.Flags().StringVar(&title, "title", "", "reference product title for relevance filtering")

	return cmd
}
