// Package cmd implements the CLI commands for the gtin-price-compare server.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gtin-price-compare",
	Short: "Compare marketplace prices by product identifier",
	Long:  "An API-first service that looks up a product GTIN/UPC/EAN across eBay and Amazon, filters listings against a reference title, and returns the cheapest matching offers per marketplace.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
