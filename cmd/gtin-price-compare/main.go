// Package main is the entry point for the gtin-price-compare server.
package main

import (
	"os"

	"github.com/pricegrid/gtin-price-compare/cmd/gtin-price-compare/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
