// Package main is the entry point for the gpc CLI.
package main

import (
	"github.com/pricegrid/gtin-price-compare/cmd/gpc/cmd"
)

func main() {
	cmd.Execute()
}
