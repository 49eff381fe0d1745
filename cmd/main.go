// Package cmd implements the CLI application to compute Canadian ACB tax
// reports from Kraken ledger exports.
package cmd

import (
	"fmt"
	"os"

	"github.com/etnz/krakenacb"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package calls Register(), then Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reportCmd{}, "reports")
	c.Register(&poolsCmd{}, "reports")

	c.Register(&checkCmd{}, "inspection")
	c.Register(&pricesCmd{}, "inspection")
}

// DecodeLedgerFile reads and normalizes a Kraken ledger export CSV.
func DecodeLedgerFile(filename string) (*krakenacb.Ledger, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open ledger %q: %w", filename, err)
	}
	defer f.Close()

	l, err := krakenacb.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode ledger %q: %w", filename, err)
	}
	return l, nil
}
