package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/krakenacb"
	"github.com/etnz/krakenacb/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// pricesCmd holds the flags for the 'prices' subcommand.
type pricesCmd struct {
	ledgerFile string
	fx         string
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "display the price series implied by the trade history" }
func (*pricesCmd) Usage() string {
	return `kat prices [-l <ledger.csv>] [-fx <rate>]

  Displays every asset pair the trade history implies a price series for,
  with sample counts and the coverage window. Useful to understand which
  transfer-ins and rewards can be valued.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	cfg := config()
	f.StringVar(&c.ledgerFile, "l", cfg.LedgerFile, "Kraken ledger export to read.")
	f.StringVar(&c.fx, "fx", cfg.FallbackFX, "Fallback USD/CAD rate when the history implies none.")
}

func (c *pricesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fx, err := decimal.NewFromString(c.fx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -fx %q: %v\n", c.fx, err)
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedgerFile(c.ledgerFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	groups, err := krakenacb.BuildTradeGroups(ledger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	resolver := krakenacb.BuildPriceResolver(groups, fx)

	printMarkdown(renderer.PricesMarkdown(resolver))
	return subcommands.ExitSuccess
}
