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

// poolsCmd holds the flags for the 'pools' subcommand.
type poolsCmd struct {
	ledgerFile string
	year       int
	fx         string
}

func (*poolsCmd) Name() string     { return "pools" }
func (*poolsCmd) Synopsis() string { return "display asset pools after replaying through a year" }
func (*poolsCmd) Usage() string {
	return `kat pools [-l <ledger.csv>] [-year <year>] [-fx <rate>]

  Replays the ledger through the end of the target year and displays the
  pooled units, cost base and average cost of every asset still held.
`
}

func (c *poolsCmd) SetFlags(f *flag.FlagSet) {
	cfg := config()
	f.StringVar(&c.ledgerFile, "l", cfg.LedgerFile, "Kraken ledger export to read.")
	f.IntVar(&c.year, "year", cfg.Year, "Replay through the end of this year.")
	f.StringVar(&c.fx, "fx", cfg.FallbackFX, "Fallback USD/CAD rate when the history implies none.")
}

func (c *poolsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	report, err := krakenacb.BuildReport(ledger, krakenacb.TaxYear(c.year), fx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.PoolsMarkdown(report))
	return subcommands.ExitSuccess
}
