package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/krakenacb"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// checkCmd holds the flags for the 'check' subcommand.
type checkCmd struct {
	ledgerFile string
	fx         string
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validate a ledger export without writing a report" }
func (*checkCmd) Usage() string {
	return `kat check [-l <ledger.csv>] [-fx <rate>]

  Parses the ledger, pairs its trade legs, classifies every entry and dry
  runs the full pool replay. Reports the first fatal problem found, or a
  short health summary when the ledger is clean.
`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {
	cfg := config()
	f.StringVar(&c.ledgerFile, "l", cfg.LedgerFile, "Kraken ledger export to read.")
	f.StringVar(&c.fx, "fx", cfg.FallbackFX, "Fallback USD/CAD rate when the history implies none.")
}

func (c *checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	events, err := krakenacb.Classify(ledger, groups)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	// Dry run the replay over the whole history to surface valuation and
	// pool problems the earlier stages cannot see.
	replay := krakenacb.NewReplay(krakenacb.BuildPriceResolver(groups, fx))
	outcomes, err := replay.Run(events)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	warnings := 0
	for _, o := range outcomes {
		if o.Warning {
			warnings++
			fmt.Printf("warning: %s %s at %s has no discoverable price\n",
				o.Event.Refid, o.Event.Asset, krakenacb.FormatReportTime(o.Event.Time))
		}
	}

	fmt.Printf("OK: %d entries, %d trade groups, %d events, %d warnings\n",
		ledger.Len(), len(groups), len(events), warnings)
	return subcommands.ExitSuccess
}
