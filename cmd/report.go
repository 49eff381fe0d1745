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

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	ledgerFile string
	outputFile string
	year       int
	fx         string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "compute the ACB tax report for one year" }
func (*reportCmd) Usage() string {
	return `kat report [-l <ledger.csv>] [-year <year>] [-o <report.csv>] [-fx <rate>]

  Replays the full ledger history through the target year, computes pooled
  average cost base for every crypto asset, writes one CSV row per taxable
  event of the year, and prints the year's totals. Pass -o - to write the
  CSV to stdout instead of a file.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	cfg := config()
	f.StringVar(&c.ledgerFile, "l", cfg.LedgerFile, "Kraken ledger export to read.")
	f.StringVar(&c.outputFile, "o", "", "Report CSV to write. Defaults to acb-report-<year>.csv, - for stdout.")
	f.IntVar(&c.year, "year", cfg.Year, "Tax year to report on.")
	f.StringVar(&c.fx, "fx", cfg.FallbackFX, "Fallback USD/CAD rate when the history implies none.")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	// The whole replay runs before any output exists: a fatal error must
	// never leave a partial report file behind.
	report, err := krakenacb.BuildReport(ledger, krakenacb.TaxYear(c.year), fx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.outputFile == "-" {
		if err := krakenacb.EncodeReport(os.Stdout, report); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	filename := c.outputFile
	if filename == "" {
		filename = fmt.Sprintf("acb-report-%d.csv", c.year)
	}
	out, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating report file %q: %v\n", filename, err)
		return subcommands.ExitFailure
	}
	defer out.Close()
	if err := krakenacb.EncodeReport(out, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report file %q: %v\n", filename, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.SummaryMarkdown(report))
	fmt.Printf("Report written to %s\n", filename)
	return subcommands.ExitSuccess
}
