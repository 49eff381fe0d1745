// Command kat computes Canadian adjusted-cost-base tax reports from Kraken
// ledger exports.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/krakenacb/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Completion exits the process when invoked by the shell.
	completion().Complete("kat")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func completion() *complete.Command {
	ledger := predict.Files("*.csv")
	inspect := map[string]complete.Predictor{
		"l":  ledger,
		"fx": predict.Nothing,
	}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"report": {Flags: map[string]complete.Predictor{
				"l":    ledger,
				"o":    predict.Files("*.csv"),
				"year": predict.Nothing,
				"fx":   predict.Nothing,
			}},
			"pools": {Flags: map[string]complete.Predictor{
				"l":    ledger,
				"year": predict.Nothing,
				"fx":   predict.Nothing,
			}},
			"prices": {Flags: inspect},
			"check":  {Flags: inspect},
		},
	}
}
