// Package renderer turns reports into markdown strings, keeping all
// presentation concerns out of the accounting engine.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/krakenacb"
	md "github.com/nao1215/markdown"
)

// SummaryMarkdown renders the console summary of one tax year report: the
// totals, the ending per-asset pool table, and any warning notice.
func SummaryMarkdown(r *krakenacb.Report) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Crypto Tax Summary %s", r.Year))
	doc.PlainText(fmt.Sprintf("Reportable events: %d", len(r.Rows)))
	doc.PlainText(fmt.Sprintf("Fallback USD/CAD rate: %s", r.FallbackFX.String()))

	doc.H2("Totals")
	doc.Table(md.TableSet{
		Header: []string{"Metric", "CAD"},
		Rows: [][]string{
			{"Proceeds of disposition", r.Totals.Proceeds.String()},
			{"ACB of units disposed", r.Totals.ACBDisposed.String()},
			{"Capital gain (loss)", r.Totals.Gain.String()},
			{"Reward income", r.Totals.RewardIncome.String()},
		},
	})

	doc.H2("Ending Pools")
	if len(r.Pools) == 0 {
		doc.PlainText("No assets held.")
	} else {
		rows := make([][]string, 0, len(r.Pools))
		for _, p := range r.Pools {
			rows = append(rows, []string{p.Asset, p.Units.Rounded(), p.ACB.String(), p.AvgCost.String()})
		}
		doc.Table(md.TableSet{
			Header: []string{"Asset", "Units", "ACB", "Avg Cost"},
			Rows:   rows,
		})
	}

	if r.Totals.Warnings > 0 {
		doc.PlainText(fmt.Sprintf("Warning: %d transfer-in(s) carried a 0 CAD basis; review the warning rows in the CSV.", r.Totals.Warnings))
	}
	return doc.String()
}
