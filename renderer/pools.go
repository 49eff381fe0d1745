package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/krakenacb"
)

// PoolsMarkdown renders the end-of-history pool balances of a report.
func PoolsMarkdown(r *krakenacb.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Asset Pools after %s\n\n", r.Year)
	if len(r.Pools) == 0 {
		fmt.Fprintln(&b, "No assets held.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Asset | Units | ACB (CAD) | Avg Cost (CAD) |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	for _, p := range r.Pools {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			p.Asset, p.Units.Rounded(), p.ACB.Fixed(), p.AvgCost.Fixed())
	}
	return b.String()
}
