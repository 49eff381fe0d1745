package renderer

import (
	"fmt"
	"strings"
	"time"

	"github.com/etnz/krakenacb"
	"github.com/shopspring/decimal"
)

// PricesMarkdown renders the implied price series a ledger's trade history
// exposes, one row per discovered pair.
func PricesMarkdown(r *krakenacb.PriceResolver) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Implied Price Series\n\n")
	fmt.Fprintf(&b, "Fallback USD/CAD: %s\n\n", r.FallbackFX())

	pairs := r.Pairs()
	if len(pairs) == 0 {
		fmt.Fprintln(&b, "No trades with a CAD or USD leg: no prices discovered.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Pair | Samples | First | Last | Last Rate |")
	fmt.Fprintln(&b, "|:---|---:|:---|:---|---:|")
	for _, p := range pairs {
		s := r.Series(p)
		var first, last time.Time
		var lastRate decimal.Decimal
		for t, rate := range s.Samples() {
			if first.IsZero() {
				first = t
			}
			last, lastRate = t, rate
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n",
			p, s.Len(),
			krakenacb.FormatReportTime(first), krakenacb.FormatReportTime(last),
			lastRate)
	}
	return b.String()
}
