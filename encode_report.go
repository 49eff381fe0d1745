package krakenacb

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// reportTimeLayout renders UTC instants with an explicit offset, fractional
// seconds only when present.
const reportTimeLayout = "2006-01-02T15:04:05.999999+00:00"

// reportHeader is the output contract: one row per in-year reportable event.
var reportHeader = []string{
	"time", "refid", "txid", "event_type", "asset",
	"units_in", "units_out",
	"proceeds_cad", "acb_disposed_cad", "gain_cad", "income_cad", "acb_added_cad",
	"pool_units_after", "pool_acb_cad_after",
	"notes",
}

// EncodeReport writes the report rows as CSV. All rounding to reporting
// precision happens here and nowhere earlier.
func EncodeReport(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("could not write report header: %w", err)
	}
	for _, o := range r.Rows {
		if err := cw.Write(reportRecord(o)); err != nil {
			return fmt.Errorf("could not write report row %s: %w", o.Event.Refid, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func reportRecord(o Outcome) []string {
	rec := make([]string, len(reportHeader))
	rec[0] = o.Event.Time.UTC().Format(reportTimeLayout)
	rec[1] = o.Event.Refid
	rec[2] = o.Event.Txid
	rec[3] = o.EventType()
	rec[4] = o.Event.Asset

	set := func(i int, s string) { rec[i] = s }
	switch o.Event.Kind {
	case TradeDisposition, WithdrawalFeeDisposition:
		set(6, o.UnitsOut.Rounded())
		set(7, o.Proceeds.Fixed())
		set(8, o.ACBDisposed.Fixed())
		set(9, o.Gain.Fixed())
	case TradeAcquisition:
		set(5, o.UnitsIn.Rounded())
		set(11, o.ACBAdded.Fixed())
	case RewardIncome:
		set(5, o.UnitsIn.Rounded())
		set(10, o.Income.Fixed())
		set(11, o.ACBAdded.Fixed())
	case DepositTransferIn:
		set(5, o.UnitsIn.Rounded())
		set(11, o.ACBAdded.Fixed())
	}
	set(12, o.PoolUnitsAfter.Rounded())
	set(13, o.PoolACBAfter.Fixed())
	set(14, o.Note)
	return rec
}

// FormatReportTime is the canonical row timestamp format, exported for
// display code that mirrors the CSV.
func FormatReportTime(t time.Time) string { return t.UTC().Format(reportTimeLayout) }
