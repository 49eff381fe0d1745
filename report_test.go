package krakenacb

import (
	"bytes"
	"strings"
	"testing"
)

// saleWithRewardLedger spans two years: 2024 buys, then a 2025 sale, an earn
// reward priced off the sale, and an unpriced ETH transfer-in.
func saleWithRewardLedger() *Ledger {
	entries := trade("2024-05-01 00:00:00", "R1", "CAD", "-50000", "BTC", "1")
	entries = append(entries, trade("2024-06-01 00:00:00", "R2", "CAD", "-70000", "BTC", "1")...)
	entries = append(entries, trade("2025-02-01 00:00:00", "R3", "BTC", "-0.5", "CAD", "40000")...)
	entries = append(entries,
		entry("2025-03-01 00:00:00", "T4", "R4", "earn", "reward", "BTC", "0.1", "0"),
		entry("2025-04-01 00:00:00", "T5", "R5", "deposit", "", "ETH", "2", "0"),
	)
	return ledgerOf(entries...)
}

func TestBuildReport_SaleWithReward(t *testing.T) {
	r := mustReport(t, saleWithRewardLedger(), 2025, "1.3978")

	// 2025 rows: the sale, the reward, the unpriced transfer-in warning.
	if len(r.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(r.Rows))
	}
	if !r.Totals.Proceeds.Equal(M(40000)) {
		t.Errorf("Totals.Proceeds = %s, want 40000", r.Totals.Proceeds.Fixed())
	}
	if !r.Totals.ACBDisposed.Equal(M(30000)) {
		t.Errorf("Totals.ACBDisposed = %s, want 30000", r.Totals.ACBDisposed.Fixed())
	}
	if !r.Totals.Gain.Equal(M(10000)) {
		t.Errorf("Totals.Gain = %s, want 10000", r.Totals.Gain.Fixed())
	}
	// 0.1 BTC at the nearest prior price of 80000 CAD.
	if !r.Totals.RewardIncome.Equal(M(8000)) {
		t.Errorf("Totals.RewardIncome = %s, want 8000", r.Totals.RewardIncome.Fixed())
	}
	if r.Totals.Warnings != 1 {
		t.Errorf("Totals.Warnings = %d, want 1", r.Totals.Warnings)
	}

	wantPools := []PoolSnapshot{
		{Asset: "BTC", Units: Q("1.6"), ACB: M(98000)},
		{Asset: "ETH", Units: Q(2), ACB: M(0)},
	}
	if len(r.Pools) != len(wantPools) {
		t.Fatalf("len(Pools) = %d, want %d", len(r.Pools), len(wantPools))
	}
	for i, want := range wantPools {
		got := r.Pools[i]
		if got.Asset != want.Asset || !got.Units.Equal(want.Units) || !got.ACB.Equal(want.ACB) {
			t.Errorf("Pools[%d] = %s %s/%s, want %s %s/%s",
				i, got.Asset, got.Units, got.ACB.Fixed(), want.Asset, want.Units, want.ACB.Fixed())
		}
	}
}

func TestBuildReport_YearFilterKeepsCumulativePools(t *testing.T) {
	l := saleWithRewardLedger()

	// A 2024 report replays only through 2024: the acquisitions report, the
	// 2025 events do not exist yet.
	r24 := mustReport(t, l, 2024, "1.3978")
	if len(r24.Rows) != 2 {
		t.Fatalf("2024 len(Rows) = %d, want 2", len(r24.Rows))
	}
	if !r24.Totals.Gain.IsZero() || !r24.Totals.RewardIncome.IsZero() {
		t.Errorf("2024 totals = gain %s income %s, want both 0",
			r24.Totals.Gain.Fixed(), r24.Totals.RewardIncome.Fixed())
	}
	if len(r24.Pools) != 1 || !r24.Pools[0].Units.Equal(Q(2)) || !r24.Pools[0].ACB.Equal(M(120000)) {
		t.Fatalf("2024 pools = %+v, want one BTC pool of 2 / 120000", r24.Pools)
	}

	// The 2025 report carries the 2024 basis: the sale's ACB comes from
	// acquisitions outside the reporting year.
	r25 := mustReport(t, l, 2025, "1.3978")
	if !r25.Totals.ACBDisposed.Equal(M(30000)) {
		t.Errorf("2025 Totals.ACBDisposed = %s, want 30000 from the 2024 buys",
			r25.Totals.ACBDisposed.Fixed())
	}
	for _, row := range r25.Rows {
		if !TaxYear(2025).Contains(row.Event.Time) {
			t.Errorf("row %s at %s is outside the reporting year", row.Event.Refid, row.Event.Time)
		}
	}
}

func TestBuildReport_IsIdempotent(t *testing.T) {
	l := saleWithRewardLedger()

	var first, second bytes.Buffer
	if err := EncodeReport(&first, mustReport(t, l, 2025, "1.3978")); err != nil {
		t.Fatalf("EncodeReport() error = %v", err)
	}
	if err := EncodeReport(&second, mustReport(t, l, 2025, "1.3978")); err != nil {
		t.Fatalf("EncodeReport() error = %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("two runs over the same ledger differ:\n%s\n---\n%s", first.String(), second.String())
	}
}

func TestBuildReport_UnitConservation(t *testing.T) {
	entries := trade("2024-05-01 00:00:00", "R1", "CAD", "-50000", "BTC", "1")
	entries = append(entries, trade("2024-06-01 00:00:00", "R2", "BTC", "-0.25", "ETH", "5")...)
	entries = append(entries,
		entry("2024-07-01 00:00:00", "T3", "R3", "earn", "reward", "BTC", "0.01", "0"),
		entry("2024-08-01 00:00:00", "T4", "R4", "withdrawal", "", "BTC", "-0.2", "0.0005"),
	)
	r := mustReport(t, ledgerOf(entries...), 2024, "1.3978")

	// Inflows minus outflows per asset must equal the final pool units.
	wantBTC := Q(1).Sub(Q("0.25")).Add(Q("0.01")).Sub(Q("0.2")).Sub(Q("0.0005"))
	for _, p := range r.Pools {
		switch p.Asset {
		case "BTC":
			if !p.Units.Equal(wantBTC) {
				t.Errorf("BTC pool units = %s, want %s", p.Units, wantBTC)
			}
		case "ETH":
			if !p.Units.Equal(Q(5)) {
				t.Errorf("ETH pool units = %s, want 5", p.Units)
			}
		default:
			t.Errorf("unexpected pool %s", p.Asset)
		}
	}
	if len(r.Pools) != 2 {
		t.Fatalf("len(Pools) = %d, want 2", len(r.Pools))
	}
}

func TestEncodeReport_Layout(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeReport(&buf, mustReport(t, saleWithRewardLedger(), 2025, "1.3978")); err != nil {
		t.Fatalf("EncodeReport() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("EncodeReport() wrote %d lines, want header + 3 rows", len(lines))
	}

	wantHeader := "time,refid,txid,event_type,asset," +
		"units_in,units_out,proceeds_cad,acb_disposed_cad,gain_cad,income_cad,acb_added_cad," +
		"pool_units_after,pool_acb_cad_after,notes"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}

	wantRows := []string{
		"2025-02-01T00:00:00+00:00,R3,T-R3-1,trade_disposition,BTC,,0.5,40000.00,30000.00,10000.00,,,1.5,90000.00,",
		"2025-03-01T00:00:00+00:00,R4,T4,earn_reward_income,BTC,0.1,,,,,8000.00,8000.00,1.6,98000.00,",
		"2025-04-01T00:00:00+00:00,R5,T5,warning_unpriced_transfer_in,ETH,2,,,,,,0.00,2,0.00," +
			"transfer-in with no discoverable price; assumed 0 CAD basis",
	}
	for i, want := range wantRows {
		if lines[i+1] != want {
			t.Errorf("row %d = %q, want %q", i+1, lines[i+1], want)
		}
	}
}

func TestFormatReportTime(t *testing.T) {
	testCases := []struct {
		ts   string
		want string
	}{
		{"2025-02-01 00:00:00", "2025-02-01T00:00:00+00:00"},
		{"2025-02-01 12:30:45.5", "2025-02-01T12:30:45.5+00:00"},
		{"2025-02-01 12:30:45.123456", "2025-02-01T12:30:45.123456+00:00"},
	}
	for _, tc := range testCases {
		if got := FormatReportTime(at(tc.ts)); got != tc.want {
			t.Errorf("FormatReportTime(%s) = %q, want %q", tc.ts, got, tc.want)
		}
	}
}
