package krakenacb

import (
	"testing"
	"time"
)

// entry builds a normalized ledger entry for tests.
func entry(ts, txid, refid, typ, subtype, asset, amount, fee string) LedgerEntry {
	t, err := ParseLedgerTime(ts)
	if err != nil {
		panic(err)
	}
	return normalize(LedgerEntry{
		Txid:    txid,
		Refid:   refid,
		Time:    t,
		Type:    typ,
		Subtype: subtype,
		Asset:   asset,
		Amount:  Q(amount),
		Fee:     Q(fee),
	})
}

// trade builds the two legs of a spot trade sharing one refid and instant.
func trade(ts, refid, outAsset, outAmount, inAsset, inAmount string) []LedgerEntry {
	return []LedgerEntry{
		entry(ts, "T-"+refid+"-1", refid, "trade", "tradespot", outAsset, outAmount, "0"),
		entry(ts, "T-"+refid+"-2", refid, "trade", "tradespot", inAsset, inAmount, "0"),
	}
}

// ledgerOf builds a sorted ledger from entries.
func ledgerOf(entries ...LedgerEntry) *Ledger {
	l := NewLedger()
	l.Append(entries...)
	return l
}

// mustReport builds a report and fails the test on any pipeline error.
func mustReport(t *testing.T, l *Ledger, year TaxYear, fx string) *Report {
	t.Helper()
	r, err := BuildReport(l, year, Q(fx).Decimal())
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	return r
}

// at is a shorthand timestamp parser for query times.
func at(ts string) time.Time {
	t, err := ParseLedgerTime(ts)
	if err != nil {
		panic(err)
	}
	return t
}
