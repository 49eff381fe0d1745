package krakenacb

import (
	"iter"
	"sort"
	"strings"
	"time"
)

// LedgerEntry is one normalized row of a Kraken-style ledger export.
// Amount is signed: positive for an inflow to the wallet leg, negative for
// an outflow. Fee is non-negative and denominated in the entry's asset.
type LedgerEntry struct {
	Txid    string
	Refid   string
	Time    time.Time
	Type    string // lowercased, e.g. "trade", "earn", "deposit", "withdrawal"
	Subtype string // lowercased, e.g. "tradespot", "reward"
	Asset   string // uppercased currency/token code
	Amount  Quantity
	Fee     Quantity
}

// NetDelta is the entry's effective wallet movement, fee included.
func (e LedgerEntry) NetDelta() Quantity { return e.Amount.Sub(e.Fee) }

// isTradeLeg reports whether the entry is one leg of a spot trade group.
func (e LedgerEntry) isTradeLeg() bool {
	return e.Type == "trade" && e.Subtype == "tradespot"
}

// sortKey breaks ties between entries sharing an instant. Together with the
// timestamp it makes replay order deterministic regardless of file order.
func (e LedgerEntry) sortKey() string {
	return e.Refid + "\x00" + e.Txid + "\x00" + e.Asset
}

// Ledger is a chronologically ordered list of entries.
//
// Entries are always kept sorted by time, then refid, txid and asset, so two
// runs over the same rows replay identically even when the export itself is
// out of order.
type Ledger struct {
	entries []LedgerEntry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make([]LedgerEntry, 0)}
}

// Append adds entries and restores chronological order.
func (l *Ledger) Append(entries ...LedgerEntry) {
	l.entries = append(l.entries, entries...)
	l.stableSort()
}

func (l *Ledger) stableSort() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		a, b := l.entries[i], l.entries[j]
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		return a.sortKey() < b.sortKey()
	})
}

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns an iterator over all entries in chronological order.
func (l *Ledger) Entries() iter.Seq[LedgerEntry] {
	return func(yield func(LedgerEntry) bool) {
		for _, e := range l.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Through returns a ledger restricted to entries dated in `year` or earlier.
// Replay always starts at genesis, so "through year Y" is the working set for
// a tax year Y report.
func (l *Ledger) Through(year int) *Ledger {
	out := NewLedger()
	for _, e := range l.entries {
		if e.Time.Year() <= year {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// OldestTime returns the time of the earliest entry, or the zero time for an
// empty ledger.
func (l *Ledger) OldestTime() time.Time {
	if len(l.entries) == 0 {
		return time.Time{}
	}
	return l.entries[0].Time
}

// NewestTime returns the time of the latest entry, or the zero time for an
// empty ledger.
func (l *Ledger) NewestTime() time.Time {
	if len(l.entries) == 0 {
		return time.Time{}
	}
	return l.entries[len(l.entries)-1].Time
}

// AllAssets iterates over the distinct asset codes seen in the ledger, in
// lexical order.
func (l *Ledger) AllAssets() iter.Seq[string] {
	return func(yield func(string) bool) {
		visited := make(map[string]struct{})
		assets := make([]string, 0)
		for _, e := range l.entries {
			if _, ok := visited[e.Asset]; !ok {
				visited[e.Asset] = struct{}{}
				assets = append(assets, e.Asset)
			}
		}
		sort.Strings(assets)
		for _, a := range assets {
			if !yield(a) {
				return
			}
		}
	}
}

// normalize canonicalizes the free-text fields of a raw entry.
func normalize(e LedgerEntry) LedgerEntry {
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	e.Subtype = strings.ToLower(strings.TrimSpace(e.Subtype))
	e.Asset = strings.ToUpper(strings.TrimSpace(e.Asset))
	e.Txid = strings.TrimSpace(e.Txid)
	e.Refid = strings.TrimSpace(e.Refid)
	return e
}
