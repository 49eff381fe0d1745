package krakenacb

import (
	"fmt"
	"sort"
	"time"
)

// TradeGroup is one spot trade reassembled from its two ledger legs: the Out
// leg leaves the wallet (negative net delta) and the In leg enters it. Both
// legs share the refid and the instant, which is what lets the trade imply a
// price between the two assets.
type TradeGroup struct {
	Refid string
	Txid  string
	Time  time.Time
	Out   LedgerEntry
	In    LedgerEntry
}

// OutUnits returns the units given away, as a positive quantity.
func (g TradeGroup) OutUnits() Quantity { return g.Out.NetDelta().Neg() }

// InUnits returns the units received, as a positive quantity.
func (g TradeGroup) InUnits() Quantity { return g.In.NetDelta() }

// TradeGroupError reports a trade refid that does not reduce to a clean
// two-leg structure. It is fatal: leg pairing is what financial correctness
// rests on, so a broken group must never be silently skipped.
type TradeGroupError struct {
	Refid  string
	Reason string
}

func (e *TradeGroupError) Error() string {
	return fmt.Sprintf("trade group %s: %s", e.Refid, e.Reason)
}

// BuildTradeGroups collects the spot-trade legs of a ledger into validated
// trade groups, keyed by refid.
func BuildTradeGroups(l *Ledger) (map[string]TradeGroup, error) {
	legs := make(map[string][]LedgerEntry)
	for e := range l.Entries() {
		if e.isTradeLeg() {
			legs[e.Refid] = append(legs[e.Refid], e)
		}
	}

	groups := make(map[string]TradeGroup, len(legs))
	for refid, rows := range legs {
		g, err := newTradeGroup(refid, rows)
		if err != nil {
			return nil, err
		}
		groups[refid] = g
	}
	return groups, nil
}

// TradeGroupsInOrder returns the groups sorted by time then refid, the order
// in which the price resolver observes them.
func TradeGroupsInOrder(groups map[string]TradeGroup) []TradeGroup {
	out := make([]TradeGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].Refid < out[j].Refid
	})
	return out
}

func newTradeGroup(refid string, rows []LedgerEntry) (TradeGroup, error) {
	if len(rows) != 2 {
		return TradeGroup{}, &TradeGroupError{
			Refid:  refid,
			Reason: fmt.Sprintf("expected 2 legs, got %d", len(rows)),
		}
	}
	a, b := rows[0], rows[1]
	if !a.Time.Equal(b.Time) {
		return TradeGroup{}, &TradeGroupError{Refid: refid, Reason: "legs have mismatched times"}
	}

	var out, in LedgerEntry
	switch {
	case a.NetDelta().IsNegative() && b.NetDelta().IsPositive():
		out, in = a, b
	case b.NetDelta().IsNegative() && a.NetDelta().IsPositive():
		out, in = b, a
	default:
		return TradeGroup{}, &TradeGroupError{
			Refid:  refid,
			Reason: "not reducible to one outflow and one inflow",
		}
	}

	return TradeGroup{
		Refid: refid,
		Txid:  out.Txid,
		Time:  out.Time,
		Out:   out,
		In:    in,
	}, nil
}
