package krakenacb

import (
	"fmt"
	"sort"
	"time"
)

// EventKind is the closed set of event kinds the replay engine understands.
// Classification is total: every ledger entry either maps to one of these or
// is deliberately not an event at all.
type EventKind int

const (
	// TradeDisposition is the outflow leg of a trade: taxable.
	TradeDisposition EventKind = iota
	// TradeAcquisition is the inflow leg of a trade: adds cost basis.
	TradeAcquisition
	// RewardIncome is an earn reward: taxable income at receipt fair value,
	// which also becomes the added cost basis.
	RewardIncome
	// InternalTransfer is an allocation move between the exchange's internal
	// wallets: non-taxable, no pool effect.
	InternalTransfer
	// DepositTransferIn brings units in from outside: non-taxable.
	DepositTransferIn
	// WithdrawalTransferOut sends units outside at average cost: non-taxable.
	WithdrawalTransferOut
	// WithdrawalFeeDisposition is the in-kind fee of a withdrawal: taxable.
	WithdrawalFeeDisposition
)

func (k EventKind) String() string {
	switch k {
	case TradeDisposition:
		return "trade_disposition"
	case TradeAcquisition:
		return "trade_acquisition"
	case RewardIncome:
		return "earn_reward_income"
	case InternalTransfer:
		return "internal_transfer"
	case DepositTransferIn:
		return "deposit_transfer_in"
	case WithdrawalTransferOut:
		return "withdrawal_transfer_out"
	case WithdrawalFeeDisposition:
		return "withdrawal_fee_disposition"
	default:
		return "unknown"
	}
}

// ClassifiedEvent is the unit the pool engine replays: one classification
// decision with its originating entry or trade group attached, so every
// report row can be traced back to source rows.
type ClassifiedEvent struct {
	Kind  EventKind
	Time  time.Time
	Refid string
	Txid  string
	Asset string
	Units Quantity // positive units moved by this event

	// Exactly one of the two is set, depending on the kind.
	Group *TradeGroup
	Entry *LedgerEntry
}

// Classify maps the full normalized history to replay-ordered events.
//
// Ordering is deterministic: events sort by time, with trade groups ahead of
// single entries sharing an instant, and the ledger's refid/txid/asset order
// breaking the remaining ties. The two events of a trade group stay adjacent,
// disposition first, and the two events of a fee-bearing withdrawal stay
// adjacent, transfer-out first.
func Classify(l *Ledger, groups map[string]TradeGroup) ([]ClassifiedEvent, error) {
	events := make([]ClassifiedEvent, 0, l.Len())
	seenTrade := make(map[string]struct{})

	for e := range l.Entries() {
		if e.isTradeLeg() {
			if _, ok := seenTrade[e.Refid]; ok {
				continue
			}
			seenTrade[e.Refid] = struct{}{}
			g, ok := groups[e.Refid]
			if !ok {
				return nil, &TradeGroupError{Refid: e.Refid, Reason: "leg without a built group"}
			}
			events = append(events, classifyTrade(g)...)
			continue
		}
		evs, err := classifyEntry(e)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Time.Equal(events[j].Time) {
			return events[i].Time.Before(events[j].Time)
		}
		return events[i].rank() < events[j].rank()
	})
	return events, nil
}

// rank orders kinds sharing an instant: trade groups replay first.
func (ev ClassifiedEvent) rank() int {
	switch ev.Kind {
	case TradeDisposition, TradeAcquisition:
		return 0
	default:
		return 1
	}
}

// classifyTrade emits the disposition and acquisition halves of a trade
// group. A CAD leg has no pool, so it produces no event: spending CAD is not
// a disposition and receiving CAD is not an acquisition.
func classifyTrade(g TradeGroup) []ClassifiedEvent {
	group := g
	events := make([]ClassifiedEvent, 0, 2)
	if g.Out.Asset != "CAD" {
		events = append(events, ClassifiedEvent{
			Kind:  TradeDisposition,
			Time:  g.Time,
			Refid: g.Refid,
			Txid:  g.Txid,
			Asset: g.Out.Asset,
			Units: g.OutUnits(),
			Group: &group,
		})
	}
	if g.In.Asset != "CAD" {
		events = append(events, ClassifiedEvent{
			Kind:  TradeAcquisition,
			Time:  g.Time,
			Refid: g.Refid,
			Txid:  g.Txid,
			Asset: g.In.Asset,
			Units: g.InUnits(),
			Group: &group,
		})
	}
	return events
}

// classifyEntry maps a non-trade entry to zero or more events. Unknown types
// and subtypes are not events: the classifier decides relevance, the
// normalizer never drops rows.
func classifyEntry(e LedgerEntry) ([]ClassifiedEvent, error) {
	entry := e
	base := ClassifiedEvent{
		Time:  e.Time,
		Refid: e.Refid,
		Txid:  e.Txid,
		Asset: e.Asset,
		Entry: &entry,
	}

	switch e.Type {
	case "earn":
		switch e.Subtype {
		case "reward":
			net := e.NetDelta()
			if !net.IsPositive() {
				return nil, fmt.Errorf("earn reward %s: net delta must be positive, got %s", e.Refid, net)
			}
			base.Kind, base.Units = RewardIncome, net
			return []ClassifiedEvent{base}, nil
		case "autoallocation", "allocation", "deallocation":
			base.Kind, base.Units = InternalTransfer, e.NetDelta().Abs()
			return []ClassifiedEvent{base}, nil
		}
		return nil, nil

	case "deposit":
		net := e.NetDelta()
		if !net.IsPositive() {
			return nil, fmt.Errorf("deposit %s: net delta must be positive, got %s", e.Refid, net)
		}
		base.Kind, base.Units = DepositTransferIn, net
		return []ClassifiedEvent{base}, nil

	case "withdrawal":
		if !e.Amount.IsNegative() {
			return nil, fmt.Errorf("withdrawal %s: amount must be negative, got %s", e.Refid, e.Amount)
		}
		out := base
		out.Kind, out.Units = WithdrawalTransferOut, e.Amount.Neg()
		events := []ClassifiedEvent{out}
		if e.Fee.IsPositive() {
			fee := base
			fee.Kind, fee.Units = WithdrawalFeeDisposition, e.Fee
			events = append(events, fee)
		}
		return events, nil
	}

	// Anything else is not tax-relevant.
	return nil, nil
}
