package krakenacb

import (
	"fmt"
)

// Pool is the mutable pooled state of one asset: total units held and their
// aggregate adjusted cost base in CAD. Pools are created lazily on first
// inflow and never deleted; a drained pool stays addressable at zero.
type Pool struct {
	Units Quantity
	ACB   Money
}

// AverageCost returns the CAD cost per unit, or zero for an empty pool.
func (p *Pool) AverageCost() Money {
	if p.Units.IsZero() {
		return M(0)
	}
	return p.ACB.DivUnits(p.Units)
}

// add grows the pool by units acquired at a total CAD cost.
func (p *Pool) add(units Quantity, cost Money) {
	p.Units = p.Units.Add(units)
	p.ACB = p.ACB.Add(cost)
}

// remove takes units out of the pool at average cost and returns the cost
// base removed. When the pool drains to exactly zero units the residual
// rounding cost is cleared so the cost base can never go negative.
func (p *Pool) remove(units Quantity) (Money, error) {
	if units.GreaterThan(p.Units) {
		return Money{}, fmt.Errorf("remove %s from pool of %s", units, p.Units)
	}
	cost := p.AverageCost().Mul(units)
	p.Units = p.Units.Sub(units)
	p.ACB = p.ACB.Sub(cost)
	if p.Units.IsZero() {
		p.ACB = M(0)
	}
	return cost, nil
}

// NegativePoolError reports a disposition of more units than the pool holds.
// Pooled ACB cannot go negative, so this always indicates corrupt data or a
// classification bug and must never be masked.
type NegativePoolError struct {
	Asset  string
	Refid  string
	Have   Quantity
	Remove Quantity
}

func (e *NegativePoolError) Error() string {
	return fmt.Sprintf("pool %s would go negative at %s: hold %s, dispose %s",
		e.Asset, e.Refid, e.Have, e.Remove)
}

// Outcome is the immutable financial result of replaying one event: the
// audit record behind a report row. Events with no reportable effect
// (internal transfers, fee-free transfer-outs, CAD legs) produce none.
type Outcome struct {
	Event       ClassifiedEvent
	UnitsIn     Quantity
	UnitsOut    Quantity
	Proceeds    Money
	ACBDisposed Money
	Gain        Money
	Income      Money
	ACBAdded    Money
	// Pool state after the event, cumulative over the full history.
	PoolUnitsAfter Quantity
	PoolACBAfter   Money
	// Warning marks a transfer-in whose basis could not be valued.
	Warning bool
	Note    string
}

// EventType is the report vocabulary for the outcome.
func (o Outcome) EventType() string {
	if o.Warning {
		return "warning_unpriced_transfer_in"
	}
	return o.Event.Kind.String()
}

// Replay owns every asset pool and applies classified events in time order.
// Pools are threaded through this single context, never ambient state, so a
// replay is a pure function of (events, resolver).
type Replay struct {
	pools    map[string]*Pool
	resolver *PriceResolver
}

// NewReplay creates a replay context over a fully built price resolver.
func NewReplay(resolver *PriceResolver) *Replay {
	return &Replay{
		pools:    make(map[string]*Pool),
		resolver: resolver,
	}
}

// Pool returns the pool for an asset, creating it empty on first use.
func (r *Replay) Pool(asset string) *Pool {
	p, ok := r.pools[asset]
	if !ok {
		p = &Pool{Units: Q(0), ACB: M(0)}
		r.pools[asset] = p
	}
	return p
}

// Pools returns the pool map. Callers must treat it as read-only.
func (r *Replay) Pools() map[string]*Pool { return r.pools }

// Run replays all events in order and returns the reportable outcomes.
func (r *Replay) Run(events []ClassifiedEvent) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(events))
	for _, ev := range events {
		o, err := r.Apply(ev)
		if err != nil {
			return nil, err
		}
		if o != nil {
			outcomes = append(outcomes, *o)
		}
	}
	return outcomes, nil
}

// Apply runs one event against the pools. The switch is exhaustive over
// EventKind; an unlisted kind is a programming error, not a skip.
func (r *Replay) Apply(ev ClassifiedEvent) (*Outcome, error) {
	if ev.Asset == "CAD" {
		// CAD has no pool: its cost base is itself. A CAD reward is still
		// income at face value, everything else is a no-op.
		if ev.Kind == RewardIncome {
			return &Outcome{
				Event:   ev,
				UnitsIn: ev.Units,
				Income:  M(ev.Units.Decimal()),
			}, nil
		}
		return nil, nil
	}

	switch ev.Kind {
	case TradeDisposition:
		return r.applyTradeDisposition(ev)
	case TradeAcquisition:
		return r.applyTradeAcquisition(ev)
	case RewardIncome:
		return r.applyReward(ev)
	case DepositTransferIn:
		return r.applyDeposit(ev)
	case WithdrawalTransferOut:
		return r.applyTransferOut(ev)
	case WithdrawalFeeDisposition:
		return r.applyFeeDisposition(ev)
	case InternalTransfer:
		// Allocation moves stay inside the one pooled position per asset.
		return nil, nil
	default:
		return nil, fmt.Errorf("unhandled event kind %d at %s", ev.Kind, ev.Refid)
	}
}

func (r *Replay) applyTradeDisposition(ev ClassifiedEvent) (*Outcome, error) {
	_, inCAD, err := r.resolver.ValueTradeLegs(*ev.Group)
	if err != nil {
		return nil, err
	}
	pool := r.Pool(ev.Asset)
	disposed, err := r.dispose(pool, ev)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Event:          ev,
		UnitsOut:       ev.Units,
		Proceeds:       inCAD,
		ACBDisposed:    disposed,
		Gain:           inCAD.Sub(disposed),
		PoolUnitsAfter: pool.Units,
		PoolACBAfter:   pool.ACB,
	}, nil
}

func (r *Replay) applyTradeAcquisition(ev ClassifiedEvent) (*Outcome, error) {
	outCAD, _, err := r.resolver.ValueTradeLegs(*ev.Group)
	if err != nil {
		return nil, err
	}
	pool := r.Pool(ev.Asset)
	pool.add(ev.Units, outCAD)
	return &Outcome{
		Event:          ev,
		UnitsIn:        ev.Units,
		ACBAdded:       outCAD,
		PoolUnitsAfter: pool.Units,
		PoolACBAfter:   pool.ACB,
	}, nil
}

func (r *Replay) applyReward(ev ClassifiedEvent) (*Outcome, error) {
	income, err := r.resolver.Value(ev.Asset, ev.Units, ev.Time)
	if err != nil {
		// Income must be valued: a silent zero would misstate tax.
		return nil, fmt.Errorf("earn reward %s: %w", ev.Refid, err)
	}
	pool := r.Pool(ev.Asset)
	pool.add(ev.Units, income)
	return &Outcome{
		Event:          ev,
		UnitsIn:        ev.Units,
		Income:         income,
		ACBAdded:       income,
		PoolUnitsAfter: pool.Units,
		PoolACBAfter:   pool.ACB,
	}, nil
}

func (r *Replay) applyDeposit(ev ClassifiedEvent) (*Outcome, error) {
	pool := r.Pool(ev.Asset)
	value, err := r.resolver.Value(ev.Asset, ev.Units, ev.Time)
	if err == nil {
		// A deposit with discoverable prior trade history carries its fair
		// value in as cost base. Non-taxable, so no report row.
		pool.add(ev.Units, value)
		return nil, nil
	}
	// No discoverable price: the units come in with a zero cost base and the
	// run degrades to a warning instead of aborting.
	pool.add(ev.Units, M(0))
	return &Outcome{
		Event:          ev,
		UnitsIn:        ev.Units,
		ACBAdded:       M(0),
		PoolUnitsAfter: pool.Units,
		PoolACBAfter:   pool.ACB,
		Warning:        true,
		Note:           "transfer-in with no discoverable price; assumed 0 CAD basis",
	}, nil
}

func (r *Replay) applyTransferOut(ev ClassifiedEvent) (*Outcome, error) {
	pool := r.Pool(ev.Asset)
	if _, err := r.dispose(pool, ev); err != nil {
		return nil, err
	}
	// A transfer is not a disposition: units leave at average cost with no
	// proceeds and no gain, so there is nothing to report.
	return nil, nil
}

func (r *Replay) applyFeeDisposition(ev ClassifiedEvent) (*Outcome, error) {
	proceeds, err := r.resolver.Value(ev.Asset, ev.Units, ev.Time)
	if err != nil {
		return nil, fmt.Errorf("withdrawal fee %s: %w", ev.Refid, err)
	}
	pool := r.Pool(ev.Asset)
	disposed, err := r.dispose(pool, ev)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Event:          ev,
		UnitsOut:       ev.Units,
		Proceeds:       proceeds,
		ACBDisposed:    disposed,
		Gain:           proceeds.Sub(disposed),
		PoolUnitsAfter: pool.Units,
		PoolACBAfter:   pool.ACB,
	}, nil
}

// dispose removes the event's units at average cost, guarding the pool
// non-negativity invariant.
func (r *Replay) dispose(pool *Pool, ev ClassifiedEvent) (Money, error) {
	if ev.Units.GreaterThan(pool.Units) {
		return Money{}, &NegativePoolError{
			Asset:  ev.Asset,
			Refid:  ev.Refid,
			Have:   pool.Units,
			Remove: ev.Units,
		}
	}
	return pool.remove(ev.Units)
}
