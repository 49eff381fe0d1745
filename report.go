package krakenacb

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Totals aggregates the reportable outcomes of one tax year.
type Totals struct {
	Proceeds     Money
	ACBDisposed  Money
	Gain         Money
	RewardIncome Money
	Warnings     int
}

// PoolSnapshot is the end-of-history state of one asset pool.
type PoolSnapshot struct {
	Asset   string
	Units   Quantity
	ACB     Money
	AvgCost Money
}

// Report is the projection of a full-history replay onto one tax year: the
// in-year outcomes, their totals, and the end-of-history pool snapshot.
// Pool-after columns on each row reflect cumulative state since genesis, not
// year-scoped state, because ACB is cumulative.
type Report struct {
	Year       TaxYear
	FallbackFX decimal.Decimal
	Rows       []Outcome
	Totals     Totals
	Pools      []PoolSnapshot
}

// BuildReport runs the whole pipeline over a ledger: normalize ordering,
// group trades, build price series (first pass), classify, replay against
// the series (second pass), then filter to the target year.
//
// Any fatal error surfaces before a single row is produced, so a caller can
// safely create its output file only after BuildReport returns.
func BuildReport(l *Ledger, year TaxYear, fallbackFX decimal.Decimal) (*Report, error) {
	working := l.Through(int(year))

	groups, err := BuildTradeGroups(working)
	if err != nil {
		return nil, err
	}
	resolver := BuildPriceResolver(groups, fallbackFX)

	events, err := Classify(working, groups)
	if err != nil {
		return nil, err
	}

	replay := NewReplay(resolver)
	outcomes, err := replay.Run(events)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Year:       year,
		FallbackFX: fallbackFX,
		Totals: Totals{
			Proceeds:     M(0),
			ACBDisposed:  M(0),
			Gain:         M(0),
			RewardIncome: M(0),
		},
	}
	for _, o := range outcomes {
		if !year.Contains(o.Event.Time) {
			continue
		}
		report.Rows = append(report.Rows, o)
		report.accumulate(o)
	}
	report.Pools = snapshotPools(replay.Pools())
	return report, nil
}

func (r *Report) accumulate(o Outcome) {
	switch o.Event.Kind {
	case TradeDisposition, WithdrawalFeeDisposition:
		r.Totals.Proceeds = r.Totals.Proceeds.Add(o.Proceeds)
		r.Totals.ACBDisposed = r.Totals.ACBDisposed.Add(o.ACBDisposed)
		r.Totals.Gain = r.Totals.Gain.Add(o.Gain)
	case RewardIncome:
		r.Totals.RewardIncome = r.Totals.RewardIncome.Add(o.Income)
	}
	if o.Warning {
		r.Totals.Warnings++
	}
}

// snapshotPools flattens the pool map into a sorted table. CAD never has a
// pool but the guard keeps the snapshot honest if that ever changes.
func snapshotPools(pools map[string]*Pool) []PoolSnapshot {
	assets := make([]string, 0, len(pools))
	for asset := range pools {
		if asset == "CAD" {
			continue
		}
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	out := make([]PoolSnapshot, 0, len(assets))
	for _, asset := range assets {
		p := pools[asset]
		out = append(out, PoolSnapshot{
			Asset:   asset,
			Units:   p.Units,
			ACB:     p.ACB,
			AvgCost: p.AverageCost(),
		})
	}
	return out
}
