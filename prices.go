package krakenacb

import (
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Pair identifies an ordered asset pair. The rate of a pair is always "Quote
// units per 1 Base unit": BTC/CAD at 50000 means 1 BTC costs 50000 CAD.
type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string { return p.Base + "/" + p.Quote }

// ParsePair parses "BASE/QUOTE" notation.
func ParsePair(s string) (Pair, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			if i == 0 || i == len(s)-1 {
				break
			}
			return Pair{Base: s[:i], Quote: s[i+1:]}, nil
		}
	}
	return Pair{}, fmt.Errorf("invalid pair %q, want BASE/QUOTE", s)
}

// NoPriorPriceError reports that a pair has no sample at or before the
// queried instant. It is recoverable only for transfer-in valuation; for any
// taxable event it must abort the run.
type NoPriorPriceError struct {
	Pair Pair
	At   time.Time
}

func (e *NoPriorPriceError) Error() string {
	return fmt.Sprintf("no prior price for %s at %s", e.Pair, e.At.Format(time.RFC3339))
}

// PriceSeries is an append-only, time-ordered sequence of implied rate
// samples for one pair. Multiple samples may share an instant; the latest
// appended one wins for queries at that instant.
type PriceSeries struct {
	times []time.Time
	rates []decimal.Decimal
}

// Append adds a sample, keeping the series time-ordered. Samples normally
// arrive in chronological order, so the common case is a plain append.
func (s *PriceSeries) Append(t time.Time, rate decimal.Decimal) {
	if n := len(s.times); n == 0 || !t.Before(s.times[n-1]) {
		s.times = append(s.times, t)
		s.rates = append(s.rates, rate)
		return
	}
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i].After(t) })
	s.times = append(s.times, time.Time{})
	s.rates = append(s.rates, decimal.Decimal{})
	copy(s.times[i+1:], s.times[i:])
	copy(s.rates[i+1:], s.rates[i:])
	s.times[i], s.rates[i] = t, rate
}

// Len returns the number of samples.
func (s *PriceSeries) Len() int { return len(s.times) }

// RateAsOf returns the latest sample at or before t, or false when the series
// has no sample that early.
func (s *PriceSeries) RateAsOf(t time.Time) (decimal.Decimal, bool) {
	// The series is sorted; find the first sample strictly after t, the
	// answer is the one just before it.
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i].After(t) })
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return s.rates[i-1], true
}

// Samples iterates over the series in time order.
func (s *PriceSeries) Samples() iter.Seq2[time.Time, decimal.Decimal] {
	return func(yield func(time.Time, decimal.Decimal) bool) {
		for i, t := range s.times {
			if !yield(t, s.rates[i]) {
				return
			}
		}
	}
}

// PriceResolver answers nearest-prior rate queries from price series implied
// by the trade history itself. It is built in one full pass over the trade
// groups before replay begins and is read-only afterwards.
type PriceResolver struct {
	series     map[Pair]*PriceSeries
	fallbackFX decimal.Decimal // externally supplied USD/CAD rate
}

// NewPriceResolver creates an empty resolver with the given USD/CAD fallback
// rate. The fallback is an input, never discovered, and is the only permitted
// substitute for a missing series sample.
func NewPriceResolver(fallbackFX decimal.Decimal) *PriceResolver {
	return &PriceResolver{
		series:     make(map[Pair]*PriceSeries),
		fallbackFX: fallbackFX,
	}
}

// BuildPriceResolver constructs a resolver from every trade group in the
// history, observed in chronological order.
func BuildPriceResolver(groups map[string]TradeGroup, fallbackFX decimal.Decimal) *PriceResolver {
	r := NewPriceResolver(fallbackFX)
	for _, g := range TradeGroupsInOrder(groups) {
		r.Observe(g)
	}
	return r
}

// FallbackFX returns the externally supplied USD/CAD rate.
func (r *PriceResolver) FallbackFX() decimal.Decimal { return r.fallbackFX }

// Series returns the series for a pair, or nil when the history never implied
// a rate for it.
func (r *PriceResolver) Series(p Pair) *PriceSeries { return r.series[p] }

// Pairs returns the pairs with at least one sample, in lexical order.
func (r *PriceResolver) Pairs() []Pair {
	pairs := make([]Pair, 0, len(r.series))
	for p := range r.series {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })
	return pairs
}

// Observe derives up to one implied rate sample from a trade group. Only
// groups with a CAD or USD leg carry usable price information:
// {X, CAD} implies X/CAD, {X, USD} implies X/USD, and {USD, CAD} implies
// USD/CAD.
func (r *PriceResolver) Observe(g TradeGroup) {
	outUnits, inUnits := g.OutUnits(), g.InUnits()
	if !outUnits.IsPositive() || !inUnits.IsPositive() {
		return
	}
	outAsset, inAsset := g.Out.Asset, g.In.Asset

	switch {
	case outAsset == "USD" && inAsset == "CAD":
		r.append(Pair{"USD", "CAD"}, g.Time, inUnits.Div(outUnits))
	case outAsset == "CAD" && inAsset == "USD":
		r.append(Pair{"USD", "CAD"}, g.Time, outUnits.Div(inUnits))
	case outAsset == "CAD":
		r.append(Pair{inAsset, "CAD"}, g.Time, outUnits.Div(inUnits))
	case inAsset == "CAD":
		r.append(Pair{outAsset, "CAD"}, g.Time, inUnits.Div(outUnits))
	case outAsset == "USD":
		r.append(Pair{inAsset, "USD"}, g.Time, outUnits.Div(inUnits))
	case inAsset == "USD":
		r.append(Pair{outAsset, "USD"}, g.Time, inUnits.Div(outUnits))
	}
}

func (r *PriceResolver) append(p Pair, t time.Time, rate Quantity) {
	s, ok := r.series[p]
	if !ok {
		s = &PriceSeries{}
		r.series[p] = s
	}
	s.Append(t, rate.Decimal())
}

// PriceAt returns the nearest-prior rate for a pair, failing with a
// NoPriorPriceError when the series has no sample at or before t.
func (r *PriceResolver) PriceAt(p Pair, t time.Time) (decimal.Decimal, error) {
	if s, ok := r.series[p]; ok {
		if rate, ok := s.RateAsOf(t); ok {
			return rate, nil
		}
	}
	return decimal.Decimal{}, &NoPriorPriceError{Pair: p, At: t}
}

// USDCAD returns the USD/CAD rate at t, falling back to the externally
// supplied constant when the history implies no rate yet. This is the only
// valuation path with a fallback.
func (r *PriceResolver) USDCAD(t time.Time) decimal.Decimal {
	if rate, err := r.PriceAt(Pair{"USD", "CAD"}, t); err == nil {
		return rate
	}
	return r.fallbackFX
}

// Value computes the CAD value of a quantity of an asset at an instant.
//
//   - CAD is worth itself, no lookup.
//   - USD converts through USDCAD.
//   - Anything else tries its own CAD pair first, then its USD pair composed
//     with USDCAD. When both series are silent the valuation fails with
//     NoPriorPriceError and the caller decides whether that is fatal.
func (r *PriceResolver) Value(asset string, units Quantity, t time.Time) (Money, error) {
	if units.IsZero() {
		return M(0), nil
	}
	switch asset {
	case "CAD":
		return M(units.Decimal()), nil
	case "USD":
		return M(units.Decimal().Mul(r.USDCAD(t))), nil
	}
	if rate, err := r.PriceAt(Pair{asset, "CAD"}, t); err == nil {
		return M(units.Decimal().Mul(rate)), nil
	}
	if rate, err := r.PriceAt(Pair{asset, "USD"}, t); err == nil {
		return M(units.Decimal().Mul(rate).Mul(r.USDCAD(t))), nil
	}
	return Money{}, &NoPriorPriceError{Pair: Pair{asset, "CAD"}, At: t}
}

// ValueTradeLegs values both legs of a trade group in CAD under one shared
// context. A CAD leg prices the trade directly, else a USD leg does through
// USDCAD. When neither leg is a quote currency the resolver looks up the
// leg's own asset first, then the counterleg's: a trade is an exchange at
// fair value, so either leg's series can price it.
func (r *PriceResolver) ValueTradeLegs(g TradeGroup) (outCAD, inCAD Money, err error) {
	outUnits, inUnits := g.OutUnits(), g.InUnits()

	value := func(own LedgerEntry, ownUnits Quantity, other LedgerEntry, otherUnits Quantity) (Money, error) {
		switch {
		case own.Asset == "CAD":
			return M(ownUnits.Decimal()), nil
		case own.Asset == "USD":
			return M(ownUnits.Decimal().Mul(r.USDCAD(g.Time))), nil
		case other.Asset == "CAD":
			return M(otherUnits.Decimal()), nil
		case other.Asset == "USD":
			return M(otherUnits.Decimal().Mul(r.USDCAD(g.Time))), nil
		}
		m, err := r.Value(own.Asset, ownUnits, g.Time)
		if err == nil {
			return m, nil
		}
		if m, otherErr := r.Value(other.Asset, otherUnits, g.Time); otherErr == nil {
			return m, nil
		}
		return Money{}, err
	}

	outCAD, err = value(g.Out, outUnits, g.In, inUnits)
	if err != nil {
		return Money{}, Money{}, fmt.Errorf("trade %s out leg: %w", g.Refid, err)
	}
	inCAD, err = value(g.In, inUnits, g.Out, outUnits)
	if err != nil {
		return Money{}, Money{}, fmt.Errorf("trade %s in leg: %w", g.Refid, err)
	}
	return outCAD, inCAD, nil
}
