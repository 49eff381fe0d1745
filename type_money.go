package krakenacb

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is an exact CAD amount. All valuation and pool cost arithmetic is
// done in CAD, so the currency is implied rather than carried around.
type Money struct {
	value decimal.Decimal
}

func M[T float32 | float64 | int | int32 | int64 | string | decimal.Decimal](value T) Money {
	return Money{value: newDecimal(value)}
}

func (m Money) Equal(n Money) bool       { return m.value.Equal(n.value) }
func (m Money) LessThan(n Money) bool    { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool { return m.value.GreaterThan(n.value) }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }
func (m Money) Neg() Money               { return Money{value: m.value.Neg()} }
func (m Money) Add(n Money) Money        { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money        { return Money{value: m.value.Sub(n.value)} }
func (m Money) Decimal() decimal.Decimal { return m.value }

// Mul scales the amount by a quantity of units.
func (m Money) Mul(q Quantity) Money { return Money{value: m.value.Mul(q.value)} }

// DivUnits returns the per-unit amount for a quantity of units.
func (m Money) DivUnits(q Quantity) Money { return Money{value: m.value.Div(q.value)} }

// cadCurrency is resolved once; go-money knows the fraction and symbol.
var cadCurrency = *money.New(0, money.CAD).Currency()

// String formats the amount for display, e.g. "$1,234.56".
func (m Money) String() string {
	units := m.value.Shift(int32(cadCurrency.Fraction)).Round(0)
	return cadCurrency.Formatter().Format(units.IntPart())
}

// Fixed returns the amount at reporting precision (2 fraction digits), the
// only place CAD values are ever rounded.
func (m Money) Fixed() string { return m.value.StringFixed(2) }
