package krakenacb

import (
	"strconv"
	"time"
)

// TaxYear is the reporting period: one calendar year in UTC.
type TaxYear int

// PreviousTaxYear returns the default policy year, the calendar year before
// the current one.
func PreviousTaxYear() TaxYear { return TaxYear(time.Now().UTC().Year() - 1) }

// Contains reports whether an instant falls inside the tax year.
func (y TaxYear) Contains(t time.Time) bool { return t.UTC().Year() == int(y) }

// After reports whether an instant falls after the end of the tax year.
// Entries after the tax year never take part in a replay for it.
func (y TaxYear) After(t time.Time) bool { return t.UTC().Year() > int(y) }

func (y TaxYear) String() string { return strconv.Itoa(int(y)) }
