package krakenacb

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MalformedRowError reports a ledger row whose required fields cannot be
// parsed. It is fatal: once a row is unreadable the replay order of the whole
// history can no longer be trusted.
type MalformedRowError struct {
	Line  int    // 1-based line in the source file, header included
	Field string // the offending column
	Cause error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed ledger row %d: field %q: %v", e.Line, e.Field, e.Cause)
}

func (e *MalformedRowError) Unwrap() error { return e.Cause }

// ledgerTimeLayouts are the timestamp formats seen in Kraken ledger exports.
var ledgerTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339,
}

// ParseLedgerTime parses a ledger timestamp as a UTC instant.
func ParseLedgerTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range ledgerTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format %q", s)
}

// requiredColumns must be present and parsable on every row.
var requiredColumns = []string{"time", "type", "asset", "amount"}

// DecodeLedger reads a Kraken-style ledger CSV into a sorted Ledger.
//
// The expected columns are txid, refid, time, type, subtype, asset, amount
// and fee; header order does not matter and unknown columns are ignored. A
// missing fee column reads as zero. Any row missing a required field fails
// with a MalformedRowError.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read ledger header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, &MalformedRowError{Line: 1, Field: name, Cause: fmt.Errorf("column missing from header")}
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	ledger := NewLedger()
	entries := make([]LedgerEntry, 0)
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &MalformedRowError{Line: line, Field: "-", Cause: err}
		}

		ts, err := ParseLedgerTime(field(row, "time"))
		if err != nil {
			return nil, &MalformedRowError{Line: line, Field: "time", Cause: err}
		}
		amount, err := parseDecimalField(field(row, "amount"))
		if err != nil {
			return nil, &MalformedRowError{Line: line, Field: "amount", Cause: err}
		}
		fee := decimal.Zero
		if s := strings.TrimSpace(field(row, "fee")); s != "" {
			fee, err = parseDecimalField(s)
			if err != nil {
				return nil, &MalformedRowError{Line: line, Field: "fee", Cause: err}
			}
		}
		if fee.IsNegative() {
			return nil, &MalformedRowError{Line: line, Field: "fee", Cause: fmt.Errorf("fee must be non-negative, got %s", fee)}
		}
		if strings.TrimSpace(field(row, "type")) == "" {
			return nil, &MalformedRowError{Line: line, Field: "type", Cause: fmt.Errorf("empty")}
		}
		if strings.TrimSpace(field(row, "asset")) == "" {
			return nil, &MalformedRowError{Line: line, Field: "asset", Cause: fmt.Errorf("empty")}
		}

		entries = append(entries, normalize(LedgerEntry{
			Txid:    field(row, "txid"),
			Refid:   field(row, "refid"),
			Time:    ts,
			Type:    field(row, "type"),
			Subtype: field(row, "subtype"),
			Asset:   field(row, "asset"),
			Amount:  Q(amount),
			Fee:     Q(fee),
		}))
	}
	ledger.Append(entries...)
	return ledger, nil
}

func parseDecimalField(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}
