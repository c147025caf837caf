// Package models defines the record types flowing through the reconciliation
// pipeline and the parsing helpers shared by all CSV loaders.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a single row from a subledger or general ledger file. The
// same shape covers AR invoices, AP bills, fixed asset events, prepaid and
// accrued schedules, allowance entries, and GL cash equivalent positions;
// Party holds the customer, vendor, or issuer depending on the domain.
type LedgerEntry struct {
	ID          string          `json:"id" csv:"id"`
	Date        time.Time       `json:"date" csv:"date"`
	Amount      decimal.Decimal `json:"amount" csv:"amount"`
	Type        string          `json:"type,omitempty" csv:"type"`
	Description string          `json:"description,omitempty" csv:"description"`
	Party       string          `json:"party,omitempty" csv:"party"`
}

// Validate performs basic validation on the entry.
func (e *LedgerEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("entry ID cannot be empty")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("entry date cannot be zero")
	}
	return nil
}

// MatchKey returns the composite natural key used for subledger/GL matching:
// the entry ID plus the normalized amount.
func (e *LedgerEntry) MatchKey() string {
	return e.ID + "|" + e.Amount.String()
}

// IDKey returns the entry ID alone, used for duplicate detection.
func (e *LedgerEntry) IDKey() string {
	return e.ID
}

// String returns a short human-readable representation.
func (e *LedgerEntry) String() string {
	return fmt.Sprintf("LedgerEntry{ID: %s, Amount: %s, Date: %s}",
		e.ID, e.Amount.String(), e.Date.Format("2006-01-02"))
}

// DaysOutstanding returns the age of the entry in whole days as of the given
// date. Entries dated after asOf return a negative age.
func (e *LedgerEntry) DaysOutstanding(asOf time.Time) int {
	return int(asOf.Sub(e.Date).Hours() / 24)
}

// AccountingPeriod returns the monthly accounting period of the entry in
// YYYY-MM form.
func (e *LedgerEntry) AccountingPeriod() string {
	return e.Date.Format("2006-01")
}

// ParseDecimalFromString parses a decimal amount, tolerating currency symbols
// and thousand separators.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}

// dateFormats are the formats accepted in CSV date columns, tried in order.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDateWithFormats attempts to parse a date from the common formats seen
// in ledger exports.
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// CompareAmountsWithTolerance reports whether two amounts agree within the
// given tolerance.
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// SumAmounts returns the sum of the amounts of the given entries.
func SumAmounts(entries []LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// FilterByType returns the entries whose Type equals entryType.
func FilterByType(entries []LedgerEntry, entryType string) []LedgerEntry {
	var out []LedgerEntry
	for _, e := range entries {
		if e.Type == entryType {
			out = append(out, e)
		}
	}
	return out
}

// FilterByPeriod returns the entries dated within [start, end], inclusive.
func FilterByPeriod(entries []LedgerEntry, start, end time.Time) []LedgerEntry {
	var out []LedgerEntry
	for _, e := range entries {
		if !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	return out
}
