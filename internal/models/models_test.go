package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"123.45", "123.45", false},
		{"$1,234.56", "1234.56", false},
		{" 99 ", "99", false},
		{"-50.25", "-50.25", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDecimalFromString(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDecimalFromString(%q) expected error, got %s", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimalFromString(%q) unexpected error: %v", tt.input, err)
			continue
		}
		want, _ := decimal.NewFromString(tt.want)
		if !got.Equal(want) {
			t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tt.input, got, want)
		}
	}
}

func TestParseDateWithFormats(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2024-03-31", "2024-03-31", false},
		{"03/31/2024", "2024-03-31", false},
		{"2024/03/31", "2024-03-31", false},
		{"Mar 31, 2024", "2024-03-31", false},
		{"", "", true},
		{"not-a-date", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDateWithFormats(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDateWithFormats(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDateWithFormats(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDateWithFormats(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestCompareAmountsWithTolerance(t *testing.T) {
	tolerance := decimal.New(1, -6)

	a := decimal.NewFromFloat(100.0)
	b := decimal.NewFromFloat(100.0000005)
	if !CompareAmountsWithTolerance(a, b, tolerance) {
		t.Error("amounts within tolerance should compare equal")
	}

	c := decimal.NewFromFloat(100.001)
	if CompareAmountsWithTolerance(a, c, tolerance) {
		t.Error("amounts outside tolerance should not compare equal")
	}
}

func TestLedgerEntryMatchKey(t *testing.T) {
	e1 := LedgerEntry{ID: "INV-1", Amount: decimal.NewFromInt(100)}
	e2 := LedgerEntry{ID: "INV-1", Amount: decimal.NewFromInt(100)}
	e3 := LedgerEntry{ID: "INV-1", Amount: decimal.NewFromInt(101)}

	if e1.MatchKey() != e2.MatchKey() {
		t.Error("identical id and amount should yield the same match key")
	}
	if e1.MatchKey() == e3.MatchKey() {
		t.Error("different amounts should yield different match keys")
	}
}

func TestLedgerEntryDaysOutstanding(t *testing.T) {
	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	e := LedgerEntry{ID: "INV-1", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}

	if got := e.DaysOutstanding(asOf); got != 30 {
		t.Errorf("DaysOutstanding = %d, want 30", got)
	}
}

func TestAccountingPeriod(t *testing.T) {
	e := LedgerEntry{Date: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)}
	if got := e.AccountingPeriod(); got != "2024-02" {
		t.Errorf("AccountingPeriod = %s, want 2024-02", got)
	}
}

func TestSumAmounts(t *testing.T) {
	entries := []LedgerEntry{
		{ID: "1", Amount: decimal.NewFromInt(100)},
		{ID: "2", Amount: decimal.NewFromInt(50)},
		{ID: "3", Amount: decimal.NewFromFloat(-25.5)},
	}

	want := decimal.NewFromFloat(124.5)
	if got := SumAmounts(entries); !got.Equal(want) {
		t.Errorf("SumAmounts = %s, want %s", got, want)
	}

	if got := SumAmounts(nil); !got.IsZero() {
		t.Errorf("SumAmounts(nil) = %s, want 0", got)
	}
}

func TestFilterByPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	entries := []LedgerEntry{
		{ID: "before", Date: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		{ID: "start", Date: start},
		{ID: "mid", Date: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "end", Date: end},
		{ID: "after", Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}

	got := FilterByPeriod(entries, start, end)
	if len(got) != 3 {
		t.Fatalf("FilterByPeriod returned %d entries, want 3", len(got))
	}
	for _, e := range got {
		if e.ID == "before" || e.ID == "after" {
			t.Errorf("entry %s should have been filtered out", e.ID)
		}
	}
}

func TestBankTransactionHelpers(t *testing.T) {
	fee := BankTransaction{Description: "Monthly Service Fee", Amount: decimal.NewFromInt(25)}
	if !fee.IsServiceFee() {
		t.Error("expected service fee detection")
	}

	check := BankTransaction{CheckNumber: "1042", Amount: decimal.NewFromInt(500)}
	if !check.IsCheck() {
		t.Error("expected check detection")
	}
	if !check.IsRoundAmount() {
		t.Error("500 should be a round amount")
	}

	odd := BankTransaction{Amount: decimal.NewFromFloat(123.45)}
	if odd.IsRoundAmount() {
		t.Error("123.45 should not be a round amount")
	}
}

func TestInvestmentMaturity(t *testing.T) {
	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	inv := Investment{
		InvestmentID: "INV-001",
		PurchaseDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}

	if got := inv.DaysToMaturity(asOf); got != 30 {
		t.Errorf("DaysToMaturity = %d, want 30", got)
	}
	if got := inv.HoldingPeriodDays(); got != 120 {
		t.Errorf("HoldingPeriodDays = %d, want 120", got)
	}
}
