package parsers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLedgerParserParseFile(t *testing.T) {
	path := writeTempCSV(t, "accounts_receivable.csv",
		"invoice_id,date,amount,type,description,customer_id\n"+
			"INV-1,2024-01-15,1500.00,invoice,Widgets,CUST-1\n"+
			"INV-2,2024-02-20,\"$2,250.50\",invoice,Gadgets,CUST-2\n")

	parser := NewLedgerParser(ARSchema, nil)
	entries, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if stats.RecordsValid != 2 {
		t.Errorf("RecordsValid = %d, want 2", stats.RecordsValid)
	}

	first := entries[0]
	if first.ID != "INV-1" {
		t.Errorf("ID = %s, want INV-1", first.ID)
	}
	if !first.Amount.Equal(decimal.NewFromFloat(1500.00)) {
		t.Errorf("Amount = %s, want 1500", first.Amount)
	}
	if first.Party != "CUST-1" {
		t.Errorf("Party = %s, want CUST-1", first.Party)
	}
	if first.Date.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("Date = %s, want 2024-01-15", first.Date.Format("2006-01-02"))
	}
}

func TestLedgerParserSkipsBadRows(t *testing.T) {
	path := writeTempCSV(t, "ledger.csv",
		"invoice_id,date,amount\n"+
			"INV-1,2024-01-15,100.00\n"+
			"INV-2,not-a-date,200.00\n"+
			"INV-3,2024-01-17,not-a-number\n"+
			"INV-4,2024-01-18,400.00\n")

	parser := NewLedgerParser(ARSchema, nil)
	entries, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if stats.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", stats.ErrorCount)
	}
	if len(stats.SampleErrors(5)) != 2 {
		t.Errorf("expected 2 sample errors, got %d", len(stats.SampleErrors(5)))
	}
}

func TestLedgerParserMissingColumn(t *testing.T) {
	path := writeTempCSV(t, "ledger.csv",
		"invoice_id,date\nINV-1,2024-01-15\n")

	parser := NewLedgerParser(ARSchema, nil)
	_, _, err := parser.ParseFile(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for missing amount column")
	}
}

func TestLedgerParserFileNotFound(t *testing.T) {
	parser := NewLedgerParser(ARSchema, nil)
	_, _, err := parser.ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLedgerParserHeaderAliases(t *testing.T) {
	path := writeTempCSV(t, "ledger.csv",
		"Invoice_Number,Date,Amount\nINV-1,2024-01-15,100.00\n")

	parser := NewLedgerParser(&LedgerSchema{
		IDColumn:     "invoice_id",
		DateColumn:   "date",
		AmountColumn: "amount",
		Aliases:      map[string][]string{"invoice_id": {"invoice_number"}},
	}, nil)
	entries, _, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "INV-1" {
		t.Errorf("expected aliased column to resolve, got %+v", entries)
	}
}

func TestLedgerParserCancellation(t *testing.T) {
	path := writeTempCSV(t, "ledger.csv",
		"invoice_id,date,amount\nINV-1,2024-01-15,100.00\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parser := NewLedgerParser(ARSchema, nil)
	_, _, err := parser.ParseFile(ctx, path)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestBankTransactionParser(t *testing.T) {
	path := writeTempCSV(t, "gl_cash.csv",
		"txn_date,txn_amount,txn_description,txn_type,check_num,reference_id\n"+
			"2024-03-01,-450.00,Vendor payment,check,1042,REF-1\n"+
			"2024-03-05,1200.00,Customer deposit,deposit,,REF-2\n"+
			"2024-03-10,-25.00,Monthly service fee,fee,,REF-3\n")

	parser := NewBankTransactionParser(nil)
	txns, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if len(txns) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txns))
	}
	if stats.RecordsValid != 3 {
		t.Errorf("RecordsValid = %d, want 3", stats.RecordsValid)
	}

	if !txns[0].IsCheck() {
		t.Error("first transaction should be a check")
	}
	if !txns[2].IsServiceFee() {
		t.Error("third transaction should be a service fee")
	}
}

func TestInventoryParsers(t *testing.T) {
	ip := NewInventoryParser(nil)

	glPath := writeTempCSV(t, "gl_inventory.csv",
		"item_id,location_id,quantity,unit_cost,date,item_category\n"+
			"ITEM-1,LOC-1,100,5.50,2024-01-10,raw\n"+
			"ITEM-2,LOC-1,40,12.00,2023-06-01,finished\n")
	records, _, err := ip.ParseGLInventory(context.Background(), glPath)
	if err != nil {
		t.Fatalf("ParseGLInventory failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d inventory records, want 2", len(records))
	}
	if !records[0].Value().Equal(decimal.NewFromFloat(550.0)) {
		t.Errorf("Value = %s, want 550", records[0].Value())
	}

	countPath := writeTempCSV(t, "physical_counts.csv",
		"item_id,location_id,quantity,count_date\nITEM-1,LOC-1,98,2024-03-30\n")
	counts, _, err := ip.ParsePhysicalCounts(context.Background(), countPath)
	if err != nil {
		t.Fatalf("ParsePhysicalCounts failed: %v", err)
	}
	if len(counts) != 1 || counts[0].ItemLocationKey() != "ITEM-1|LOC-1" {
		t.Errorf("unexpected counts: %+v", counts)
	}

	mvPath := writeTempCSV(t, "market_values.csv",
		"item_id,market_value,valuation_date\nITEM-1,4.75,2024-03-31\n")
	values, _, err := ip.ParseMarketValues(context.Background(), mvPath)
	if err != nil {
		t.Fatalf("ParseMarketValues failed: %v", err)
	}
	if len(values) != 1 || !values[0].MarketValue.Equal(decimal.NewFromFloat(4.75)) {
		t.Errorf("unexpected market values: %+v", values)
	}

	apPath := writeTempCSV(t, "ap_transactions.csv",
		"transaction_id,vendor_id,transaction_date,quantity,unit_cost,status\n"+
			"TXN-1,VEND-1,2024-04-02,10,3.00,in_transit\n")
	shipments, _, err := ip.ParseAPShipments(context.Background(), apPath)
	if err != nil {
		t.Fatalf("ParseAPShipments failed: %v", err)
	}
	if len(shipments) != 1 || !shipments[0].IsInTransit() {
		t.Errorf("unexpected shipments: %+v", shipments)
	}
	if !shipments[0].AccrualAmount().Equal(decimal.NewFromInt(30)) {
		t.Errorf("AccrualAmount = %s, want 30", shipments[0].AccrualAmount())
	}
}

func TestInvestmentParsers(t *testing.T) {
	ip := NewInvestmentParser(nil)

	invPath := writeTempCSV(t, "investment_details.csv",
		"investment_id,instrument_type,purchase_date,maturity_date,amount,issuer\n"+
			"CE-1,treasury_bill,2024-01-01,2024-03-15,50000,US Treasury\n"+
			"CE-2,commercial_paper,2024-02-01,2024-08-01,25000,Acme Corp\n")
	investments, _, err := ip.ParseInvestments(context.Background(), invPath)
	if err != nil {
		t.Fatalf("ParseInvestments failed: %v", err)
	}
	if len(investments) != 2 {
		t.Fatalf("got %d investments, want 2", len(investments))
	}

	brokerPath := writeTempCSV(t, "broker_statements.csv",
		"investment_id,date,market_value,yield,issuer\n"+
			"CE-1,2024-03-31,50210.00,0.043,US Treasury\n")
	positions, _, err := ip.ParseBrokerPositions(context.Background(), brokerPath)
	if err != nil {
		t.Fatalf("ParseBrokerPositions failed: %v", err)
	}
	if len(positions) != 1 || positions[0].InvestmentID != "CE-1" {
		t.Errorf("unexpected positions: %+v", positions)
	}
}

func TestBatchPaymentParser(t *testing.T) {
	path := writeTempCSV(t, "batch_payments.csv",
		"batch_id,bill_id,date,amount,status\n"+
			"BATCH-1,BILL-1,2024-03-01,500.00,processed\n"+
			"BATCH-1,BILL-2,2024-03-01,750.00,failed\n")

	parser := NewBatchPaymentParser(nil)
	payments, _, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("got %d payments, want 2", len(payments))
	}
	if payments[1].Status != "failed" {
		t.Errorf("Status = %s, want failed", payments[1].Status)
	}
}

func TestParseStatsString(t *testing.T) {
	stats := NewParseStats()
	stats.TotalLines = 10
	stats.RecordsParsed = 9
	stats.RecordsValid = 8
	stats.AddError(3, "amount", "abc", "invalid amount", nil)

	if !stats.HasErrors() {
		t.Error("expected HasErrors to be true")
	}
	want := "Parsed 10 lines, 9 records (8 valid), 1 errors"
	if got := stats.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
