// Command genfixtures generates a full set of reconciliation datasets for a
// reporting period. The generated files use the standard dataset names, so a
// directory produced by this tool can be fed directly to 'reconciler run'.
// Known discrepancies are injected into each domain so the reconciliations
// have unmatched items, timing differences, and anomalies to report.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	var (
		output = flag.String("output", "testdata/fixtures", "Output directory for the generated CSV files")
		asOf   = flag.String("as-of", "2024-03-31", "Reporting date (YYYY-MM-DD); the period is the quarter ending here")
		seed   = flag.Int64("seed", 42, "Random seed for reproducible generation")
		size   = flag.Int("size", 25, "Approximate record count per dataset")
	)
	flag.Parse()

	asOfDate, err := time.Parse("2006-01-02", *asOf)
	if err != nil {
		log.Fatalf("Invalid as-of date: %v", err)
	}

	if err := os.MkdirAll(*output, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	g := &generator{
		faker: gofakeit.New(*seed),
		out:   *output,
		asOf:  asOfDate,
		start: asOfDate.AddDate(0, -3, 0).AddDate(0, 0, 1),
		end:   asOfDate,
		size:  *size,
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"bank", g.generateBank},
		{"accounts_receivable", g.generateAR},
		{"accounts_payable", g.generateAP},
		{"fixed_assets", g.generateFixedAssets},
		{"prepaid_expenses", g.generatePrepaid},
		{"accrued_expenses", g.generateAccrued},
		{"inventory", g.generateInventory},
		{"cash_equivalents", g.generateCashEquivalents},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			log.Fatalf("Failed to generate %s datasets: %v", step.name, err)
		}
	}

	fmt.Printf("Generated fixtures in %s\n", *output)
	fmt.Printf("Period: %s to %s (as of %s)\n",
		g.start.Format("2006-01-02"), g.end.Format("2006-01-02"), g.asOf.Format("2006-01-02"))
	fmt.Printf("Seed used: %d\n", *seed)
}

type generator struct {
	faker *gofakeit.Faker
	out   string
	asOf  time.Time
	start time.Time
	end   time.Time
	size  int
}

// row is a CSV record under construction.
type row []string

func (g *generator) write(name string, headers []string, rows []row) error {
	file, err := os.Create(filepath.Join(g.out, name))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// money returns a two-decimal amount in the given range.
func (g *generator) money(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Price(min, max)).Round(2)
}

// periodDate returns a random date within the reporting period.
func (g *generator) periodDate() time.Time {
	days := int(g.end.Sub(g.start).Hours() / 24)
	return g.start.AddDate(0, 0, g.faker.Number(0, days))
}

func date(t time.Time) string { return t.Format("2006-01-02") }

// generateBank writes the bank statement and the GL cash account. Most rows
// appear on both sides; the injected differences are outstanding checks, an
// ACH in transit, a deposit in transit, unrecorded bank service fees, and a
// duplicate GL posting.
func (g *generator) generateBank() error {
	glHeaders := []string{"date", "amount", "description", "type", "check_num"}
	bankHeaders := []string{"reference_id", "txn_date", "txn_amount", "txn_description", "txn_type", "check_num"}

	var glRows, bankRows []row

	for i := 0; i < g.size; i++ {
		txnDate := g.periodDate()
		amount := g.money(50, 20000)
		if g.faker.Bool() {
			amount = amount.Neg()
		}
		description := g.faker.Company() + " payment"
		txnType := "payment"
		if amount.IsPositive() {
			description = g.faker.Company() + " receipt"
			txnType = "deposit"
		}
		glRows = append(glRows, row{date(txnDate), amount.StringFixed(2), description, txnType, ""})
		bankRows = append(bankRows, row{uuid.NewString(), date(txnDate), amount.StringFixed(2), description, txnType, ""})
	}

	// Outstanding checks, GL only. One is dated early enough to be stale.
	checkDates := []time.Time{g.start.AddDate(0, 0, 1), g.end.AddDate(0, 0, -5), g.end.AddDate(0, 0, -2)}
	for i, checkDate := range checkDates {
		amount := g.money(200, 5000).Neg()
		glRows = append(glRows, row{
			date(checkDate), amount.StringFixed(2),
			fmt.Sprintf("Check to %s", g.faker.Company()), "check",
			fmt.Sprintf("%d", 1040+i),
		})
	}

	// ACH and deposit in transit, GL only.
	glRows = append(glRows, row{date(g.end), g.money(100, 2000).Neg().StringFixed(2), "ACH vendor settlement", "ach", ""})
	glRows = append(glRows, row{date(g.end), g.money(500, 8000).StringFixed(2), "Deposit in transit", "deposit", ""})

	// Service fees the GL has not recorded, bank only.
	bankRows = append(bankRows, row{uuid.NewString(), date(g.end.AddDate(0, -1, 0)), "-25.00", "Monthly service fee", "fee", ""})
	bankRows = append(bankRows, row{uuid.NewString(), date(g.end), "-25.00", "Monthly service fee", "fee", ""})

	// Duplicate GL posting of the same receipt.
	dupDate := g.periodDate()
	dup := row{date(dupDate), "1200.00", "Duplicate wire receipt", "deposit", ""}
	glRows = append(glRows, dup, dup)
	bankRows = append(bankRows, row{uuid.NewString(), date(dupDate), "1200.00", "Duplicate wire receipt", "deposit", ""})

	if err := g.write("gl_cash.csv", glHeaders, glRows); err != nil {
		return err
	}
	return g.write("bank_statement.csv", bankHeaders, bankRows)
}

// generateAR writes the AR subledger, the GL control account, and the
// allowance detail. One customer carries an outsized balance, invoices are
// spread across aging buckets, and one write-off is missing from the
// allowance.
func (g *generator) generateAR() error {
	headers := []string{"invoice_id", "customer_id", "date", "amount", "type", "description"}

	customers := make([]string, 6)
	for i := range customers {
		customers[i] = fmt.Sprintf("CUST-%04d", g.faker.Number(1000, 9999))
	}
	dominant := customers[0]

	var arRows, glRows, allowanceRows []row
	agingOffsets := []int{10, 45, 75, 120}

	for i := 0; i < g.size; i++ {
		invoiceID := fmt.Sprintf("INV-%05d", i+1)
		customer := customers[g.faker.Number(0, len(customers)-1)]
		amount := g.money(100, 4000)
		if g.faker.Number(1, 100) <= 40 {
			customer = dominant
			amount = g.money(5000, 15000)
		}
		invoiceDate := g.asOf.AddDate(0, 0, -agingOffsets[g.faker.Number(0, len(agingOffsets)-1)])
		record := row{invoiceID, customer, date(invoiceDate), amount.StringFixed(2), "invoice", g.faker.ProductName()}
		arRows = append(arRows, record)
		glRows = append(glRows, record)
	}

	// Subledger-only invoice and a GL-only posting.
	arRows = append(arRows, row{"INV-90001", dominant, date(g.end.AddDate(0, 0, -3)), "2750.00", "invoice", "Unposted invoice"})
	glRows = append(glRows, row{"INV-90002", customers[1], date(g.end.AddDate(0, 0, -8)), "930.00", "invoice", "Journal without invoice"})

	// Amount mismatch on a shared invoice number.
	arRows = append(arRows, row{"INV-90003", customers[2], date(g.end.AddDate(0, 0, -20)), "1500.00", "invoice", "Disputed balance"})
	glRows = append(glRows, row{"INV-90003", customers[2], date(g.end.AddDate(0, 0, -20)), "1050.00", "invoice", "Disputed balance"})

	// Write-offs. The first two are recorded in the allowance, the third is not.
	writeOffs := []struct {
		id       string
		amount   string
		recorded bool
	}{
		{"INV-80001", "-420.00", true},
		{"INV-80002", "-615.50", true},
		{"INV-80003", "-300.00", false},
	}
	for _, wo := range writeOffs {
		woDate := g.end.AddDate(0, 0, -g.faker.Number(5, 60))
		arRows = append(arRows, row{wo.id, customers[3], date(woDate), wo.amount, "write_off", "Uncollectible"})
		glRows = append(glRows, row{wo.id, customers[3], date(woDate), wo.amount, "write_off", "Uncollectible"})
		if wo.recorded {
			allowanceRows = append(allowanceRows, row{wo.id, customers[3], date(woDate), wo.amount, "write_off", ""})
		}
	}
	allowanceRows = append(allowanceRows, row{"ALW-PROV-1", "", date(g.end), "-2500.00", "provision", ""})

	// Accrued revenue recognized at different amounts on the two sides.
	arRows = append(arRows, row{"ACR-70001", dominant, date(g.end), "1800.00", "accrued", "Unbilled services"})
	glRows = append(glRows, row{"ACR-70001", dominant, date(g.end), "1650.00", "accrued", "Unbilled services"})

	if err := g.write("accounts_receivable.csv", headers, arRows); err != nil {
		return err
	}
	if err := g.write("gl_accounts_receivable.csv", headers, glRows); err != nil {
		return err
	}
	return g.write("allowance_for_doubtful_accounts.csv", headers, allowanceRows)
}

// generateAP writes the AP subledger, the GL control account, the credit card
// statement, and the batch payment log. One bill lands in different periods
// on the two sides, one card charge is missing from AP, and the batch log
// carries failed and pending payments.
func (g *generator) generateAP() error {
	headers := []string{"bill_id", "vendor_id", "date", "amount", "payment_method", "description"}

	vendors := make([]string, 8)
	for i := range vendors {
		vendors[i] = fmt.Sprintf("VEND-%04d", g.faker.Number(1000, 9999))
	}

	var apRows, glRows []row
	methods := []string{"check", "ach", "wire"}
	var billIDs []string

	for i := 0; i < g.size; i++ {
		billID := fmt.Sprintf("BILL-%05d", i+1)
		billIDs = append(billIDs, billID)
		record := row{
			billID,
			vendors[g.faker.Number(0, len(vendors)-1)],
			date(g.periodDate()),
			g.money(50, 8000).StringFixed(2),
			methods[g.faker.Number(0, len(methods)-1)],
			g.faker.ProductName(),
		}
		apRows = append(apRows, record)
		glRows = append(glRows, record)
	}

	// Same bill posted in March by AP and in April by the GL.
	apRows = append(apRows, row{"BILL-90001", vendors[0], date(g.end), "2400.00", "ach", "Quarter-end invoice"})
	glRows = append(glRows, row{"BILL-90001", vendors[0], date(g.end.AddDate(0, 0, 1)), "2400.00", "ach", "Quarter-end invoice"})

	// Credit card charges. The last statement line never reached AP.
	ccHeaders := []string{"transaction_id", "date", "amount", "description"}
	var ccRows []row
	for i := 0; i < 4; i++ {
		txnID := fmt.Sprintf("CC-%05d", i+1)
		txnDate := g.periodDate()
		amount := g.money(20, 900)
		merchant := g.faker.Company()
		record := row{txnID, vendors[g.faker.Number(0, len(vendors)-1)], date(txnDate), amount.StringFixed(2), "credit_card", merchant}
		apRows = append(apRows, record)
		glRows = append(glRows, record)
		ccRows = append(ccRows, row{txnID, date(txnDate), amount.StringFixed(2), merchant})
	}
	ccRows = append(ccRows, row{"CC-90001", date(g.end.AddDate(0, 0, -1)), "312.40", "Unsubmitted card charge"})

	// Batch payments over a sample of the bills.
	batchHeaders := []string{"batch_id", "bill_id", "date", "amount", "status"}
	var batchRows []row
	statuses := []string{"processed", "processed", "processed", "failed", "pending"}
	for i, billID := range billIDs[:len(billIDs)/2] {
		batchID := fmt.Sprintf("BATCH-%03d", i/5+1)
		batchRows = append(batchRows, row{
			batchID, billID, date(g.periodDate()),
			g.money(50, 8000).StringFixed(2),
			statuses[g.faker.Number(0, len(statuses)-1)],
		})
	}

	if err := g.write("accounts_payable.csv", headers, apRows); err != nil {
		return err
	}
	if err := g.write("gl_accounts_payable.csv", headers, glRows); err != nil {
		return err
	}
	if err := g.write("credit_card_statement.csv", ccHeaders, ccRows); err != nil {
		return err
	}
	return g.write("batch_payments.csv", batchHeaders, batchRows)
}

// generateFixedAssets writes the asset register, the GL asset account, and
// the depreciation detail. The register carries one purchase the GL has not
// recorded yet.
func (g *generator) generateFixedAssets() error {
	headers := []string{"asset_id", "date", "amount", "transaction_type", "description"}

	var registerRows, glRows, depreciationRows []row

	// Opening balance purchases before the period.
	for i := 0; i < 5; i++ {
		assetID := fmt.Sprintf("FA-%04d", i+1)
		purchaseDate := g.start.AddDate(0, -g.faker.Number(2, 18), 0)
		amount := g.money(5000, 60000)
		record := row{assetID, date(purchaseDate), amount.StringFixed(2), "purchase", g.faker.ProductName()}
		registerRows = append(registerRows, record)
		glRows = append(glRows, record)
	}

	// In-period activity.
	purchase := row{"FA-0101", date(g.periodDate()), "18500.00", "purchase", "Delivery vehicle"}
	disposal := row{"FA-0003", date(g.periodDate()), "-7200.00", "disposal", "Traded-in equipment"}
	registerRows = append(registerRows, purchase, disposal)
	glRows = append(glRows, purchase, disposal)

	// Register-only purchase awaiting GL posting.
	registerRows = append(registerRows, row{"FA-0102", date(g.end.AddDate(0, 0, -2)), "9400.00", "purchase", "Lab instrument"})

	// Monthly depreciation entries, current quarter plus prior history.
	for month := -14; month <= 0; month++ {
		entryDate := g.end.AddDate(0, month, 0)
		depreciationRows = append(depreciationRows, row{
			fmt.Sprintf("DEP-%s", entryDate.Format("2006-01")),
			date(entryDate), "-1250.00", "depreciation", "Monthly depreciation",
		})
	}

	if err := g.write("fixed_assets.csv", headers, registerRows); err != nil {
		return err
	}
	if err := g.write("gl_fixed_assets.csv", headers, glRows); err != nil {
		return err
	}
	return g.write("gl_depreciation.csv", headers, depreciationRows)
}

func (g *generator) generatePrepaid() error {
	return g.generateSchedule("prepaid_expenses.csv", "gl_prepaid_expenses.csv", "prepaid_id", "PRE")
}

func (g *generator) generateAccrued() error {
	return g.generateSchedule("accrued_expenses.csv", "gl_accrued_expenses.csv", "accrual_id", "ACC")
}

// generateSchedule writes an expense schedule and its GL counterpart. These
// domains match on the identifier alone, so the injected differences are an
// amount drift on a shared item and one item missing from each side.
func (g *generator) generateSchedule(scheduleFile, glFile, idColumn, prefix string) error {
	headers := []string{idColumn, "date", "amount", "description"}

	var scheduleRows, glRows []row
	for i := 0; i < g.size/2; i++ {
		id := fmt.Sprintf("%s-%04d", prefix, i+1)
		record := row{id, date(g.periodDate()), g.money(100, 5000).StringFixed(2), g.faker.ProductName()}
		scheduleRows = append(scheduleRows, record)
		glRows = append(glRows, record)
	}

	driftDate := g.periodDate()
	scheduleRows = append(scheduleRows, row{prefix + "-9001", date(driftDate), "1200.00", "Amortization drift"})
	glRows = append(glRows, row{prefix + "-9001", date(driftDate), "1100.00", "Amortization drift"})

	scheduleRows = append(scheduleRows, row{prefix + "-9002", date(g.end), "640.00", "Schedule only"})
	glRows = append(glRows, row{prefix + "-9003", date(g.end), "480.00", "GL only"})

	if err := g.write(scheduleFile, headers, scheduleRows); err != nil {
		return err
	}
	return g.write(glFile, headers, glRows)
}

// generateInventory writes the GL inventory positions, the physical counts,
// the market values, and the AP shipment transactions. Ages are spread so the
// obsolescence buckets all fill, two items count short, one location goes
// uncounted, one item prices below cost, and two receipts sit in transit past
// the cutoff.
func (g *generator) generateInventory() error {
	glHeaders := []string{"item_id", "location_id", "item_category", "quantity", "unit_cost", "date"}
	countHeaders := []string{"item_id", "location_id", "quantity", "count_date"}
	marketHeaders := []string{"item_id", "market_value", "valuation_date"}
	shipmentHeaders := []string{"transaction_id", "vendor_id", "transaction_date", "quantity", "unit_cost", "status"}

	locations := []string{"WH-EAST", "WH-WEST"}
	categories := []string{"raw_materials", "finished_goods", "packaging"}
	ageDays := []int{20, 120, 250, 420}

	var glRows, countRows, marketRows []row

	for i := 0; i < g.size; i++ {
		itemID := fmt.Sprintf("ITEM-%04d", i+1)
		location := locations[g.faker.Number(0, len(locations)-1)]
		quantity := g.faker.Number(10, 500)
		unitCost := g.money(2, 80)
		receivedDate := g.asOf.AddDate(0, 0, -ageDays[g.faker.Number(0, len(ageDays)-1)])

		glRows = append(glRows, row{
			itemID, location, categories[g.faker.Number(0, len(categories)-1)],
			fmt.Sprintf("%d", quantity), unitCost.StringFixed(2), date(receivedDate),
		})

		countedQuantity := quantity
		switch i {
		case 3, 7:
			countedQuantity = quantity - g.faker.Number(1, 5)
		case 11:
			// Left uncounted.
			continue
		}
		countRows = append(countRows, row{itemID, location, fmt.Sprintf("%d", countedQuantity), date(g.end)})

		marketValue := unitCost.Mul(decimal.NewFromFloat(1.1)).Round(2)
		if i == 5 {
			marketValue = unitCost.Mul(decimal.NewFromFloat(0.7)).Round(2)
		}
		marketRows = append(marketRows, row{itemID, marketValue.StringFixed(2), date(g.end)})
	}

	shipmentRows := []row{
		{uuid.NewString(), "VEND-7001", date(g.end.AddDate(0, 0, -4)), "40", "12.50", "received"},
		{uuid.NewString(), "VEND-7001", date(g.end.AddDate(0, 0, 2)), "25", "9.80", "in_transit"},
		{uuid.NewString(), "VEND-7002", date(g.end.AddDate(0, 0, 5)), "60", "4.25", "in_transit"},
		{uuid.NewString(), "VEND-7002", date(g.end.AddDate(0, 0, 3)), "15", "30.00", "received"},
	}

	if err := g.write("gl_inventory.csv", glHeaders, glRows); err != nil {
		return err
	}
	if err := g.write("physical_counts.csv", countHeaders, countRows); err != nil {
		return err
	}
	if err := g.write("market_values.csv", marketHeaders, marketRows); err != nil {
		return err
	}
	return g.write("ap_transactions.csv", shipmentHeaders, shipmentRows)
}

// generateCashEquivalents writes the GL positions, the investment details,
// and the broker statements. One instrument matures past the 90-day limit,
// one issuer dominates the portfolio, and one GL position has no broker
// price.
func (g *generator) generateCashEquivalents() error {
	glHeaders := []string{"investment_id", "date", "amount", "instrument_type", "description"}
	detailHeaders := []string{"investment_id", "instrument_type", "issuer", "amount", "purchase_date", "maturity_date"}
	brokerHeaders := []string{"investment_id", "date", "market_value", "yield", "issuer"}

	instruments := []string{"treasury_bill", "commercial_paper", "money_market"}
	issuers := []string{"US Treasury", "First National", "Harbor Capital"}

	var glRows, detailRows, brokerRows []row

	for i := 0; i < 8; i++ {
		investmentID := fmt.Sprintf("CE-%04d", i+1)
		instrument := instruments[g.faker.Number(0, len(instruments)-1)]
		issuer := issuers[0]
		if i >= 6 {
			issuer = issuers[g.faker.Number(1, len(issuers)-1)]
		}
		amount := g.money(20000, 150000)
		purchaseDate := g.asOf.AddDate(0, 0, -g.faker.Number(20, 80))
		maturityDate := g.asOf.AddDate(0, 0, g.faker.Number(10, 85))
		if i == 4 {
			// Term exceeds the cash equivalent maturity limit.
			maturityDate = g.asOf.AddDate(0, 0, 150)
		}

		glRows = append(glRows, row{investmentID, date(purchaseDate), amount.StringFixed(2), instrument, issuer})
		detailRows = append(detailRows, row{
			investmentID, instrument, issuer, amount.StringFixed(2),
			date(purchaseDate), date(maturityDate),
		})

		if i == 7 {
			// No broker price for this position.
			continue
		}
		marketValue := amount.Mul(decimal.NewFromFloat(1.004)).Round(2)
		yield := fmt.Sprintf("%.4f", g.faker.Float64Range(0.03, 0.055))
		brokerRows = append(brokerRows, row{investmentID, date(g.asOf), marketValue.StringFixed(2), yield, issuer})
	}

	if err := g.write("gl_cash_equivalents.csv", glHeaders, glRows); err != nil {
		return err
	}
	if err := g.write("investment_details.csv", detailHeaders, detailRows); err != nil {
		return err
	}
	return g.write("broker_statements.csv", brokerHeaders, brokerRows)
}
