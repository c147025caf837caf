package recon

import (
	"testing"

	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typedEntry(t *testing.T, id string, amount float64, date, entryType, party string) models.LedgerEntry {
	t.Helper()
	entry := ledgerEntry(t, id, amount, date)
	entry.Type = entryType
	entry.Party = party
	return entry
}

func TestReconcileARWriteOffs(t *testing.T) {
	opts := DefaultOptions(mustDate(t, "2024-03-31"))
	ar := []models.LedgerEntry{
		typedEntry(t, "INV-1", 1000, "2024-02-01", "invoice", "CUST-1"),
		typedEntry(t, "INV-2", -200, "2024-03-01", "write_off", "CUST-2"),
		typedEntry(t, "INV-3", -100, "2024-03-10", "write_off", "CUST-3"),
	}
	gl := []models.LedgerEntry{
		typedEntry(t, "INV-1", 1000, "2024-02-01", "invoice", "CUST-1"),
		typedEntry(t, "INV-2", -200, "2024-03-01", "write_off", "CUST-2"),
		typedEntry(t, "INV-3", -100, "2024-03-10", "write_off", "CUST-3"),
	}
	allowance := []models.LedgerEntry{
		typedEntry(t, "INV-2", -200, "2024-03-01", "write_off", ""),
		typedEntry(t, "ALW-1", -500, "2024-01-01", "provision", ""),
	}

	result := ReconcileAR(ar, gl, allowance, opts)

	assert.True(t, result.IsReconciled())
	assert.Len(t, result.WriteOffs.WriteOffs, 2)
	assert.True(t, result.WriteOffs.WriteOffTotal.Equal(decimal.NewFromInt(-300)))
	assert.True(t, result.WriteOffs.AllowanceBalance.Equal(decimal.NewFromInt(-700)))

	// INV-3 was written off in the subledger but never hit the allowance.
	require.Len(t, result.WriteOffs.UnrecordedWriteOffs, 1)
	assert.Equal(t, "INV-3", result.WriteOffs.UnrecordedWriteOffs[0].ID)
}

func TestReconcileARAccruedRevenue(t *testing.T) {
	opts := DefaultOptions(mustDate(t, "2024-03-31"))
	ar := []models.LedgerEntry{
		typedEntry(t, "ACC-1", 400, "2024-03-31", "accrued", "CUST-1"),
		typedEntry(t, "ACC-2", 150, "2024-03-31", "accrued", "CUST-2"),
	}
	gl := []models.LedgerEntry{
		typedEntry(t, "ACC-1", 400, "2024-03-31", "accrued", "CUST-1"),
	}

	result := ReconcileAR(ar, gl, nil, opts)

	require.Len(t, result.AccruedRevenue.UnmatchedAR, 1)
	assert.Equal(t, "ACC-2", result.AccruedRevenue.UnmatchedAR[0].ID)
	assert.Empty(t, result.AccruedRevenue.UnmatchedGL)
	assert.True(t, result.AccruedRevenue.AccruedImpact.Equal(decimal.NewFromInt(150)))
}

func TestReconcileAPAccrualPeriods(t *testing.T) {
	opts := DefaultOptions(mustDate(t, "2024-03-31"))
	ap := []models.LedgerEntry{
		typedEntry(t, "BILL-1", 500, "2024-01-15", "", "VEND-1"),
		typedEntry(t, "BILL-2", 300, "2024-02-10", "", "VEND-2"),
	}
	gl := []models.LedgerEntry{
		typedEntry(t, "BILL-1", 500, "2024-01-15", "", "VEND-1"),
		// Posted in the wrong period.
		typedEntry(t, "BILL-2", 300, "2024-03-10", "", "VEND-2"),
	}

	result := ReconcileAP(ap, gl, nil, nil, opts)

	assert.False(t, result.AccrualPeriods.GAAPCompliant)
	require.Len(t, result.AccrualPeriods.Mismatches, 2)
	assert.Equal(t, "2024-02", result.AccrualPeriods.Mismatches[0].Period)
	assert.Equal(t, "2024-03", result.AccrualPeriods.Mismatches[1].Period)
	assert.True(t, result.AccrualPeriods.Mismatches[0].Difference.Equal(decimal.NewFromInt(300)))
}

func TestReconcileAPCreditCard(t *testing.T) {
	opts := DefaultOptions(mustDate(t, "2024-03-31"))
	ap := []models.LedgerEntry{
		typedEntry(t, "TXN-1", 120, "2024-03-05", "credit_card", "VEND-1"),
		typedEntry(t, "BILL-9", 999, "2024-03-06", "wire", "VEND-2"),
	}
	gl := ap
	statement := []models.LedgerEntry{
		typedEntry(t, "TXN-1", 120, "2024-03-05", "", ""),
		typedEntry(t, "TXN-2", 80, "2024-03-07", "", ""),
	}

	result := ReconcileAP(ap, gl, statement, nil, opts)

	require.Len(t, result.CreditCard.UnmatchedStatement, 1)
	assert.Equal(t, "TXN-2", result.CreditCard.UnmatchedStatement[0].ID)
	assert.Empty(t, result.CreditCard.UnmatchedAP)
	assert.True(t, result.CreditCard.Difference.Equal(decimal.NewFromInt(80)))
	assert.False(t, result.CreditCard.Reconciled)
}

func TestReconcileAPBatchPayments(t *testing.T) {
	opts := DefaultOptions(mustDate(t, "2024-03-31"))
	ap := []models.LedgerEntry{
		typedEntry(t, "BILL-1", 500, "2024-03-01", "", "VEND-1"),
		typedEntry(t, "BILL-2", 750, "2024-03-01", "", "VEND-2"),
		typedEntry(t, "BILL-3", 200, "2024-03-02", "", "VEND-3"),
	}
	batches := []models.BatchPayment{
		{BatchID: "BATCH-1", BillID: "BILL-1", Date: mustDate(t, "2024-03-05"), Amount: decimal.NewFromInt(500), Status: models.BatchStatusProcessed},
		{BatchID: "BATCH-1", BillID: "BILL-2", Date: mustDate(t, "2024-03-05"), Amount: decimal.NewFromInt(750), Status: models.BatchStatusFailed},
	}

	result := ReconcileAP(ap, ap, nil, batches, opts)

	require.Len(t, result.BatchPayments.Batches, 1)
	batch := result.BatchPayments.Batches[0]
	assert.Equal(t, 2, batch.PaymentCount)
	assert.Equal(t, 1, batch.ProcessedCount)
	assert.Equal(t, 1, batch.FailedCount)
	assert.True(t, batch.Total.Equal(decimal.NewFromInt(1250)))

	require.Len(t, result.BatchPayments.FailedPayments, 1)

	// BILL-2 failed and BILL-3 never entered a batch.
	require.Len(t, result.BatchPayments.UnprocessedBills, 2)
}

func TestReconcileAPWithoutOptionalDatasets(t *testing.T) {
	opts := DefaultOptions(mustDate(t, "2024-03-31"))
	ap := []models.LedgerEntry{
		typedEntry(t, "TXN-1", 120, "2024-03-05", "credit_card", "VEND-1"),
		typedEntry(t, "BILL-9", 80, "2024-03-06", "wire", "VEND-2"),
	}

	result := ReconcileAP(ap, ap, nil, nil, opts)

	// No statement to dispute and no batch log to check against: the card
	// bills and batch analyses stay neutral instead of flagging every bill.
	assert.True(t, result.CreditCard.Reconciled)
	assert.True(t, result.CreditCard.Difference.IsZero())
	assert.Empty(t, result.CreditCard.UnmatchedAP)
	assert.Empty(t, result.BatchPayments.UnprocessedBills)
	assert.Empty(t, result.BatchPayments.Batches)
}

func TestReconcileFixedAssetsRollforward(t *testing.T) {
	opts := Options{
		AsOf:      mustDate(t, "2024-03-31"),
		StartDate: mustDate(t, "2024-01-01"),
		EndDate:   mustDate(t, "2024-03-31"),
	}

	register := []models.LedgerEntry{
		typedEntry(t, "FA-1", 10000, "2023-06-01", "purchase", ""),
		typedEntry(t, "FA-2", 5000, "2024-02-01", "purchase", ""),
	}
	gl := []models.LedgerEntry{
		typedEntry(t, "FA-1", 10000, "2023-06-01", "purchase", ""),
		typedEntry(t, "FA-2", 5000, "2024-02-01", "purchase", ""),
		typedEntry(t, "FA-OLD", -2000, "2024-03-15", "disposal", ""),
	}
	depreciation := []models.LedgerEntry{
		typedEntry(t, "DEP-1", 500, "2023-12-31", "depreciation", ""),
		typedEntry(t, "DEP-2", 250, "2024-03-31", "depreciation", ""),
	}

	result := ReconcileFixedAssets(register, gl, depreciation, opts)

	assert.True(t, result.Rollforward.BeginningBalance.Equal(decimal.NewFromInt(10000)))
	assert.True(t, result.Rollforward.EndingBalance.Equal(decimal.NewFromInt(13000)))

	require.Len(t, result.Rollforward.Movements, 2)
	assert.Equal(t, "purchase", result.Rollforward.Movements[0].TransactionType)
	assert.Equal(t, "disposal", result.Rollforward.Movements[1].TransactionType)

	assert.True(t, result.Depreciation.CurrentPeriod.Equal(decimal.NewFromInt(250)))
	assert.True(t, result.Depreciation.Accumulated.Equal(decimal.NewFromInt(750)))
	// Register 15000 less accumulated depreciation 750.
	assert.True(t, result.Depreciation.NetBookValue.Equal(decimal.NewFromInt(14250)))

	// Register 15000 vs GL ending balance 13000.
	assert.True(t, result.Difference.Equal(decimal.NewFromInt(2000)))
	assert.False(t, result.Reconciled)
}

func TestReconcilePrepaidAndAccruedMatchOnID(t *testing.T) {
	opts := DefaultOptions(mustDate(t, "2024-03-31"))

	schedule := []models.LedgerEntry{
		ledgerEntry(t, "PRE-1", 1200, "2024-01-01"),
		ledgerEntry(t, "PRE-2", 600, "2024-02-01"),
	}
	gl := []models.LedgerEntry{
		// Same item, partially amortized on the GL side.
		ledgerEntry(t, "PRE-1", 900, "2024-01-01"),
		ledgerEntry(t, "PRE-2", 600, "2024-02-01"),
	}

	prepaid := ReconcilePrepaid(schedule, gl, opts)
	assert.Empty(t, prepaid.Comparison.OnlySubledger)
	assert.Empty(t, prepaid.Comparison.OnlyGL)
	assert.True(t, prepaid.Comparison.Balance.Difference.Equal(decimal.NewFromInt(300)))
	assert.False(t, prepaid.IsReconciled())

	accrued := ReconcileAccrued(schedule, gl, opts)
	assert.Equal(t, prepaid.Comparison.Balance.Difference, accrued.Comparison.Balance.Difference)
	assert.Equal(t, "accrued_expenses", accrued.Domain())
	assert.Equal(t, "prepaid_expenses", prepaid.Domain())
}
