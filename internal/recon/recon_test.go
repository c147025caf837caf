package recon

import (
	"testing"
	"time"

	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return date
}

func ledgerEntry(t *testing.T, id string, amount float64, date string) models.LedgerEntry {
	t.Helper()
	return models.LedgerEntry{
		ID:     id,
		Date:   mustDate(t, date),
		Amount: decimal.NewFromFloat(amount),
	}
}

func TestCompareTotals(t *testing.T) {
	cmp := CompareTotals(decimal.NewFromFloat(100.50), decimal.NewFromFloat(100.50))
	assert.True(t, cmp.Reconciled)
	assert.True(t, cmp.Difference.IsZero())

	cmp = CompareTotals(decimal.NewFromFloat(100.50), decimal.NewFromFloat(100.00))
	assert.False(t, cmp.Reconciled)
	assert.True(t, cmp.Difference.Equal(decimal.NewFromFloat(0.50)))

	// A difference exactly at the tolerance still reconciles.
	cmp = CompareTotals(decimal.New(1, -6), decimal.Zero)
	assert.True(t, cmp.Reconciled)
}

func TestCompareLedgersPartition(t *testing.T) {
	sub := []models.LedgerEntry{
		ledgerEntry(t, "INV-1", 100, "2024-01-10"),
		ledgerEntry(t, "INV-2", 50, "2024-01-15"),
	}
	gl := []models.LedgerEntry{
		ledgerEntry(t, "INV-1", 100, "2024-01-10"),
	}

	cmp := CompareLedgers(sub, gl, DefaultOutlierThreshold)

	require.Len(t, cmp.OnlySubledger, 1)
	assert.Equal(t, "INV-2", cmp.OnlySubledger[0].ID)
	assert.Empty(t, cmp.OnlyGL)
	assert.True(t, cmp.Balance.Difference.Equal(decimal.NewFromInt(50)))
	assert.False(t, cmp.Balance.Reconciled)
}

func TestCompareLedgersAmountMismatch(t *testing.T) {
	// Same ID with a different amount is unmatched on both sides under the
	// ID-and-amount key, but matched under the ID-only key.
	sub := []models.LedgerEntry{ledgerEntry(t, "PRE-1", 1200, "2024-01-01")}
	gl := []models.LedgerEntry{ledgerEntry(t, "PRE-1", 1100, "2024-01-01")}

	cmp := CompareLedgers(sub, gl, DefaultOutlierThreshold)
	assert.Len(t, cmp.OnlySubledger, 1)
	assert.Len(t, cmp.OnlyGL, 1)

	cmp = CompareLedgersByID(sub, gl, DefaultOutlierThreshold)
	assert.Empty(t, cmp.OnlySubledger)
	assert.Empty(t, cmp.OnlyGL)
	assert.True(t, cmp.Balance.Difference.Equal(decimal.NewFromInt(100)))
}

func TestBucketForIsTotalAndDisjoint(t *testing.T) {
	cases := map[int]AgingBucket{
		-5:  BucketCurrent,
		0:   BucketCurrent,
		30:  BucketCurrent,
		31:  Bucket31To60,
		60:  Bucket31To60,
		61:  Bucket61To90,
		90:  Bucket61To90,
		91:  BucketOver90,
		400: BucketOver90,
	}
	for days, want := range cases {
		assert.Equal(t, want, BucketFor(days), "days=%d", days)
	}
}

func TestAnalyzeAging(t *testing.T) {
	asOf := mustDate(t, "2024-03-31")
	entries := []models.LedgerEntry{
		ledgerEntry(t, "INV-1", 100, "2024-03-20"), // 11 days
		ledgerEntry(t, "INV-2", 200, "2024-02-10"), // 50 days
		ledgerEntry(t, "INV-3", 300, "2024-01-10"), // 81 days
		ledgerEntry(t, "INV-4", 400, "2023-11-01"), // 151 days
	}

	aging := AnalyzeAging(entries, asOf)

	assert.Len(t, aging.Buckets[BucketCurrent], 1)
	assert.Len(t, aging.Buckets[Bucket31To60], 1)
	assert.Len(t, aging.Buckets[Bucket61To90], 1)
	assert.Len(t, aging.Buckets[BucketOver90], 1)

	// Bucket totals sum to the outstanding total.
	sum := decimal.Zero
	for _, bucket := range AgingBuckets {
		sum = sum.Add(aging.Totals[bucket])
	}
	assert.True(t, sum.Equal(aging.TotalOutstanding))
	assert.True(t, aging.TotalOutstanding.Equal(decimal.NewFromInt(1000)))
}

func TestAnalyzeConcentration(t *testing.T) {
	entries := []models.LedgerEntry{
		{ID: "1", Amount: decimal.NewFromInt(800), Party: "CUST-A"},
		{ID: "2", Amount: decimal.NewFromInt(100), Party: "CUST-B"},
		{ID: "3", Amount: decimal.NewFromInt(50), Party: "CUST-C"},
		{ID: "4", Amount: decimal.NewFromInt(50), Party: "CUST-C"},
	}

	analysis := AnalyzeConcentration(entries)

	require.Len(t, analysis.Parties, 3)
	assert.Equal(t, "CUST-A", analysis.Parties[0].Party)
	assert.True(t, analysis.Parties[0].High)
	assert.True(t, analysis.Parties[0].Share.Equal(decimal.NewFromFloat(0.8)))

	require.Len(t, analysis.HighConcentration, 1)
	require.Len(t, analysis.MultipleEntries, 1)
	assert.Equal(t, "CUST-C", analysis.MultipleEntries[0].Party)
}

func TestAnalyzeConcentrationZeroTotal(t *testing.T) {
	entries := []models.LedgerEntry{
		{ID: "1", Amount: decimal.NewFromInt(100), Party: "A"},
		{ID: "2", Amount: decimal.NewFromInt(-100), Party: "B"},
	}
	analysis := AnalyzeConcentration(entries)
	assert.Empty(t, analysis.HighConcentration)
}
