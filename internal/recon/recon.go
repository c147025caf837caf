// Package recon implements the per-domain reconciliation engines. Every
// domain follows the same shape: load the paired datasets, partition them by
// natural key, flag anomalies, aggregate balances and buckets, and hand a
// result to the reporter.
package recon

import (
	"io"
	"sort"
	"time"

	"accounting-reconciliation-service/internal/anomaly"
	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Result is the common surface of every domain reconciliation outcome.
type Result interface {
	Domain() string
	IsReconciled() bool
	WriteText(w io.Writer)
}

// UnmatchedProvider is implemented by results whose unmatched entries are
// ledger rows suitable for CSV export.
type UnmatchedProvider interface {
	UnmatchedEntries() (subledger, gl []models.LedgerEntry)
}

// Tolerance is the fixed amount tolerance for balance and match comparisons.
var Tolerance = decimal.New(1, -6)

// ConcentrationThreshold flags parties holding more than this share of the
// total balance.
var ConcentrationThreshold = decimal.NewFromFloat(0.1)

// DefaultOutlierThreshold is the z-score cutoff for amount outliers.
const DefaultOutlierThreshold = 3.0

var hundred = decimal.NewFromInt(100)

// Options carries the run parameters shared by all domains. All dates are
// explicit so a run is reproducible regardless of wall-clock time.
type Options struct {
	AsOf             time.Time
	StartDate        time.Time
	EndDate          time.Time
	OutlierThreshold float64
}

// DefaultOptions returns Options for a quarter ending at asOf.
func DefaultOptions(asOf time.Time) Options {
	return Options{
		AsOf:             asOf,
		StartDate:        asOf.AddDate(0, -3, 0).AddDate(0, 0, 1),
		EndDate:          asOf,
		OutlierThreshold: DefaultOutlierThreshold,
	}
}

func (o Options) outlierThreshold() float64 {
	if o.OutlierThreshold <= 0 {
		return DefaultOutlierThreshold
	}
	return o.OutlierThreshold
}

// BalanceComparison summarizes subledger and GL totals.
type BalanceComparison struct {
	SubledgerTotal decimal.Decimal `json:"subledger_total"`
	GLTotal        decimal.Decimal `json:"gl_total"`
	Difference     decimal.Decimal `json:"difference"`
	Reconciled     bool            `json:"reconciled"`
}

// CompareBalances compares subledger and GL totals within Tolerance.
func CompareBalances(subledger, gl []models.LedgerEntry) BalanceComparison {
	return CompareTotals(models.SumAmounts(subledger), models.SumAmounts(gl))
}

// CompareTotals compares two already-summed balances within Tolerance.
func CompareTotals(subledgerTotal, glTotal decimal.Decimal) BalanceComparison {
	diff := subledgerTotal.Sub(glTotal)
	return BalanceComparison{
		SubledgerTotal: subledgerTotal,
		GLTotal:        glTotal,
		Difference:     diff,
		Reconciled:     diff.Abs().LessThanOrEqual(Tolerance),
	}
}

// AgingBucket identifies one of the four aging categories.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "current"
	Bucket31To60  AgingBucket = "31-60_days"
	Bucket61To90  AgingBucket = "61-90_days"
	BucketOver90  AgingBucket = "over_90_days"
)

// AgingBuckets lists the buckets in display order.
var AgingBuckets = []AgingBucket{BucketCurrent, Bucket31To60, Bucket61To90, BucketOver90}

// BucketFor assigns a days-outstanding value to its aging bucket. The
// function is total: every value, including negative ages for future-dated
// entries, lands in exactly one bucket.
func BucketFor(daysOutstanding int) AgingBucket {
	switch {
	case daysOutstanding <= 30:
		return BucketCurrent
	case daysOutstanding <= 60:
		return Bucket31To60
	case daysOutstanding <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// AgingAnalysis groups entries into aging buckets as of a given date.
type AgingAnalysis struct {
	Buckets          map[AgingBucket][]models.LedgerEntry `json:"-"`
	Totals           map[AgingBucket]decimal.Decimal      `json:"totals"`
	TotalOutstanding decimal.Decimal                      `json:"total_outstanding"`
}

// AnalyzeAging buckets entries by days outstanding relative to asOf.
func AnalyzeAging(entries []models.LedgerEntry, asOf time.Time) AgingAnalysis {
	analysis := AgingAnalysis{
		Buckets: make(map[AgingBucket][]models.LedgerEntry),
		Totals:  make(map[AgingBucket]decimal.Decimal),
	}
	for _, bucket := range AgingBuckets {
		analysis.Totals[bucket] = decimal.Zero
	}

	for _, entry := range entries {
		bucket := BucketFor(entry.DaysOutstanding(asOf))
		analysis.Buckets[bucket] = append(analysis.Buckets[bucket], entry)
		analysis.Totals[bucket] = analysis.Totals[bucket].Add(entry.Amount)
		analysis.TotalOutstanding = analysis.TotalOutstanding.Add(entry.Amount)
	}
	return analysis
}

// PartyConcentration is one party's share of the total balance.
type PartyConcentration struct {
	Party string          `json:"party"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Share decimal.Decimal `json:"share"`
	High  bool            `json:"high"`
}

// ConcentrationAnalysis summarizes per-party balance concentration.
type ConcentrationAnalysis struct {
	Parties           []PartyConcentration `json:"parties"`
	HighConcentration []PartyConcentration `json:"high_concentration"`
	MultipleEntries   []PartyConcentration `json:"multiple_entries"`
}

// AnalyzeConcentration computes each party's share of the total balance and
// flags parties above ConcentrationThreshold. A zero total yields no shares.
func AnalyzeConcentration(entries []models.LedgerEntry) ConcentrationAnalysis {
	totals := make(map[string]*PartyConcentration)
	grandTotal := decimal.Zero
	for _, entry := range entries {
		pc, ok := totals[entry.Party]
		if !ok {
			pc = &PartyConcentration{Party: entry.Party, Total: decimal.Zero}
			totals[entry.Party] = pc
		}
		pc.Count++
		pc.Total = pc.Total.Add(entry.Amount)
		grandTotal = grandTotal.Add(entry.Amount)
	}

	var analysis ConcentrationAnalysis
	for _, pc := range totals {
		if !grandTotal.IsZero() {
			pc.Share = pc.Total.Div(grandTotal)
			pc.High = pc.Share.GreaterThan(ConcentrationThreshold)
		}
		analysis.Parties = append(analysis.Parties, *pc)
	}
	sort.Slice(analysis.Parties, func(i, j int) bool {
		if !analysis.Parties[i].Total.Equal(analysis.Parties[j].Total) {
			return analysis.Parties[i].Total.GreaterThan(analysis.Parties[j].Total)
		}
		return analysis.Parties[i].Party < analysis.Parties[j].Party
	})

	for _, pc := range analysis.Parties {
		if pc.High {
			analysis.HighConcentration = append(analysis.HighConcentration, pc)
		}
		if pc.Count > 1 {
			analysis.MultipleEntries = append(analysis.MultipleEntries, pc)
		}
	}
	return analysis
}

// LedgerComparison is the matching core shared by every ledger-shaped
// domain: the key partition, duplicates on the natural ID, amount outliers
// on both sides, and the balance comparison.
type LedgerComparison struct {
	OnlySubledger      []models.LedgerEntry `json:"only_subledger"`
	OnlyGL             []models.LedgerEntry `json:"only_gl"`
	DuplicateSubledger []models.LedgerEntry `json:"duplicate_subledger"`
	DuplicateGL        []models.LedgerEntry `json:"duplicate_gl"`
	OutlierSubledger   []models.LedgerEntry `json:"outlier_subledger"`
	OutlierGL          []models.LedgerEntry `json:"outlier_gl"`
	Balance            BalanceComparison    `json:"balance"`
}

// CompareLedgers runs the shared match/duplicate/outlier/balance sequence on
// a subledger and its GL counterpart, matching on ID and amount.
func CompareLedgers(subledger, gl []models.LedgerEntry, outlierThreshold float64) LedgerComparison {
	return compareLedgers(subledger, gl, func(e models.LedgerEntry) string { return e.MatchKey() }, outlierThreshold)
}

// CompareLedgersByID matches on the natural ID alone. Used by domains where
// the identifier is unique per item and the amount lives on both sides.
func CompareLedgersByID(subledger, gl []models.LedgerEntry, outlierThreshold float64) LedgerComparison {
	return compareLedgers(subledger, gl, func(e models.LedgerEntry) string { return e.IDKey() }, outlierThreshold)
}

func compareLedgers(subledger, gl []models.LedgerEntry, key func(models.LedgerEntry) string, outlierThreshold float64) LedgerComparison {
	idKey := func(e models.LedgerEntry) string { return e.IDKey() }
	amount := func(e models.LedgerEntry) decimal.Decimal { return e.Amount }

	onlySub, onlyGL := anomaly.FindUnmatched(subledger, gl, key)
	return LedgerComparison{
		OnlySubledger:      onlySub,
		OnlyGL:             onlyGL,
		DuplicateSubledger: anomaly.DetectDuplicates(subledger, idKey),
		DuplicateGL:        anomaly.DetectDuplicates(gl, idKey),
		OutlierSubledger:   anomaly.DetectOutliersZScore(subledger, amount, outlierThreshold),
		OutlierGL:          anomaly.DetectOutliersZScore(gl, amount, outlierThreshold),
		Balance:            CompareBalances(subledger, gl),
	}
}

// periodTotals sums entry amounts by monthly accounting period.
func periodTotals(entries []models.LedgerEntry) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		period := entry.AccountingPeriod()
		totals[period] = totals[period].Add(entry.Amount)
	}
	return totals
}
