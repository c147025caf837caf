package recon

import (
	"fmt"
	"io"

	"accounting-reconciliation-service/internal/anomaly"
	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// WriteOffAnalysis validates recorded write-offs against the allowance for
// doubtful accounts.
type WriteOffAnalysis struct {
	WriteOffs           []models.LedgerEntry `json:"write_offs"`
	WriteOffTotal       decimal.Decimal      `json:"write_off_total"`
	WriteOffRatio       decimal.Decimal      `json:"write_off_ratio"`
	UnrecordedWriteOffs []models.LedgerEntry `json:"unrecorded_write_offs"`
	AllowanceBalance    decimal.Decimal      `json:"allowance_balance"`
}

// AccruedRevenueAnalysis compares accrued revenue entries between the AR
// subledger and the GL.
type AccruedRevenueAnalysis struct {
	UnmatchedAR   []models.LedgerEntry `json:"unmatched_ar"`
	UnmatchedGL   []models.LedgerEntry `json:"unmatched_gl"`
	AccruedImpact decimal.Decimal      `json:"accrued_impact"`
}

// ARResult is the outcome of reconciling the accounts receivable subledger
// against the GL control account.
type ARResult struct {
	Comparison     LedgerComparison       `json:"comparison"`
	Aging          AgingAnalysis          `json:"aging"`
	Concentration  ConcentrationAnalysis  `json:"concentration"`
	WriteOffs      WriteOffAnalysis       `json:"write_offs"`
	AccruedRevenue AccruedRevenueAnalysis `json:"accrued_revenue"`
}

// Domain returns the domain identifier for reporting.
func (r *ARResult) Domain() string { return "accounts_receivable" }

// IsReconciled reports whether the subledger total ties to the GL within
// tolerance.
func (r *ARResult) IsReconciled() bool { return r.Comparison.Balance.Reconciled }

// UnmatchedEntries returns the unmatched subledger and GL entries for export.
func (r *ARResult) UnmatchedEntries() ([]models.LedgerEntry, []models.LedgerEntry) {
	return r.Comparison.OnlySubledger, r.Comparison.OnlyGL
}

// ReconcileAR reconciles the AR subledger against the GL. Invoices match on
// invoice ID and amount. Beyond the standard comparison it produces an aging
// schedule, customer concentration, write-off validation against the
// allowance account, and an accrued revenue comparison.
func ReconcileAR(ar, gl, allowance []models.LedgerEntry, opts Options) *ARResult {
	return &ARResult{
		Comparison:     CompareLedgers(ar, gl, opts.outlierThreshold()),
		Aging:          AnalyzeAging(ar, opts.AsOf),
		Concentration:  AnalyzeConcentration(ar),
		WriteOffs:      analyzeWriteOffs(ar, allowance),
		AccruedRevenue: analyzeAccruedRevenue(ar, gl),
	}
}

// analyzeWriteOffs checks that every write-off in the subledger has a
// matching write-off in the allowance account.
func analyzeWriteOffs(ar, allowance []models.LedgerEntry) WriteOffAnalysis {
	analysis := WriteOffAnalysis{
		WriteOffs:        models.FilterByType(ar, "write_off"),
		AllowanceBalance: models.SumAmounts(allowance),
	}
	analysis.WriteOffTotal = models.SumAmounts(analysis.WriteOffs)

	arTotal := models.SumAmounts(ar)
	if !arTotal.IsZero() {
		analysis.WriteOffRatio = analysis.WriteOffTotal.Div(arTotal)
	}

	recorded := make(map[string]bool)
	for _, entry := range models.FilterByType(allowance, "write_off") {
		recorded[entry.ID] = true
	}
	for _, entry := range analysis.WriteOffs {
		if !recorded[entry.ID] {
			analysis.UnrecordedWriteOffs = append(analysis.UnrecordedWriteOffs, entry)
		}
	}
	return analysis
}

// analyzeAccruedRevenue compares accrued entries between the subledger and
// the GL and measures their net balance impact.
func analyzeAccruedRevenue(ar, gl []models.LedgerEntry) AccruedRevenueAnalysis {
	accruedAR := models.FilterByType(ar, "accrued")
	accruedGL := models.FilterByType(gl, "accrued")

	matchKey := func(e models.LedgerEntry) string { return e.MatchKey() }
	unmatchedAR, unmatchedGL := anomaly.FindUnmatched(accruedAR, accruedGL, matchKey)

	return AccruedRevenueAnalysis{
		UnmatchedAR:   unmatchedAR,
		UnmatchedGL:   unmatchedGL,
		AccruedImpact: models.SumAmounts(accruedAR).Sub(models.SumAmounts(accruedGL)),
	}
}

// WriteText renders the AR reconciliation section of the console report.
func (r *ARResult) WriteText(w io.Writer) {
	fmt.Fprintln(w, "=== Accounts Receivable Reconciliation ===")
	writeLedgerComparison(w, "AR subledger", r.Comparison)
	writeAging(w, r.Aging)
	writeConcentration(w, "customer", r.Concentration)

	fmt.Fprintf(w, "Write-offs: %d totaling %s (ratio %s)\n",
		len(r.WriteOffs.WriteOffs), r.WriteOffs.WriteOffTotal.StringFixed(2),
		r.WriteOffs.WriteOffRatio.StringFixed(4))
	fmt.Fprintf(w, "Allowance balance: %s\n", r.WriteOffs.AllowanceBalance.StringFixed(2))
	if len(r.WriteOffs.UnrecordedWriteOffs) > 0 {
		fmt.Fprintf(w, "Write-offs missing from allowance account: %d\n",
			len(r.WriteOffs.UnrecordedWriteOffs))
	}

	fmt.Fprintf(w, "Accrued revenue impact: %s (unmatched AR: %d, unmatched GL: %d)\n",
		r.AccruedRevenue.AccruedImpact.StringFixed(2),
		len(r.AccruedRevenue.UnmatchedAR), len(r.AccruedRevenue.UnmatchedGL))
}
