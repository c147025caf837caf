package recon

import (
	"fmt"
	"io"

	"accounting-reconciliation-service/internal/models"
)

// AccruedResult is the outcome of reconciling the accrued expense schedule
// against the GL accrual account.
type AccruedResult struct {
	Comparison LedgerComparison `json:"comparison"`
}

// Domain returns the domain identifier for reporting.
func (r *AccruedResult) Domain() string { return "accrued_expenses" }

// IsReconciled reports whether the schedule total ties to the GL within
// tolerance.
func (r *AccruedResult) IsReconciled() bool { return r.Comparison.Balance.Reconciled }

// UnmatchedEntries returns the unmatched schedule and GL entries for export.
func (r *AccruedResult) UnmatchedEntries() ([]models.LedgerEntry, []models.LedgerEntry) {
	return r.Comparison.OnlySubledger, r.Comparison.OnlyGL
}

// ReconcileAccrued reconciles the accrued expense schedule against the GL.
// Accruals match on accrual ID alone.
func ReconcileAccrued(schedule, gl []models.LedgerEntry, opts Options) *AccruedResult {
	return &AccruedResult{
		Comparison: CompareLedgersByID(schedule, gl, opts.outlierThreshold()),
	}
}

// WriteText renders the accrued expense section of the console report.
func (r *AccruedResult) WriteText(w io.Writer) {
	fmt.Fprintln(w, "=== Accrued Expense Reconciliation ===")
	writeLedgerComparison(w, "Accrual schedule", r.Comparison)
}
