package recon

import (
	"fmt"
	"io"

	"accounting-reconciliation-service/internal/models"
)

// PrepaidResult is the outcome of reconciling the prepaid expense schedule
// against the GL prepaid account.
type PrepaidResult struct {
	Comparison LedgerComparison `json:"comparison"`
}

// Domain returns the domain identifier for reporting.
func (r *PrepaidResult) Domain() string { return "prepaid_expenses" }

// IsReconciled reports whether the schedule total ties to the GL within
// tolerance.
func (r *PrepaidResult) IsReconciled() bool { return r.Comparison.Balance.Reconciled }

// UnmatchedEntries returns the unmatched schedule and GL entries for export.
func (r *PrepaidResult) UnmatchedEntries() ([]models.LedgerEntry, []models.LedgerEntry) {
	return r.Comparison.OnlySubledger, r.Comparison.OnlyGL
}

// ReconcilePrepaid reconciles the prepaid expense schedule against the GL.
// Items match on prepaid ID alone so that amount differences between the
// schedule and the GL surface as unmatched pairs on neither side and a
// balance difference, not as missing items.
func ReconcilePrepaid(schedule, gl []models.LedgerEntry, opts Options) *PrepaidResult {
	return &PrepaidResult{
		Comparison: CompareLedgersByID(schedule, gl, opts.outlierThreshold()),
	}
}

// WriteText renders the prepaid expense section of the console report.
func (r *PrepaidResult) WriteText(w io.Writer) {
	fmt.Fprintln(w, "=== Prepaid Expense Reconciliation ===")
	writeLedgerComparison(w, "Prepaid schedule", r.Comparison)
}
