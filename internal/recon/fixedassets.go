package recon

import (
	"fmt"
	"io"
	"sort"
	"time"

	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// RollforwardMovement aggregates one transaction type within the period.
type RollforwardMovement struct {
	TransactionType string          `json:"transaction_type"`
	Count           int             `json:"count"`
	Total           decimal.Decimal `json:"total"`
}

// Rollforward reconstructs the GL asset balance across the period from the
// opening balance and the in-period movements.
type Rollforward struct {
	BeginningBalance decimal.Decimal       `json:"beginning_balance"`
	EndingBalance    decimal.Decimal       `json:"ending_balance"`
	Movements        []RollforwardMovement `json:"movements"`
}

// DepreciationAnalysis summarizes depreciation postings and the resulting
// net book value of the register.
type DepreciationAnalysis struct {
	CurrentPeriod decimal.Decimal `json:"current_period"`
	Accumulated   decimal.Decimal `json:"accumulated"`
	NetBookValue  decimal.Decimal `json:"net_book_value"`
}

// FixedAssetResult is the outcome of reconciling the fixed asset register
// against the GL asset account.
type FixedAssetResult struct {
	Comparison   LedgerComparison     `json:"comparison"`
	Rollforward  Rollforward          `json:"rollforward"`
	Depreciation DepreciationAnalysis `json:"depreciation"`

	RegisterTotal decimal.Decimal `json:"register_total"`
	Difference    decimal.Decimal `json:"difference"`
	Reconciled    bool            `json:"reconciled"`
}

// Domain returns the domain identifier for reporting.
func (r *FixedAssetResult) Domain() string { return "fixed_assets" }

// IsReconciled reports whether the register total ties to the GL ending
// balance within tolerance.
func (r *FixedAssetResult) IsReconciled() bool { return r.Reconciled }

// UnmatchedEntries returns the unmatched register and GL entries for export.
func (r *FixedAssetResult) UnmatchedEntries() ([]models.LedgerEntry, []models.LedgerEntry) {
	return r.Comparison.OnlySubledger, r.Comparison.OnlyGL
}

// movementTypes are the transaction types carried into the rollforward, in
// display order.
var movementTypes = []string{"purchase", "disposal", "retirement", "sale"}

// ReconcileFixedAssets reconciles the fixed asset register against the GL.
// Assets match on asset ID and amount. The GL side is rolled forward across
// the period and depreciation postings are summarized into net book value.
func ReconcileFixedAssets(register, gl, depreciation []models.LedgerEntry, opts Options) *FixedAssetResult {
	result := &FixedAssetResult{
		Comparison:    CompareLedgers(register, gl, opts.outlierThreshold()),
		Rollforward:   buildRollforward(gl, opts.StartDate, opts.EndDate),
		RegisterTotal: models.SumAmounts(register),
	}

	result.Depreciation = analyzeDepreciation(register, depreciation, opts.StartDate, opts.EndDate)
	result.Difference = result.RegisterTotal.Sub(result.Rollforward.EndingBalance)
	result.Reconciled = result.Difference.Abs().LessThanOrEqual(Tolerance)
	return result
}

// buildRollforward computes the opening balance before the period, the
// closing balance through its end, and the movements inside it.
func buildRollforward(gl []models.LedgerEntry, start, end time.Time) Rollforward {
	rf := Rollforward{
		BeginningBalance: decimal.Zero,
		EndingBalance:    decimal.Zero,
	}

	inPeriod := models.FilterByPeriod(gl, start, end)
	for _, entry := range gl {
		if entry.Date.Before(start) {
			rf.BeginningBalance = rf.BeginningBalance.Add(entry.Amount)
		}
		if !entry.Date.After(end) {
			rf.EndingBalance = rf.EndingBalance.Add(entry.Amount)
		}
	}

	byType := make(map[string]*RollforwardMovement)
	for _, entry := range inPeriod {
		movement, ok := byType[entry.Type]
		if !ok {
			movement = &RollforwardMovement{TransactionType: entry.Type, Total: decimal.Zero}
			byType[entry.Type] = movement
		}
		movement.Count++
		movement.Total = movement.Total.Add(entry.Amount)
	}
	for _, movementType := range movementTypes {
		if movement, ok := byType[movementType]; ok {
			rf.Movements = append(rf.Movements, *movement)
			delete(byType, movementType)
		}
	}
	var rest []RollforwardMovement
	for _, movement := range byType {
		rest = append(rest, *movement)
	}
	sort.Slice(rest, func(i, j int) bool {
		return rest[i].TransactionType < rest[j].TransactionType
	})
	rf.Movements = append(rf.Movements, rest...)
	return rf
}

// analyzeDepreciation sums current-period and accumulated depreciation and
// nets the register down to book value.
func analyzeDepreciation(register, depreciation []models.LedgerEntry, start, end time.Time) DepreciationAnalysis {
	analysis := DepreciationAnalysis{
		CurrentPeriod: models.SumAmounts(models.FilterByPeriod(depreciation, start, end)),
		Accumulated:   decimal.Zero,
	}
	for _, entry := range depreciation {
		if !entry.Date.After(end) {
			analysis.Accumulated = analysis.Accumulated.Add(entry.Amount)
		}
	}
	analysis.NetBookValue = models.SumAmounts(register).Sub(analysis.Accumulated)
	return analysis
}

// WriteText renders the fixed asset reconciliation section of the console
// report.
func (r *FixedAssetResult) WriteText(w io.Writer) {
	fmt.Fprintln(w, "=== Fixed Asset Reconciliation ===")
	writeLedgerComparison(w, "Asset register", r.Comparison)

	fmt.Fprintf(w, "Beginning balance: %s, ending balance: %s\n",
		r.Rollforward.BeginningBalance.StringFixed(2), r.Rollforward.EndingBalance.StringFixed(2))
	for _, movement := range r.Rollforward.Movements {
		fmt.Fprintf(w, "  %-12s %4d transactions, total %s\n",
			movement.TransactionType, movement.Count, movement.Total.StringFixed(2))
	}

	fmt.Fprintf(w, "Depreciation: current period %s, accumulated %s, net book value %s\n",
		r.Depreciation.CurrentPeriod.StringFixed(2), r.Depreciation.Accumulated.StringFixed(2),
		r.Depreciation.NetBookValue.StringFixed(2))
	fmt.Fprintf(w, "Register %s vs GL ending balance %s, difference %s, reconciled %v\n",
		r.RegisterTotal.StringFixed(2), r.Rollforward.EndingBalance.StringFixed(2),
		r.Difference.StringFixed(2), r.Reconciled)
}
