package recon

import (
	"fmt"
	"io"
	"sort"

	"accounting-reconciliation-service/internal/anomaly"
	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// PeriodMismatch is an accounting period where the AP subledger and GL
// totals disagree.
type PeriodMismatch struct {
	Period     string          `json:"period"`
	APTotal    decimal.Decimal `json:"ap_total"`
	GLTotal    decimal.Decimal `json:"gl_total"`
	Difference decimal.Decimal `json:"difference"`
}

// AccrualPeriodAnalysis validates that expenses land in the period they were
// incurred by comparing monthly totals between the subledger and the GL.
type AccrualPeriodAnalysis struct {
	Mismatches    []PeriodMismatch `json:"mismatches"`
	GAAPCompliant bool             `json:"gaap_compliant"`
}

// CreditCardAnalysis reconciles the credit card statement against AP bills
// paid by card.
type CreditCardAnalysis struct {
	UnmatchedStatement []models.LedgerEntry `json:"unmatched_statement"`
	UnmatchedAP        []models.LedgerEntry `json:"unmatched_ap"`
	StatementTotal     decimal.Decimal      `json:"statement_total"`
	APCardTotal        decimal.Decimal      `json:"ap_card_total"`
	Difference         decimal.Decimal      `json:"difference"`
	Reconciled         bool                 `json:"reconciled"`
}

// BatchSummary aggregates one payment batch.
type BatchSummary struct {
	BatchID        string          `json:"batch_id"`
	PaymentCount   int             `json:"payment_count"`
	Total          decimal.Decimal `json:"total"`
	ProcessedCount int             `json:"processed_count"`
	FailedCount    int             `json:"failed_count"`
	PendingCount   int             `json:"pending_count"`
}

// BatchPaymentAnalysis checks payment batches against the AP subledger.
type BatchPaymentAnalysis struct {
	Batches          []BatchSummary        `json:"batches"`
	UnprocessedBills []models.LedgerEntry  `json:"unprocessed_bills"`
	FailedPayments   []models.BatchPayment `json:"failed_payments"`
}

// APResult is the outcome of reconciling the accounts payable subledger
// against the GL control account.
type APResult struct {
	Comparison     LedgerComparison      `json:"comparison"`
	Aging          AgingAnalysis         `json:"aging"`
	Concentration  ConcentrationAnalysis `json:"concentration"`
	AccrualPeriods AccrualPeriodAnalysis `json:"accrual_periods"`
	CreditCard     CreditCardAnalysis    `json:"credit_card"`
	BatchPayments  BatchPaymentAnalysis  `json:"batch_payments"`
}

// Domain returns the domain identifier for reporting.
func (r *APResult) Domain() string { return "accounts_payable" }

// IsReconciled reports whether the subledger total ties to the GL within
// tolerance.
func (r *APResult) IsReconciled() bool { return r.Comparison.Balance.Reconciled }

// UnmatchedEntries returns the unmatched subledger and GL entries for export.
func (r *APResult) UnmatchedEntries() ([]models.LedgerEntry, []models.LedgerEntry) {
	return r.Comparison.OnlySubledger, r.Comparison.OnlyGL
}

// ReconcileAP reconciles the AP subledger against the GL. Bills match on
// bill ID and amount. Beyond the standard comparison it validates monthly
// accrual periods, reconciles the credit card statement, and checks batch
// payment processing.
func ReconcileAP(ap, gl, creditCard []models.LedgerEntry, batches []models.BatchPayment, opts Options) *APResult {
	return &APResult{
		Comparison:     CompareLedgers(ap, gl, opts.outlierThreshold()),
		Aging:          AnalyzeAging(ap, opts.AsOf),
		Concentration:  AnalyzeConcentration(ap),
		AccrualPeriods: analyzeAccrualPeriods(ap, gl),
		CreditCard:     analyzeCreditCard(ap, creditCard),
		BatchPayments:  analyzeBatchPayments(ap, batches),
	}
}

// analyzeAccrualPeriods compares monthly totals between the subledger and
// the GL. Any period off by more than the tolerance is a cut-off error.
func analyzeAccrualPeriods(ap, gl []models.LedgerEntry) AccrualPeriodAnalysis {
	apTotals := periodTotals(ap)
	glTotals := periodTotals(gl)

	periods := make(map[string]bool)
	for period := range apTotals {
		periods[period] = true
	}
	for period := range glTotals {
		periods[period] = true
	}

	analysis := AccrualPeriodAnalysis{GAAPCompliant: true}
	for period := range periods {
		diff := apTotals[period].Sub(glTotals[period])
		if diff.Abs().GreaterThan(Tolerance) {
			analysis.Mismatches = append(analysis.Mismatches, PeriodMismatch{
				Period:     period,
				APTotal:    apTotals[period],
				GLTotal:    glTotals[period],
				Difference: diff,
			})
			analysis.GAAPCompliant = false
		}
	}
	sort.Slice(analysis.Mismatches, func(i, j int) bool {
		return analysis.Mismatches[i].Period < analysis.Mismatches[j].Period
	})
	return analysis
}

// analyzeCreditCard matches credit card statement lines against AP bills
// paid by card, on transaction ID and amount. With no statement to check
// against there is nothing to dispute, so a nil statement reconciles.
func analyzeCreditCard(ap, creditCard []models.LedgerEntry) CreditCardAnalysis {
	if creditCard == nil {
		return CreditCardAnalysis{Reconciled: true}
	}
	cardBills := models.FilterByType(ap, "credit_card")

	matchKey := func(e models.LedgerEntry) string { return e.MatchKey() }
	unmatchedStatement, unmatchedAP := anomaly.FindUnmatched(creditCard, cardBills, matchKey)

	analysis := CreditCardAnalysis{
		UnmatchedStatement: unmatchedStatement,
		UnmatchedAP:        unmatchedAP,
		StatementTotal:     models.SumAmounts(creditCard),
		APCardTotal:        models.SumAmounts(cardBills),
	}
	analysis.Difference = analysis.StatementTotal.Sub(analysis.APCardTotal)
	analysis.Reconciled = analysis.Difference.Abs().LessThanOrEqual(Tolerance)
	return analysis
}

// analyzeBatchPayments summarizes each payment batch and flags AP bills that
// never made it into a processed payment. Without a batch log the bills
// cannot be called unprocessed, so a nil log yields an empty analysis.
func analyzeBatchPayments(ap []models.LedgerEntry, batches []models.BatchPayment) BatchPaymentAnalysis {
	if batches == nil {
		return BatchPaymentAnalysis{}
	}
	summaries := make(map[string]*BatchSummary)
	processedBills := make(map[string]bool)
	var analysis BatchPaymentAnalysis

	for _, payment := range batches {
		summary, ok := summaries[payment.BatchID]
		if !ok {
			summary = &BatchSummary{BatchID: payment.BatchID, Total: decimal.Zero}
			summaries[payment.BatchID] = summary
		}
		summary.PaymentCount++
		summary.Total = summary.Total.Add(payment.Amount)

		switch payment.Status {
		case models.BatchStatusProcessed:
			summary.ProcessedCount++
			processedBills[payment.BillID] = true
		case models.BatchStatusFailed:
			summary.FailedCount++
			analysis.FailedPayments = append(analysis.FailedPayments, payment)
		default:
			summary.PendingCount++
		}
	}

	for _, summary := range summaries {
		analysis.Batches = append(analysis.Batches, *summary)
	}
	sort.Slice(analysis.Batches, func(i, j int) bool {
		return analysis.Batches[i].BatchID < analysis.Batches[j].BatchID
	})

	for _, bill := range ap {
		if !processedBills[bill.ID] {
			analysis.UnprocessedBills = append(analysis.UnprocessedBills, bill)
		}
	}
	return analysis
}

// WriteText renders the AP reconciliation section of the console report.
func (r *APResult) WriteText(w io.Writer) {
	fmt.Fprintln(w, "=== Accounts Payable Reconciliation ===")
	writeLedgerComparison(w, "AP subledger", r.Comparison)
	writeAging(w, r.Aging)
	writeConcentration(w, "vendor", r.Concentration)

	fmt.Fprintf(w, "Accrual periods GAAP compliant: %v\n", r.AccrualPeriods.GAAPCompliant)
	for _, mismatch := range r.AccrualPeriods.Mismatches {
		fmt.Fprintf(w, "  Period %s off by %s (AP %s vs GL %s)\n",
			mismatch.Period, mismatch.Difference.StringFixed(2),
			mismatch.APTotal.StringFixed(2), mismatch.GLTotal.StringFixed(2))
	}

	fmt.Fprintf(w, "Credit card statement %s vs AP card bills %s, difference %s, reconciled %v\n",
		r.CreditCard.StatementTotal.StringFixed(2), r.CreditCard.APCardTotal.StringFixed(2),
		r.CreditCard.Difference.StringFixed(2), r.CreditCard.Reconciled)

	fmt.Fprintf(w, "Payment batches: %d, failed payments: %d, unprocessed bills: %d\n",
		len(r.BatchPayments.Batches), len(r.BatchPayments.FailedPayments),
		len(r.BatchPayments.UnprocessedBills))
}
