package recon

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"accounting-reconciliation-service/internal/anomaly"
	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// staleTransactionAgeDays marks GL cash transactions older than this, still
// unmatched against the bank statement, as stale.
const staleTransactionAgeDays = 30

// OutstandingItems categorizes the timing differences between the bank
// statement and the GL cash account.
type OutstandingItems struct {
	OutstandingChecks []models.BankTransaction `json:"outstanding_checks"`
	ACHInTransit      []models.BankTransaction `json:"ach_in_transit"`
	DepositsInTransit []models.BankTransaction `json:"deposits_in_transit"`
	ServiceFees       []models.BankTransaction `json:"service_fees"`
	Total             decimal.Decimal          `json:"total"`
}

// AmountDateGroup is a set of transactions sharing the same date and amount.
type AmountDateGroup struct {
	Date         time.Time                `json:"date"`
	Amount       decimal.Decimal          `json:"amount"`
	Transactions []models.BankTransaction `json:"transactions"`
}

// BankDateAnalysis covers timing checks on the unmatched transactions.
type BankDateAnalysis struct {
	// AmountDateMatches are bank/GL pairs that agree on date and amount but
	// not on description, usually a wording difference rather than a real
	// break.
	AmountDateMatches []AmountDateGroup        `json:"amount_date_matches"`
	StaleGLItems      []models.BankTransaction `json:"stale_gl_items"`
}

// BankPatternAnalysis flags transaction patterns worth a second look.
type BankPatternAnalysis struct {
	RepeatedAmountGroups []AmountDateGroup        `json:"repeated_amount_groups"`
	RoundAmounts         []models.BankTransaction `json:"round_amounts"`
}

// BankResult is the outcome of reconciling a bank statement against the GL
// cash account.
type BankResult struct {
	UnmatchedBank []models.BankTransaction `json:"unmatched_bank"`
	UnmatchedGL   []models.BankTransaction `json:"unmatched_gl"`
	DuplicateBank []models.BankTransaction `json:"duplicate_bank"`
	DuplicateGL   []models.BankTransaction `json:"duplicate_gl"`
	OutlierBank   []models.BankTransaction `json:"outlier_bank"`
	OutlierGL     []models.BankTransaction `json:"outlier_gl"`

	Outstanding OutstandingItems `json:"outstanding_items"`

	BankBalance       decimal.Decimal `json:"bank_balance"`
	GLBalance         decimal.Decimal `json:"gl_balance"`
	AdjustedGLBalance decimal.Decimal `json:"adjusted_gl_balance"`
	Difference        decimal.Decimal `json:"difference"`
	Reconciled        bool            `json:"reconciled"`

	DateAnalysis    BankDateAnalysis    `json:"date_analysis"`
	PatternAnalysis BankPatternAnalysis `json:"pattern_analysis"`
}

// Domain returns the domain identifier for reporting.
func (r *BankResult) Domain() string { return "bank" }

// IsReconciled reports whether the adjusted GL balance ties to the bank
// statement within tolerance.
func (r *BankResult) IsReconciled() bool { return r.Reconciled }

// ReconcileBank reconciles bank statement transactions against GL cash
// transactions. Transactions match on the combination of date, amount, and
// description; the remainder is classified into outstanding items and used
// to adjust the GL balance toward the statement balance.
func ReconcileBank(bankTxns, glTxns []models.BankTransaction, opts Options) *BankResult {
	matchKey := func(t models.BankTransaction) string { return t.MatchKey() }
	amount := func(t models.BankTransaction) decimal.Decimal { return t.Amount }

	unmatchedBank, unmatchedGL := anomaly.FindUnmatched(bankTxns, glTxns, matchKey)

	result := &BankResult{
		UnmatchedBank: unmatchedBank,
		UnmatchedGL:   unmatchedGL,
		DuplicateBank: anomaly.DetectDuplicates(bankTxns, matchKey),
		DuplicateGL:   anomaly.DetectDuplicates(glTxns, matchKey),
		OutlierBank:   anomaly.DetectOutliersZScore(bankTxns, amount, opts.outlierThreshold()),
		OutlierGL:     anomaly.DetectOutliersZScore(glTxns, amount, opts.outlierThreshold()),
		BankBalance:   sumTransactions(bankTxns),
		GLBalance:     sumTransactions(glTxns),
	}

	result.Outstanding = classifyOutstanding(unmatchedBank, unmatchedGL)
	result.AdjustedGLBalance = result.GLBalance.Sub(result.Outstanding.Total)
	result.Difference = result.AdjustedGLBalance.Sub(result.BankBalance)
	result.Reconciled = result.Difference.Abs().LessThanOrEqual(Tolerance)

	result.DateAnalysis = analyzeBankDates(unmatchedBank, unmatchedGL, opts.AsOf)
	result.PatternAnalysis = analyzeBankPatterns(bankTxns)

	return result
}

// classifyOutstanding splits the unmatched transactions into the standard
// bank reconciliation categories. Checks, ACH transfers, and deposits in
// transit live on the GL side; service fees appear on the statement first.
func classifyOutstanding(unmatchedBank, unmatchedGL []models.BankTransaction) OutstandingItems {
	var items OutstandingItems

	for _, txn := range unmatchedGL {
		switch {
		case txn.IsCheck():
			items.OutstandingChecks = append(items.OutstandingChecks, txn)
		case strings.EqualFold(txn.Type, "ach"):
			items.ACHInTransit = append(items.ACHInTransit, txn)
		case strings.EqualFold(txn.Type, "deposit"):
			items.DepositsInTransit = append(items.DepositsInTransit, txn)
		}
	}
	for _, txn := range unmatchedBank {
		if txn.IsServiceFee() {
			items.ServiceFees = append(items.ServiceFees, txn)
		}
	}

	for _, group := range [][]models.BankTransaction{
		items.OutstandingChecks, items.ACHInTransit, items.DepositsInTransit, items.ServiceFees,
	} {
		items.Total = items.Total.Add(sumTransactions(group))
	}
	return items
}

// analyzeBankDates pairs unmatched transactions that agree on date and
// amount and flags GL items older than staleTransactionAgeDays.
func analyzeBankDates(unmatchedBank, unmatchedGL []models.BankTransaction, asOf time.Time) BankDateAnalysis {
	var analysis BankDateAnalysis

	glByDateAmount := make(map[string][]models.BankTransaction)
	for _, txn := range unmatchedGL {
		key := dateAmountKey(txn)
		glByDateAmount[key] = append(glByDateAmount[key], txn)
	}

	seen := make(map[string]bool)
	for _, txn := range unmatchedBank {
		key := dateAmountKey(txn)
		matches, ok := glByDateAmount[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		group := AmountDateGroup{Date: txn.Date, Amount: txn.Amount}
		group.Transactions = append(group.Transactions, txn)
		group.Transactions = append(group.Transactions, matches...)
		analysis.AmountDateMatches = append(analysis.AmountDateMatches, group)
	}
	sortGroups(analysis.AmountDateMatches)

	cutoff := asOf.AddDate(0, 0, -staleTransactionAgeDays)
	for _, txn := range unmatchedGL {
		if txn.Date.Before(cutoff) {
			analysis.StaleGLItems = append(analysis.StaleGLItems, txn)
		}
	}
	return analysis
}

// analyzeBankPatterns flags same-day same-amount clusters and round amounts
// across the full statement.
func analyzeBankPatterns(bankTxns []models.BankTransaction) BankPatternAnalysis {
	var analysis BankPatternAnalysis

	groups := make(map[string][]models.BankTransaction)
	for _, txn := range bankTxns {
		key := dateAmountKey(txn)
		groups[key] = append(groups[key], txn)
	}
	for _, txns := range groups {
		if len(txns) > 1 {
			analysis.RepeatedAmountGroups = append(analysis.RepeatedAmountGroups, AmountDateGroup{
				Date:         txns[0].Date,
				Amount:       txns[0].Amount,
				Transactions: txns,
			})
		}
	}
	sortGroups(analysis.RepeatedAmountGroups)

	for _, txn := range bankTxns {
		if txn.IsRoundAmount() {
			analysis.RoundAmounts = append(analysis.RoundAmounts, txn)
		}
	}
	return analysis
}

func dateAmountKey(txn models.BankTransaction) string {
	return txn.Date.Format("2006-01-02") + "|" + txn.Amount.String()
}

func sortGroups(groups []AmountDateGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].Date.Equal(groups[j].Date) {
			return groups[i].Date.Before(groups[j].Date)
		}
		return groups[i].Amount.LessThan(groups[j].Amount)
	})
}

func sumTransactions(txns []models.BankTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range txns {
		total = total.Add(txn.Amount)
	}
	return total
}

// WriteText renders the bank reconciliation section of the console report.
func (r *BankResult) WriteText(w io.Writer) {
	fmt.Fprintln(w, "=== Bank Reconciliation ===")
	fmt.Fprintf(w, "Bank statement balance:   %s\n", r.BankBalance.StringFixed(2))
	fmt.Fprintf(w, "GL cash balance:          %s\n", r.GLBalance.StringFixed(2))
	fmt.Fprintf(w, "Outstanding items total:  %s\n", r.Outstanding.Total.StringFixed(2))
	fmt.Fprintf(w, "Adjusted GL balance:      %s\n", r.AdjustedGLBalance.StringFixed(2))
	fmt.Fprintf(w, "Difference:               %s\n", r.Difference.StringFixed(2))
	fmt.Fprintf(w, "Reconciled:               %v\n", r.Reconciled)

	fmt.Fprintf(w, "Unmatched bank transactions: %d\n", len(r.UnmatchedBank))
	fmt.Fprintf(w, "Unmatched GL transactions:   %d\n", len(r.UnmatchedGL))
	fmt.Fprintf(w, "Outstanding checks: %d, ACH in transit: %d, deposits in transit: %d, service fees: %d\n",
		len(r.Outstanding.OutstandingChecks), len(r.Outstanding.ACHInTransit),
		len(r.Outstanding.DepositsInTransit), len(r.Outstanding.ServiceFees))

	if len(r.DateAnalysis.AmountDateMatches) > 0 {
		fmt.Fprintf(w, "Probable description mismatches (same date and amount): %d\n",
			len(r.DateAnalysis.AmountDateMatches))
	}
	if len(r.DateAnalysis.StaleGLItems) > 0 {
		fmt.Fprintf(w, "Stale GL items older than %d days: %d\n",
			staleTransactionAgeDays, len(r.DateAnalysis.StaleGLItems))
	}
	if len(r.PatternAnalysis.RepeatedAmountGroups) > 0 {
		fmt.Fprintf(w, "Same-day same-amount groups: %d\n", len(r.PatternAnalysis.RepeatedAmountGroups))
	}
	if len(r.PatternAnalysis.RoundAmounts) > 0 {
		fmt.Fprintf(w, "Round-amount transactions: %d\n", len(r.PatternAnalysis.RoundAmounts))
	}
	if len(r.OutlierBank) > 0 || len(r.OutlierGL) > 0 {
		fmt.Fprintf(w, "Amount outliers: %d bank, %d GL\n", len(r.OutlierBank), len(r.OutlierGL))
	}
}
