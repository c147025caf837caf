package recon

import (
	"fmt"
	"io"
)

// Text helpers shared by the per-domain WriteText renderers.

func writeLedgerComparison(w io.Writer, label string, c LedgerComparison) {
	fmt.Fprintf(w, "%s total: %s, GL total: %s, difference: %s\n",
		label, c.Balance.SubledgerTotal.StringFixed(2),
		c.Balance.GLTotal.StringFixed(2), c.Balance.Difference.StringFixed(2))
	fmt.Fprintf(w, "Reconciled: %v\n", c.Balance.Reconciled)
	fmt.Fprintf(w, "Unmatched subledger entries: %d, unmatched GL entries: %d\n",
		len(c.OnlySubledger), len(c.OnlyGL))
	if len(c.DuplicateSubledger) > 0 || len(c.DuplicateGL) > 0 {
		fmt.Fprintf(w, "Duplicate IDs: %d subledger, %d GL\n",
			len(c.DuplicateSubledger), len(c.DuplicateGL))
	}
	if len(c.OutlierSubledger) > 0 || len(c.OutlierGL) > 0 {
		fmt.Fprintf(w, "Amount outliers: %d subledger, %d GL\n",
			len(c.OutlierSubledger), len(c.OutlierGL))
	}
}

func writeAging(w io.Writer, aging AgingAnalysis) {
	fmt.Fprintln(w, "Aging:")
	for _, bucket := range AgingBuckets {
		fmt.Fprintf(w, "  %-14s %4d entries, total %s\n",
			bucket, len(aging.Buckets[bucket]), aging.Totals[bucket].StringFixed(2))
	}
}

func writeConcentration(w io.Writer, partyLabel string, c ConcentrationAnalysis) {
	for _, pc := range c.HighConcentration {
		fmt.Fprintf(w, "High %s concentration: %s holds %s%% of the balance\n",
			partyLabel, pc.Party, pc.Share.Mul(hundred).StringFixed(1))
	}
}
