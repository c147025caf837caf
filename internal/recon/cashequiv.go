package recon

import (
	"fmt"
	"io"
	"sort"

	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// maturityLimitDays is the maximum original days to maturity for an
// instrument to qualify as a cash equivalent.
const maturityLimitDays = 90

var daysPerYear = decimal.NewFromInt(365)

// MaturityAnalysis classifies investments against the 90-day cash
// equivalent rule.
type MaturityAnalysis struct {
	Compliant          []models.Investment `json:"compliant"`
	NonCompliant       []models.Investment `json:"non_compliant"`
	CompliantAmount    decimal.Decimal     `json:"compliant_amount"`
	NonCompliantAmount decimal.Decimal     `json:"non_compliant_amount"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
}

// PositionValuation is the unrealized gain or loss on one position.
type PositionValuation struct {
	InvestmentID string          `json:"investment_id"`
	BookValue    decimal.Decimal `json:"book_value"`
	MarketValue  decimal.Decimal `json:"market_value"`
	Unrealized   decimal.Decimal `json:"unrealized"`
}

// MarketValueAnalysis compares GL book values to broker market values.
type MarketValueAnalysis struct {
	Positions       []PositionValuation  `json:"positions"`
	TotalBook       decimal.Decimal      `json:"total_book"`
	TotalMarket     decimal.Decimal      `json:"total_market"`
	TotalUnrealized decimal.Decimal      `json:"total_unrealized"`
	TotalReturn     decimal.Decimal      `json:"total_return"`
	UnpricedGL      []models.LedgerEntry `json:"unpriced_gl"`
}

// PositionYield is the annualized yield implied by one position's market
// value over its holding period.
type PositionYield struct {
	InvestmentID      string          `json:"investment_id"`
	HoldingPeriodDays int             `json:"holding_period_days"`
	AnnualizedYield   decimal.Decimal `json:"annualized_yield"`
}

// CashEquivalentResult is the outcome of reconciling GL cash equivalent
// positions against investment details and broker statements.
type CashEquivalentResult struct {
	Maturity        MaturityAnalysis      `json:"maturity"`
	MarketValues    MarketValueAnalysis   `json:"market_values"`
	Yields          []PositionYield       `json:"yields"`
	ByInstrument    ConcentrationAnalysis `json:"by_instrument"`
	ByIssuer        ConcentrationAnalysis `json:"by_issuer"`
	PolicyCompliant bool                  `json:"policy_compliant"`
}

// Domain returns the domain identifier for reporting.
func (r *CashEquivalentResult) Domain() string { return "cash_equivalents" }

// IsReconciled reports whether the portfolio complies with the cash
// equivalent policy.
func (r *CashEquivalentResult) IsReconciled() bool { return r.PolicyCompliant }

// ReconcileCashEquivalents checks the 90-day maturity rule, values GL
// positions against the broker statement, derives annualized yields, and
// measures concentration by instrument type and issuer over the investment
// details. The portfolio is policy compliant when every concentration share
// stays at or below the threshold and every instrument qualifies as a cash
// equivalent.
func ReconcileCashEquivalents(gl []models.LedgerEntry, investments []models.Investment,
	broker []models.BrokerPosition, opts Options) *CashEquivalentResult {

	result := &CashEquivalentResult{
		Maturity:     analyzeMaturity(investments, opts),
		MarketValues: analyzeMarketValues(gl, broker),
		Yields:       analyzeYields(gl, investments, broker),
		ByInstrument: AnalyzeConcentration(byDimension(investments, func(i models.Investment) string { return i.InstrumentType })),
		ByIssuer:     AnalyzeConcentration(byDimension(investments, func(i models.Investment) string { return i.Issuer })),
	}

	result.PolicyCompliant = len(result.ByInstrument.HighConcentration) == 0 &&
		len(result.ByIssuer.HighConcentration) == 0 &&
		result.Maturity.CompliantAmount.Equal(result.Maturity.TotalAmount)
	return result
}

// byDimension projects investments into the shared concentration analysis,
// grouping amounts by the given dimension. The instrument type and issuer
// live on the investment details, not on the GL rows.
func byDimension(investments []models.Investment, dim func(models.Investment) string) []models.LedgerEntry {
	out := make([]models.LedgerEntry, len(investments))
	for i, inv := range investments {
		out[i] = models.LedgerEntry{ID: inv.InvestmentID, Amount: inv.Amount, Party: dim(inv)}
	}
	return out
}

// analyzeMaturity applies the 90-day rule as of the reporting date.
func analyzeMaturity(investments []models.Investment, opts Options) MaturityAnalysis {
	var analysis MaturityAnalysis
	for _, inv := range investments {
		analysis.TotalAmount = analysis.TotalAmount.Add(inv.Amount)
		if inv.DaysToMaturity(opts.AsOf) <= maturityLimitDays {
			analysis.Compliant = append(analysis.Compliant, inv)
			analysis.CompliantAmount = analysis.CompliantAmount.Add(inv.Amount)
		} else {
			analysis.NonCompliant = append(analysis.NonCompliant, inv)
			analysis.NonCompliantAmount = analysis.NonCompliantAmount.Add(inv.Amount)
		}
	}
	return analysis
}

// analyzeMarketValues joins GL positions to broker positions on investment
// ID and date and accumulates the unrealized gain or loss.
func analyzeMarketValues(gl []models.LedgerEntry, broker []models.BrokerPosition) MarketValueAnalysis {
	marketByKey := make(map[string]decimal.Decimal)
	for _, position := range broker {
		key := position.InvestmentID + "|" + position.Date.Format("2006-01-02")
		marketByKey[key] = position.MarketValue
	}

	var analysis MarketValueAnalysis
	for _, entry := range gl {
		key := entry.ID + "|" + entry.Date.Format("2006-01-02")
		market, ok := marketByKey[key]
		if !ok {
			analysis.UnpricedGL = append(analysis.UnpricedGL, entry)
			continue
		}

		unrealized := market.Sub(entry.Amount)
		analysis.Positions = append(analysis.Positions, PositionValuation{
			InvestmentID: entry.ID,
			BookValue:    entry.Amount,
			MarketValue:  market,
			Unrealized:   unrealized,
		})
		analysis.TotalBook = analysis.TotalBook.Add(entry.Amount)
		analysis.TotalMarket = analysis.TotalMarket.Add(market)
		analysis.TotalUnrealized = analysis.TotalUnrealized.Add(unrealized)
	}

	if !analysis.TotalBook.IsZero() {
		analysis.TotalReturn = analysis.TotalUnrealized.Div(analysis.TotalBook)
	}
	return analysis
}

// analyzeYields annualizes the return on each priced position over its full
// holding period.
func analyzeYields(gl []models.LedgerEntry, investments []models.Investment, broker []models.BrokerPosition) []PositionYield {
	holdingDays := make(map[string]int)
	for _, inv := range investments {
		holdingDays[inv.InvestmentID] = inv.HoldingPeriodDays()
	}
	marketByID := make(map[string]decimal.Decimal)
	for _, position := range broker {
		marketByID[position.InvestmentID] = position.MarketValue
	}

	var yields []PositionYield
	for _, entry := range gl {
		days, ok := holdingDays[entry.ID]
		if !ok || days <= 0 || entry.Amount.IsZero() {
			continue
		}
		market, ok := marketByID[entry.ID]
		if !ok {
			continue
		}

		periodReturn := market.Sub(entry.Amount).Div(entry.Amount)
		yields = append(yields, PositionYield{
			InvestmentID:      entry.ID,
			HoldingPeriodDays: days,
			AnnualizedYield:   periodReturn.Mul(daysPerYear.Div(decimal.NewFromInt(int64(days)))),
		})
	}
	sort.Slice(yields, func(i, j int) bool {
		return yields[i].InvestmentID < yields[j].InvestmentID
	})
	return yields
}

// WriteText renders the cash equivalent section of the console report.
func (r *CashEquivalentResult) WriteText(w io.Writer) {
	fmt.Fprintln(w, "=== Cash Equivalent Reconciliation ===")
	fmt.Fprintf(w, "Maturity rule (%d days): %s compliant, %s non-compliant of %s total\n",
		maturityLimitDays, r.Maturity.CompliantAmount.StringFixed(2),
		r.Maturity.NonCompliantAmount.StringFixed(2), r.Maturity.TotalAmount.StringFixed(2))

	fmt.Fprintf(w, "Book %s vs market %s, unrealized %s, return %s\n",
		r.MarketValues.TotalBook.StringFixed(2), r.MarketValues.TotalMarket.StringFixed(2),
		r.MarketValues.TotalUnrealized.StringFixed(2), r.MarketValues.TotalReturn.StringFixed(4))
	if len(r.MarketValues.UnpricedGL) > 0 {
		fmt.Fprintf(w, "GL positions without broker pricing: %d\n", len(r.MarketValues.UnpricedGL))
	}

	writeConcentration(w, "instrument type", r.ByInstrument)
	writeConcentration(w, "issuer", r.ByIssuer)
	fmt.Fprintf(w, "Policy compliant: %v\n", r.PolicyCompliant)
}
