// Package config translates CLI flags and viper settings into the
// configurations consumed by the reconciliation runner and the reporter.
package config

import (
	"fmt"
	"time"

	"accounting-reconciliation-service/internal/recon"
	"accounting-reconciliation-service/internal/reporter"

	"github.com/spf13/viper"
)

// CreateOptions builds the run options from the period flags. An empty as-of
// date defaults to today; an empty start or end date defaults to the quarter
// ending at the as-of date.
func CreateOptions(asOf, start, end string, outlierThreshold float64) (recon.Options, error) {
	asOfDate := time.Now().Truncate(24 * time.Hour)
	if asOf != "" {
		parsed, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			return recon.Options{}, fmt.Errorf("invalid as-of date: %w", err)
		}
		asOfDate = parsed
	}

	opts := recon.DefaultOptions(asOfDate)
	opts.OutlierThreshold = outlierThreshold

	if start != "" {
		parsed, err := time.Parse("2006-01-02", start)
		if err != nil {
			return recon.Options{}, fmt.Errorf("invalid start date: %w", err)
		}
		opts.StartDate = parsed
	}
	if end != "" {
		parsed, err := time.Parse("2006-01-02", end)
		if err != nil {
			return recon.Options{}, fmt.Errorf("invalid end date: %w", err)
		}
		opts.EndDate = parsed
	}

	return opts, nil
}

// CreateRunnerFiles returns the dataset file names, applying any overrides
// from the "files" section of the config file.
func CreateRunnerFiles() recon.Files {
	files := recon.DefaultFiles()

	overrides := map[string]*string{
		"bank_statement":                  &files.BankStatement,
		"gl_cash":                         &files.GLCash,
		"accounts_receivable":             &files.AccountsReceivable,
		"gl_accounts_receivable":          &files.GLAccountsReceivable,
		"allowance_for_doubtful_accounts": &files.Allowance,
		"accounts_payable":                &files.AccountsPayable,
		"gl_accounts_payable":             &files.GLAccountsPayable,
		"credit_card_statement":           &files.CreditCardStatement,
		"batch_payments":                  &files.BatchPayments,
		"fixed_assets":                    &files.FixedAssets,
		"gl_fixed_assets":                 &files.GLFixedAssets,
		"gl_depreciation":                 &files.GLDepreciation,
		"prepaid_expenses":                &files.PrepaidExpenses,
		"gl_prepaid_expenses":             &files.GLPrepaidExpenses,
		"accrued_expenses":                &files.AccruedExpenses,
		"gl_accrued_expenses":             &files.GLAccruedExpenses,
		"gl_inventory":                    &files.GLInventory,
		"physical_counts":                 &files.PhysicalCounts,
		"market_values":                   &files.MarketValues,
		"ap_transactions":                 &files.APTransactions,
		"gl_cash_equivalents":             &files.GLCashEquivalents,
		"broker_statements":               &files.BrokerStatements,
		"investment_details":              &files.InvestmentDetails,
	}
	for key, target := range overrides {
		if value := viper.GetString("files." + key); value != "" {
			*target = value
		}
	}

	return files
}

// CreateReportConfig creates a report configuration for the specified output
// format.
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	}

	return config
}
