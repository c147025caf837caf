package recon

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"accounting-reconciliation-service/internal/models"
	"accounting-reconciliation-service/internal/parsers"
	"accounting-reconciliation-service/pkg/errors"
	"accounting-reconciliation-service/pkg/logger"
)

// Domain identifiers accepted by the runner.
const (
	DomainBank            = "bank"
	DomainAR              = "accounts_receivable"
	DomainAP              = "accounts_payable"
	DomainFixedAssets     = "fixed_assets"
	DomainPrepaid         = "prepaid_expenses"
	DomainAccrued         = "accrued_expenses"
	DomainInventory       = "inventory"
	DomainCashEquivalents = "cash_equivalents"
)

// AllDomains lists every domain in report order.
var AllDomains = []string{
	DomainBank,
	DomainAR,
	DomainAP,
	DomainFixedAssets,
	DomainPrepaid,
	DomainAccrued,
	DomainInventory,
	DomainCashEquivalents,
}

// Files names the CSV dataset of each domain, relative to the data
// directory.
type Files struct {
	BankStatement string
	GLCash        string

	AccountsReceivable   string
	GLAccountsReceivable string
	Allowance            string

	AccountsPayable     string
	GLAccountsPayable   string
	CreditCardStatement string
	BatchPayments       string

	FixedAssets    string
	GLFixedAssets  string
	GLDepreciation string

	PrepaidExpenses   string
	GLPrepaidExpenses string

	AccruedExpenses   string
	GLAccruedExpenses string

	GLInventory    string
	PhysicalCounts string
	MarketValues   string
	APTransactions string

	GLCashEquivalents string
	BrokerStatements  string
	InvestmentDetails string
}

// DefaultFiles returns the standard dataset file names.
func DefaultFiles() Files {
	return Files{
		BankStatement: "bank_statement.csv",
		GLCash:        "gl_cash.csv",

		AccountsReceivable:   "accounts_receivable.csv",
		GLAccountsReceivable: "gl_accounts_receivable.csv",
		Allowance:            "allowance_for_doubtful_accounts.csv",

		AccountsPayable:     "accounts_payable.csv",
		GLAccountsPayable:   "gl_accounts_payable.csv",
		CreditCardStatement: "credit_card_statement.csv",
		BatchPayments:       "batch_payments.csv",

		FixedAssets:    "fixed_assets.csv",
		GLFixedAssets:  "gl_fixed_assets.csv",
		GLDepreciation: "gl_depreciation.csv",

		PrepaidExpenses:   "prepaid_expenses.csv",
		GLPrepaidExpenses: "gl_prepaid_expenses.csv",

		AccruedExpenses:   "accrued_expenses.csv",
		GLAccruedExpenses: "gl_accrued_expenses.csv",

		GLInventory:    "gl_inventory.csv",
		PhysicalCounts: "physical_counts.csv",
		MarketValues:   "market_values.csv",
		APTransactions: "ap_transactions.csv",

		GLCashEquivalents: "gl_cash_equivalents.csv",
		BrokerStatements:  "broker_statements.csv",
		InvestmentDetails: "investment_details.csv",
	}
}

// Runner loads each domain's datasets from the data directory and executes
// its reconciliation.
type Runner struct {
	dataDir          string
	files            Files
	opts             Options
	parse            *parsers.ParseConfig
	logger           logger.Logger
	progressInterval time.Duration
}

// NewRunner creates a Runner over dataDir.
func NewRunner(dataDir string, files Files, opts Options) *Runner {
	return &Runner{
		dataDir: dataDir,
		files:   files,
		opts:    opts,
		logger:  logger.GetGlobalLogger().WithComponent("runner"),
	}
}

// EnableProgress makes the runner log a progress line after every domain
// instead of only at the default interval.
func (r *Runner) EnableProgress() {
	r.progressInterval = time.Nanosecond
}

// Run executes the named domains in order and returns their results. An
// empty domain list runs everything.
func (r *Runner) Run(ctx context.Context, domains []string) ([]Result, error) {
	if len(domains) == 0 {
		domains = AllDomains
	}

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation:   "reconciliation",
		Total:       int64(len(domains)),
		LogInterval: r.progressInterval,
		Logger:      r.logger,
	})

	results := make([]Result, 0, len(domains))
	for _, domain := range domains {
		if err := ctx.Err(); err != nil {
			progress.CompleteWithError(err)
			return results, err
		}

		r.logger.WithField("domain", domain).Info("Reconciling domain")
		result, err := r.runDomain(ctx, domain)
		if err != nil {
			progress.CompleteWithError(err)
			return results, err
		}
		results = append(results, result)
		progress.Increment()
	}

	progress.Complete()
	return results, nil
}

func (r *Runner) runDomain(ctx context.Context, domain string) (Result, error) {
	switch domain {
	case DomainBank:
		return r.RunBank(ctx)
	case DomainAR:
		return r.RunAR(ctx)
	case DomainAP:
		return r.RunAP(ctx)
	case DomainFixedAssets:
		return r.RunFixedAssets(ctx)
	case DomainPrepaid:
		return r.RunPrepaid(ctx)
	case DomainAccrued:
		return r.RunAccrued(ctx)
	case DomainInventory:
		return r.RunInventory(ctx)
	case DomainCashEquivalents:
		return r.RunCashEquivalents(ctx)
	default:
		return nil, errors.ReconciliationError(errors.CodeUnknownDomain, domain, nil)
	}
}

// RunBank loads the bank statement and GL cash datasets and reconciles them.
func (r *Runner) RunBank(ctx context.Context) (*BankResult, error) {
	parser := parsers.NewBankTransactionParser(r.parse)

	bank, _, err := parser.ParseFile(ctx, r.path(r.files.BankStatement))
	if err != nil {
		return nil, err
	}
	gl, _, err := parser.ParseFile(ctx, r.path(r.files.GLCash))
	if err != nil {
		return nil, err
	}
	return ReconcileBank(bank, gl, r.opts), nil
}

// RunAR loads the AR subledger, GL control account, and allowance datasets
// and reconciles them.
func (r *Runner) RunAR(ctx context.Context) (*ARResult, error) {
	ar, err := r.loadLedger(ctx, parsers.ARSchema, r.files.AccountsReceivable)
	if err != nil {
		return nil, err
	}
	gl, err := r.loadLedger(ctx, parsers.ARSchema, r.files.GLAccountsReceivable)
	if err != nil {
		return nil, err
	}
	allowance, err := r.loadOptionalLedger(ctx, parsers.AllowanceSchema, r.files.Allowance)
	if err != nil {
		return nil, err
	}
	return ReconcileAR(ar, gl, allowance, r.opts), nil
}

// RunAP loads the AP subledger, GL control account, credit card statement,
// and batch payment datasets and reconciles them.
func (r *Runner) RunAP(ctx context.Context) (*APResult, error) {
	ap, err := r.loadLedger(ctx, parsers.APSchema, r.files.AccountsPayable)
	if err != nil {
		return nil, err
	}
	gl, err := r.loadLedger(ctx, parsers.APSchema, r.files.GLAccountsPayable)
	if err != nil {
		return nil, err
	}
	creditCard, err := r.loadOptionalLedger(ctx, parsers.CreditCardSchema, r.files.CreditCardStatement)
	if err != nil {
		return nil, err
	}

	var batches []models.BatchPayment
	if r.exists(r.files.BatchPayments) {
		batches, _, err = parsers.NewBatchPaymentParser(r.parse).ParseFile(ctx, r.path(r.files.BatchPayments))
		if err != nil {
			return nil, err
		}
	}
	return ReconcileAP(ap, gl, creditCard, batches, r.opts), nil
}

// RunFixedAssets loads the asset register, GL asset account, and
// depreciation datasets and reconciles them.
func (r *Runner) RunFixedAssets(ctx context.Context) (*FixedAssetResult, error) {
	register, err := r.loadLedger(ctx, parsers.FixedAssetSchema, r.files.FixedAssets)
	if err != nil {
		return nil, err
	}
	gl, err := r.loadLedger(ctx, parsers.FixedAssetSchema, r.files.GLFixedAssets)
	if err != nil {
		return nil, err
	}
	depreciation, err := r.loadOptionalLedger(ctx, parsers.FixedAssetSchema, r.files.GLDepreciation)
	if err != nil {
		return nil, err
	}
	return ReconcileFixedAssets(register, gl, depreciation, r.opts), nil
}

// RunPrepaid loads the prepaid schedule and GL prepaid account and
// reconciles them.
func (r *Runner) RunPrepaid(ctx context.Context) (*PrepaidResult, error) {
	schedule, err := r.loadLedger(ctx, parsers.PrepaidSchema, r.files.PrepaidExpenses)
	if err != nil {
		return nil, err
	}
	gl, err := r.loadLedger(ctx, parsers.PrepaidSchema, r.files.GLPrepaidExpenses)
	if err != nil {
		return nil, err
	}
	return ReconcilePrepaid(schedule, gl, r.opts), nil
}

// RunAccrued loads the accrual schedule and GL accrual account and
// reconciles them.
func (r *Runner) RunAccrued(ctx context.Context) (*AccruedResult, error) {
	schedule, err := r.loadLedger(ctx, parsers.AccruedSchema, r.files.AccruedExpenses)
	if err != nil {
		return nil, err
	}
	gl, err := r.loadLedger(ctx, parsers.AccruedSchema, r.files.GLAccruedExpenses)
	if err != nil {
		return nil, err
	}
	return ReconcileAccrued(schedule, gl, r.opts), nil
}

// RunInventory loads the GL inventory, physical counts, market values, and
// AP transaction datasets and reconciles them.
func (r *Runner) RunInventory(ctx context.Context) (*InventoryResult, error) {
	parser := parsers.NewInventoryParser(r.parse)

	gl, _, err := parser.ParseGLInventory(ctx, r.path(r.files.GLInventory))
	if err != nil {
		return nil, err
	}
	counts, _, err := parser.ParsePhysicalCounts(ctx, r.path(r.files.PhysicalCounts))
	if err != nil {
		return nil, err
	}

	var market []models.MarketValue
	if r.exists(r.files.MarketValues) {
		market, _, err = parser.ParseMarketValues(ctx, r.path(r.files.MarketValues))
		if err != nil {
			return nil, err
		}
	}
	var shipments []models.APShipment
	if r.exists(r.files.APTransactions) {
		shipments, _, err = parser.ParseAPShipments(ctx, r.path(r.files.APTransactions))
		if err != nil {
			return nil, err
		}
	}
	return ReconcileInventory(gl, counts, market, shipments, r.opts), nil
}

// RunCashEquivalents loads the GL cash equivalent positions, investment
// details, and broker statement datasets and reconciles them.
func (r *Runner) RunCashEquivalents(ctx context.Context) (*CashEquivalentResult, error) {
	gl, err := r.loadLedger(ctx, parsers.CashEquivalentSchema, r.files.GLCashEquivalents)
	if err != nil {
		return nil, err
	}

	parser := parsers.NewInvestmentParser(r.parse)
	investments, _, err := parser.ParseInvestments(ctx, r.path(r.files.InvestmentDetails))
	if err != nil {
		return nil, err
	}
	broker, _, err := parser.ParseBrokerPositions(ctx, r.path(r.files.BrokerStatements))
	if err != nil {
		return nil, err
	}
	return ReconcileCashEquivalents(gl, investments, broker, r.opts), nil
}

func (r *Runner) loadLedger(ctx context.Context, schema *parsers.LedgerSchema, name string) ([]models.LedgerEntry, error) {
	entries, stats, err := parsers.NewLedgerParser(schema, r.parse).ParseFile(ctx, r.path(name))
	if err != nil {
		return nil, err
	}
	r.logger.WithFields(logger.Fields{
		"file":  name,
		"stats": stats.String(),
	}).Debug("Loaded ledger file")
	return entries, nil
}

// loadOptionalLedger behaves like loadLedger but treats a missing file as an
// empty dataset.
func (r *Runner) loadOptionalLedger(ctx context.Context, schema *parsers.LedgerSchema, name string) ([]models.LedgerEntry, error) {
	if !r.exists(name) {
		r.logger.WithField("file", name).Debug("Optional dataset not present, skipping")
		return nil, nil
	}
	return r.loadLedger(ctx, schema, name)
}

func (r *Runner) path(name string) string {
	return filepath.Join(r.dataDir, name)
}

func (r *Runner) exists(name string) bool {
	_, err := os.Stat(r.path(name))
	return err == nil
}
