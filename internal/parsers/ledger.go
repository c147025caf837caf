package parsers

import (
	"context"
	"io"
	"sort"
	"strings"

	"accounting-reconciliation-service/internal/models"
	"accounting-reconciliation-service/pkg/errors"
	"accounting-reconciliation-service/pkg/logger"
)

// LedgerSchema maps the columns of a ledger CSV onto LedgerEntry fields.
// Only ID, Date, and Amount are required; the remaining columns are read
// when present. Aliases list alternative header names per logical column.
type LedgerSchema struct {
	IDColumn          string
	DateColumn        string
	AmountColumn      string
	TypeColumn        string
	DescriptionColumn string
	PartyColumn       string
	Aliases           map[string][]string
}

// Schemas for the subledger and GL files of each domain. The ID column is
// the domain's natural identifier; Party carries the counterparty used for
// concentration analysis.
var (
	ARSchema = &LedgerSchema{
		IDColumn:          "invoice_id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		TypeColumn:        "type",
		DescriptionColumn: "description",
		PartyColumn:       "customer_id",
		Aliases: map[string][]string{
			"invoice_id": {"invoice", "invoice_number"},
		},
	}

	APSchema = &LedgerSchema{
		IDColumn:          "bill_id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		TypeColumn:        "payment_method",
		DescriptionColumn: "description",
		PartyColumn:       "vendor_id",
		Aliases: map[string][]string{
			"bill_id": {"bill", "bill_number"},
		},
	}

	FixedAssetSchema = &LedgerSchema{
		IDColumn:          "asset_id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		TypeColumn:        "transaction_type",
		DescriptionColumn: "description",
	}

	PrepaidSchema = &LedgerSchema{
		IDColumn:          "prepaid_id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		DescriptionColumn: "description",
	}

	AccruedSchema = &LedgerSchema{
		IDColumn:          "accrual_id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		DescriptionColumn: "description",
	}

	AllowanceSchema = &LedgerSchema{
		IDColumn:     "invoice_id",
		DateColumn:   "date",
		AmountColumn: "amount",
		TypeColumn:   "type",
	}

	CashEquivalentSchema = &LedgerSchema{
		IDColumn:          "investment_id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		TypeColumn:        "instrument_type",
		DescriptionColumn: "description",
	}

	CreditCardSchema = &LedgerSchema{
		IDColumn:          "transaction_id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		DescriptionColumn: "description",
	}
)

// LedgerParser loads ledger CSV files into LedgerEntry records using a
// column schema.
type LedgerParser struct {
	base   *BaseParser
	schema *LedgerSchema
	logger logger.Logger
}

// NewLedgerParser creates a LedgerParser for the given schema.
func NewLedgerParser(schema *LedgerSchema, config *ParseConfig) *LedgerParser {
	return &LedgerParser{
		base:   NewBaseParser(config),
		schema: schema,
		logger: logger.GetGlobalLogger().WithComponent("ledger_parser"),
	}
}

func (ls *LedgerSchema) aliasesFor(column string) []string {
	if ls.Aliases == nil {
		return nil
	}
	return ls.Aliases[column]
}

// ParseFile loads a ledger CSV file. Rows that fail to parse are recorded in
// the returned stats and skipped; the parse only fails outright on file or
// header problems.
func (lp *LedgerParser) ParseFile(ctx context.Context, filePath string) ([]models.LedgerEntry, *ParseStats, error) {
	file, reader, err := lp.base.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	// Header presence is checked after alias resolution, not by canonical
	// name alone.
	if err := lp.base.ReadHeaders(reader, parseCtx, filePath, nil); err != nil {
		return nil, nil, err
	}

	idIdx := parseCtx.GetColumnIndex(lp.schema.IDColumn, lp.schema.aliasesFor(lp.schema.IDColumn)...)
	dateIdx := parseCtx.GetColumnIndex(lp.schema.DateColumn, lp.schema.aliasesFor(lp.schema.DateColumn)...)
	amountIdx := parseCtx.GetColumnIndex(lp.schema.AmountColumn, lp.schema.aliasesFor(lp.schema.AmountColumn)...)

	var missing []string
	for column, idx := range map[string]int{
		lp.schema.IDColumn:     idIdx,
		lp.schema.DateColumn:   dateIdx,
		lp.schema.AmountColumn: amountIdx,
	} {
		if idx == -1 {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, nil, errors.ParseError(errors.CodeMissingColumn, filePath, parseCtx.LineNumber,
			strings.Join(missing, ", "), "", nil)
	}
	typeIdx, descIdx, partyIdx := -1, -1, -1
	if lp.schema.TypeColumn != "" {
		typeIdx = parseCtx.GetColumnIndex(lp.schema.TypeColumn, lp.schema.aliasesFor(lp.schema.TypeColumn)...)
	}
	if lp.schema.DescriptionColumn != "" {
		descIdx = parseCtx.GetColumnIndex(lp.schema.DescriptionColumn, lp.schema.aliasesFor(lp.schema.DescriptionColumn)...)
	}
	if lp.schema.PartyColumn != "" {
		partyIdx = parseCtx.GetColumnIndex(lp.schema.PartyColumn, lp.schema.aliasesFor(lp.schema.PartyColumn)...)
	}

	var entries []models.LedgerEntry
	for {
		record, err := lp.base.ReadRecord(reader, parseCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx != nil && ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			stats.AddError(parseCtx.LineNumber, "record", "", "failed to read record", err)
			continue
		}
		stats.RecordsParsed++

		entry := models.LedgerEntry{
			ID:          FieldValue(record, idIdx),
			Type:        FieldValue(record, typeIdx),
			Description: FieldValue(record, descIdx),
			Party:       FieldValue(record, partyIdx),
		}

		date, err := models.ParseDateWithFormats(FieldValue(record, dateIdx))
		if err != nil {
			stats.AddError(parseCtx.LineNumber, lp.schema.DateColumn, FieldValue(record, dateIdx), "invalid date", err)
			continue
		}
		entry.Date = date

		amount, err := models.ParseDecimalFromString(FieldValue(record, amountIdx))
		if err != nil {
			stats.AddError(parseCtx.LineNumber, lp.schema.AmountColumn, FieldValue(record, amountIdx), "invalid amount", err)
			continue
		}
		entry.Amount = amount

		if err := entry.Validate(); err != nil {
			stats.AddError(parseCtx.LineNumber, lp.schema.IDColumn, entry.ID, "invalid entry", err)
			continue
		}

		stats.RecordsValid++
		entries = append(entries, entry)
	}

	stats.TotalLines = parseCtx.LineNumber
	if stats.HasErrors() {
		lp.logger.WithFields(logger.Fields{
			"file":          filePath,
			"error_count":   stats.ErrorCount,
			"sample_errors": stats.SampleErrors(3),
		}).Warn("Some rows failed to parse")
	}

	return entries, stats, nil
}
