package parsers

import (
	"context"
	"io"

	"accounting-reconciliation-service/internal/models"
	"accounting-reconciliation-service/pkg/logger"
)

// BankTransactionParser loads GL cash account exports and bank statements.
// Both files share the txn_date/txn_amount/txn_description column layout;
// txn_type, check_num, and reference_id are optional.
type BankTransactionParser struct {
	base   *BaseParser
	logger logger.Logger
}

// NewBankTransactionParser creates a parser for bank transaction files.
func NewBankTransactionParser(config *ParseConfig) *BankTransactionParser {
	return &BankTransactionParser{
		base:   NewBaseParser(config),
		logger: logger.GetGlobalLogger().WithComponent("bank_parser"),
	}
}

// ParseFile loads a bank transaction CSV file.
func (bp *BankTransactionParser) ParseFile(ctx context.Context, filePath string) ([]models.BankTransaction, *ParseStats, error) {
	file, reader, err := bp.base.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	required := []string{"txn_date", "txn_amount", "txn_description"}
	if err := bp.base.ReadHeaders(reader, parseCtx, filePath, required); err != nil {
		return nil, nil, err
	}

	dateIdx := parseCtx.GetColumnIndex("txn_date", "date", "transaction_date")
	amountIdx := parseCtx.GetColumnIndex("txn_amount", "amount")
	descIdx := parseCtx.GetColumnIndex("txn_description", "description")
	typeIdx := parseCtx.GetColumnIndex("txn_type", "type")
	checkIdx := parseCtx.GetColumnIndex("check_num", "check_number")
	refIdx := parseCtx.GetColumnIndex("reference_id", "reference")

	var transactions []models.BankTransaction
	for {
		record, err := bp.base.ReadRecord(reader, parseCtx)
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

		txn := models.BankTransaction{
			Description: FieldValue(record, descIdx),
			Type:        FieldValue(record, typeIdx),
			CheckNumber: FieldValue(record, checkIdx),
			Reference:   FieldValue(record, refIdx),
		}

		date, err := models.ParseDateWithFormats(FieldValue(record, dateIdx))
		if err != nil {
			stats.AddError(parseCtx.LineNumber, "txn_date", FieldValue(record, dateIdx), "invalid date", err)
			continue
		}
		txn.Date = date

		amount, err := models.ParseDecimalFromString(FieldValue(record, amountIdx))
		if err != nil {
			stats.AddError(parseCtx.LineNumber, "txn_amount", FieldValue(record, amountIdx), "invalid amount", err)
			continue
		}
		txn.Amount = amount

		stats.RecordsValid++
		transactions = append(transactions, txn)
	}

	stats.TotalLines = parseCtx.LineNumber
	if stats.HasErrors() {
		bp.logger.WithFields(logger.Fields{
			"file":          filePath,
			"error_count":   stats.ErrorCount,
			"sample_errors": stats.SampleErrors(3),
		}).Warn("Some rows failed to parse")
	}

	return transactions, stats, nil
}
