package parsers

import (
	"context"

	"accounting-reconciliation-service/internal/models"
)

// BatchPaymentParser loads AP batch payment run records.
type BatchPaymentParser struct {
	base *BaseParser
}

// NewBatchPaymentParser creates a parser for batch payment files.
func NewBatchPaymentParser(config *ParseConfig) *BatchPaymentParser {
	return &BatchPaymentParser{base: NewBaseParser(config)}
}

// ParseFile loads a batch payment CSV file.
func (bp *BatchPaymentParser) ParseFile(ctx context.Context, filePath string) ([]models.BatchPayment, *ParseStats, error) {
	required := []string{"batch_id", "bill_id", "date", "amount", "status"}
	return parseRows(bp.base, ctx, filePath, required,
		func(record []string, parseCtx *ParseContext) (models.BatchPayment, string, string, error) {
			payment := models.BatchPayment{
				BatchID: FieldValue(record, parseCtx.GetColumnIndex("batch_id")),
				BillID:  FieldValue(record, parseCtx.GetColumnIndex("bill_id")),
				Status:  FieldValue(record, parseCtx.GetColumnIndex("status")),
			}

			raw := FieldValue(record, parseCtx.GetColumnIndex("date"))
			date, err := models.ParseDateWithFormats(raw)
			if err != nil {
				return payment, "date", raw, err
			}
			payment.Date = date

			raw = FieldValue(record, parseCtx.GetColumnIndex("amount"))
			amount, err := models.ParseDecimalFromString(raw)
			if err != nil {
				return payment, "amount", raw, err
			}
			payment.Amount = amount

			return payment, "", "", nil
		})
}
