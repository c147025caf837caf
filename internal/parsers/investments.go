package parsers

import (
	"context"

	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// InvestmentParser loads the cash equivalents datasets: investment details
// and broker statement positions.
type InvestmentParser struct {
	base *BaseParser
}

// NewInvestmentParser creates a parser for investment files.
func NewInvestmentParser(config *ParseConfig) *InvestmentParser {
	return &InvestmentParser{base: NewBaseParser(config)}
}

// ParseInvestments loads the investment details file.
func (ip *InvestmentParser) ParseInvestments(ctx context.Context, filePath string) ([]models.Investment, *ParseStats, error) {
	required := []string{"investment_id", "instrument_type", "purchase_date", "maturity_date", "amount", "issuer"}
	return parseRows(ip.base, ctx, filePath, required,
		func(record []string, parseCtx *ParseContext) (models.Investment, string, string, error) {
			inv := models.Investment{
				InvestmentID:   FieldValue(record, parseCtx.GetColumnIndex("investment_id")),
				InstrumentType: FieldValue(record, parseCtx.GetColumnIndex("instrument_type")),
				Issuer:         FieldValue(record, parseCtx.GetColumnIndex("issuer")),
			}

			raw := FieldValue(record, parseCtx.GetColumnIndex("amount"))
			amount, err := models.ParseDecimalFromString(raw)
			if err != nil {
				return inv, "amount", raw, err
			}
			inv.Amount = amount

			raw = FieldValue(record, parseCtx.GetColumnIndex("purchase_date"))
			purchase, err := models.ParseDateWithFormats(raw)
			if err != nil {
				return inv, "purchase_date", raw, err
			}
			inv.PurchaseDate = purchase

			raw = FieldValue(record, parseCtx.GetColumnIndex("maturity_date"))
			maturity, err := models.ParseDateWithFormats(raw)
			if err != nil {
				return inv, "maturity_date", raw, err
			}
			inv.MaturityDate = maturity

			return inv, "", "", nil
		})
}

// ParseBrokerPositions loads the broker statement file.
func (ip *InvestmentParser) ParseBrokerPositions(ctx context.Context, filePath string) ([]models.BrokerPosition, *ParseStats, error) {
	required := []string{"investment_id", "date", "market_value"}
	return parseRows(ip.base, ctx, filePath, required,
		func(record []string, parseCtx *ParseContext) (models.BrokerPosition, string, string, error) {
			pos := models.BrokerPosition{
				InvestmentID: FieldValue(record, parseCtx.GetColumnIndex("investment_id")),
				Issuer:       FieldValue(record, parseCtx.GetColumnIndex("issuer")),
			}

			raw := FieldValue(record, parseCtx.GetColumnIndex("date"))
			date, err := models.ParseDateWithFormats(raw)
			if err != nil {
				return pos, "date", raw, err
			}
			pos.Date = date

			raw = FieldValue(record, parseCtx.GetColumnIndex("market_value"))
			value, err := models.ParseDecimalFromString(raw)
			if err != nil {
				return pos, "market_value", raw, err
			}
			pos.MarketValue = value

			if idx := parseCtx.GetColumnIndex("yield"); idx >= 0 {
				raw = FieldValue(record, idx)
				if raw != "" {
					y, err := models.ParseDecimalFromString(raw)
					if err != nil {
						return pos, "yield", raw, err
					}
					pos.Yield = y
				} else {
					pos.Yield = decimal.Zero
				}
			}

			return pos, "", "", nil
		})
}
