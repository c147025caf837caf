package parsers

import (
	"context"

	"accounting-reconciliation-service/internal/models"
)

// InventoryParser loads the four datasets used by inventory reconciliation:
// GL inventory positions, physical counts, market values, and AP shipment
// transactions for cut-off analysis.
type InventoryParser struct {
	base *BaseParser
}

// NewInventoryParser creates a parser for inventory files.
func NewInventoryParser(config *ParseConfig) *InventoryParser {
	return &InventoryParser{base: NewBaseParser(config)}
}

// ParseGLInventory loads GL inventory positions.
func (ip *InventoryParser) ParseGLInventory(ctx context.Context, filePath string) ([]models.InventoryRecord, *ParseStats, error) {
	required := []string{"item_id", "location_id", "quantity", "unit_cost", "date"}
	return parseRows(ip.base, ctx, filePath, required,
		func(record []string, parseCtx *ParseContext) (models.InventoryRecord, string, string, error) {
			rec := models.InventoryRecord{
				ItemID:     FieldValue(record, parseCtx.GetColumnIndex("item_id")),
				LocationID: FieldValue(record, parseCtx.GetColumnIndex("location_id")),
				Category:   FieldValue(record, parseCtx.GetColumnIndex("item_category", "category")),
			}

			raw := FieldValue(record, parseCtx.GetColumnIndex("quantity"))
			quantity, err := models.ParseDecimalFromString(raw)
			if err != nil {
				return rec, "quantity", raw, err
			}
			rec.Quantity = quantity

			raw = FieldValue(record, parseCtx.GetColumnIndex("unit_cost"))
			unitCost, err := models.ParseDecimalFromString(raw)
			if err != nil {
				return rec, "unit_cost", raw, err
			}
			rec.UnitCost = unitCost

			raw = FieldValue(record, parseCtx.GetColumnIndex("date"))
			date, err := models.ParseDateWithFormats(raw)
			if err != nil {
				return rec, "date", raw, err
			}
			rec.Date = date

			return rec, "", "", nil
		})
}

// ParsePhysicalCounts loads physical count records.
func (ip *InventoryParser) ParsePhysicalCounts(ctx context.Context, filePath string) ([]models.PhysicalCount, *ParseStats, error) {
	required := []string{"item_id", "location_id", "quantity", "count_date"}
	return parseRows(ip.base, ctx, filePath, required,
		func(record []string, parseCtx *ParseContext) (models.PhysicalCount, string, string, error) {
			count := models.PhysicalCount{
				ItemID:     FieldValue(record, parseCtx.GetColumnIndex("item_id")),
				LocationID: FieldValue(record, parseCtx.GetColumnIndex("location_id")),
			}

			raw := FieldValue(record, parseCtx.GetColumnIndex("quantity"))
			quantity, err := models.ParseDecimalFromString(raw)
			if err != nil {
				return count, "quantity", raw, err
			}
			count.Quantity = quantity

			raw = FieldValue(record, parseCtx.GetColumnIndex("count_date"))
			date, err := models.ParseDateWithFormats(raw)
			if err != nil {
				return count, "count_date", raw, err
			}
			count.CountDate = date

			return count, "", "", nil
		})
}

// ParseMarketValues loads market values for inventory items.
func (ip *InventoryParser) ParseMarketValues(ctx context.Context, filePath string) ([]models.MarketValue, *ParseStats, error) {
	required := []string{"item_id", "market_value"}
	return parseRows(ip.base, ctx, filePath, required,
		func(record []string, parseCtx *ParseContext) (models.MarketValue, string, string, error) {
			mv := models.MarketValue{
				ItemID: FieldValue(record, parseCtx.GetColumnIndex("item_id")),
			}

			raw := FieldValue(record, parseCtx.GetColumnIndex("market_value"))
			value, err := models.ParseDecimalFromString(raw)
			if err != nil {
				return mv, "market_value", raw, err
			}
			mv.MarketValue = value

			if idx := parseCtx.GetColumnIndex("valuation_date"); idx >= 0 {
				raw = FieldValue(record, idx)
				if raw != "" {
					date, err := models.ParseDateWithFormats(raw)
					if err != nil {
						return mv, "valuation_date", raw, err
					}
					mv.ValuationDate = date
				}
			}

			return mv, "", "", nil
		})
}

// ParseAPShipments loads AP transactions for inventory cut-off analysis.
func (ip *InventoryParser) ParseAPShipments(ctx context.Context, filePath string) ([]models.APShipment, *ParseStats, error) {
	required := []string{"transaction_id", "vendor_id", "transaction_date", "quantity", "unit_cost", "status"}
	return parseRows(ip.base, ctx, filePath, required,
		func(record []string, parseCtx *ParseContext) (models.APShipment, string, string, error) {
			shipment := models.APShipment{
				TransactionID: FieldValue(record, parseCtx.GetColumnIndex("transaction_id")),
				VendorID:      FieldValue(record, parseCtx.GetColumnIndex("vendor_id")),
				Status:        FieldValue(record, parseCtx.GetColumnIndex("status")),
			}

			raw := FieldValue(record, parseCtx.GetColumnIndex("transaction_date"))
			date, err := models.ParseDateWithFormats(raw)
			if err != nil {
				return shipment, "transaction_date", raw, err
			}
			shipment.Date = date

			raw = FieldValue(record, parseCtx.GetColumnIndex("quantity"))
			quantity, err := models.ParseDecimalFromString(raw)
			if err != nil {
				return shipment, "quantity", raw, err
			}
			shipment.Quantity = quantity

			raw = FieldValue(record, parseCtx.GetColumnIndex("unit_cost"))
			unitCost, err := models.ParseDecimalFromString(raw)
			if err != nil {
				return shipment, "unit_cost", raw, err
			}
			shipment.UnitCost = unitCost

			return shipment, "", "", nil
		})
}
