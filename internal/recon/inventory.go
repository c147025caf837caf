package recon

import (
	"fmt"
	"io"
	"sort"
	"time"

	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

const slowMovingAgeDays = 180

// Obsolescence reserve factors by age bucket.
var obsolescenceFactors = []struct {
	Bucket  string
	MaxDays int
	Factor  decimal.Decimal
}{
	{"0-90_days", 90, decimal.Zero},
	{"91-180_days", 180, decimal.NewFromFloat(0.10)},
	{"181-365_days", 365, decimal.NewFromFloat(0.25)},
	{"over_365_days", -1, decimal.NewFromFloat(0.50)},
}

// CountDiscrepancy is one item and location where the physical count and the
// GL quantity disagree, or agree (DiscrepancyType "Matched").
type CountDiscrepancy struct {
	ItemID          string          `json:"item_id"`
	LocationID      string          `json:"location_id"`
	GLQuantity      decimal.Decimal `json:"gl_quantity"`
	CountQuantity   decimal.Decimal `json:"count_quantity"`
	QuantityDiff    decimal.Decimal `json:"quantity_diff"`
	ValueDiff       decimal.Decimal `json:"value_diff"`
	DiscrepancyType string          `json:"discrepancy_type"`
}

// PhysicalCountAnalysis compares physical counts to GL quantities per item
// and location.
type PhysicalCountAnalysis struct {
	Discrepancies  []CountDiscrepancy `json:"discrepancies"`
	UncountedItems []string           `json:"uncounted_items"`
	NetValueDiff   decimal.Decimal    `json:"net_value_diff"`
}

// ObsolescenceBucket is the reserve computed for one age bucket.
type ObsolescenceBucket struct {
	Bucket    string          `json:"bucket"`
	ItemCount int             `json:"item_count"`
	Value     decimal.Decimal `json:"value"`
	Allowance decimal.Decimal `json:"allowance"`
}

// ObsolescenceAnalysis builds the obsolescence reserve by aging the GL
// inventory and flags slow-moving items.
type ObsolescenceAnalysis struct {
	Buckets         []ObsolescenceBucket     `json:"buckets"`
	TotalAllowance  decimal.Decimal          `json:"total_allowance"`
	SlowMovingItems []models.InventoryRecord `json:"slow_moving_items"`
}

// WriteDown is one item carried above market.
type WriteDown struct {
	ItemID      string          `json:"item_id"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	MarketValue decimal.Decimal `json:"market_value"`
	Quantity    decimal.Decimal `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// CategoryAdjustment is the lower-of-cost-or-market adjustment for one item
// category.
type CategoryAdjustment struct {
	Category   string          `json:"category"`
	Adjustment decimal.Decimal `json:"adjustment"`
}

// ValuationAnalysis applies the lower-of-cost-or-market rule.
type ValuationAnalysis struct {
	WriteDowns          []WriteDown          `json:"write_downs"`
	TotalWriteDown      decimal.Decimal      `json:"total_write_down"`
	CategoryAdjustments []CategoryAdjustment `json:"category_adjustments"`
}

// VendorAccrual is the cut-off accrual owed to one vendor for goods in
// transit at period end.
type VendorAccrual struct {
	VendorID      string          `json:"vendor_id"`
	ShipmentCount int             `json:"shipment_count"`
	Accrual       decimal.Decimal `json:"accrual"`
}

// CutoffAnalysis finds goods invoiced after the cut-off date that were still
// in transit, which need an accrual in the closing period.
type CutoffAnalysis struct {
	InTransitShipments []models.APShipment `json:"in_transit_shipments"`
	VendorAccruals     []VendorAccrual     `json:"vendor_accruals"`
	TotalAccrual       decimal.Decimal     `json:"total_accrual"`
}

// InventoryResult is the outcome of reconciling physical counts, market
// values, and in-transit shipments against the GL inventory.
type InventoryResult struct {
	Counts       PhysicalCountAnalysis `json:"counts"`
	Obsolescence ObsolescenceAnalysis  `json:"obsolescence"`
	Valuation    ValuationAnalysis     `json:"valuation"`
	Cutoff       CutoffAnalysis        `json:"cutoff"`

	GLValue    decimal.Decimal `json:"gl_value"`
	Reconciled bool            `json:"reconciled"`
}

// Domain returns the domain identifier for reporting.
func (r *InventoryResult) Domain() string { return "inventory" }

// IsReconciled reports whether the physical counts tie to the GL quantities
// within tolerance.
func (r *InventoryResult) IsReconciled() bool { return r.Reconciled }

// ReconcileInventory reconciles the GL inventory against physical counts,
// applies obsolescence reserves and the lower-of-cost-or-market rule, and
// computes cut-off accruals for in-transit shipments.
func ReconcileInventory(gl []models.InventoryRecord, counts []models.PhysicalCount,
	market []models.MarketValue, shipments []models.APShipment, opts Options) *InventoryResult {

	result := &InventoryResult{
		Counts:       analyzePhysicalCounts(gl, counts),
		Obsolescence: analyzeObsolescence(gl, opts.AsOf),
		Valuation:    analyzeValuation(gl, market),
		Cutoff:       analyzeCutoff(shipments, opts.EndDate),
	}

	for _, record := range gl {
		result.GLValue = result.GLValue.Add(record.Value())
	}
	result.Reconciled = result.Counts.NetValueDiff.Abs().LessThanOrEqual(Tolerance)
	return result
}

// analyzePhysicalCounts joins counts to GL records on item and location and
// values each quantity difference at the GL unit cost. Counted items with no
// GL record surface as discrepancies against a zero GL quantity; with no cost
// basis their value difference is zero.
func analyzePhysicalCounts(gl []models.InventoryRecord, counts []models.PhysicalCount) PhysicalCountAnalysis {
	countsByKey := make(map[string]models.PhysicalCount)
	for _, count := range counts {
		countsByKey[count.ItemLocationKey()] = count
	}

	var analysis PhysicalCountAnalysis
	matchedCounts := make(map[string]bool, len(counts))
	for _, record := range gl {
		key := record.ItemLocationKey()
		count, counted := countsByKey[key]
		if !counted {
			analysis.UncountedItems = append(analysis.UncountedItems, key)
			continue
		}
		matchedCounts[key] = true

		quantityDiff := count.Quantity.Sub(record.Quantity)
		discrepancy := CountDiscrepancy{
			ItemID:        record.ItemID,
			LocationID:    record.LocationID,
			GLQuantity:    record.Quantity,
			CountQuantity: count.Quantity,
			QuantityDiff:  quantityDiff,
			ValueDiff:     quantityDiff.Mul(record.UnitCost),
		}
		switch {
		case quantityDiff.GreaterThan(decimal.Zero):
			discrepancy.DiscrepancyType = "Count > GL"
		case quantityDiff.LessThan(decimal.Zero):
			discrepancy.DiscrepancyType = "Count < GL"
		default:
			discrepancy.DiscrepancyType = "Matched"
		}
		analysis.Discrepancies = append(analysis.Discrepancies, discrepancy)
		analysis.NetValueDiff = analysis.NetValueDiff.Add(discrepancy.ValueDiff)
	}

	for _, count := range counts {
		if matchedCounts[count.ItemLocationKey()] {
			continue
		}
		matchedCounts[count.ItemLocationKey()] = true
		analysis.Discrepancies = append(analysis.Discrepancies, CountDiscrepancy{
			ItemID:          count.ItemID,
			LocationID:      count.LocationID,
			GLQuantity:      decimal.Zero,
			CountQuantity:   count.Quantity,
			QuantityDiff:    count.Quantity,
			ValueDiff:       decimal.Zero,
			DiscrepancyType: "Count > GL",
		})
	}
	return analysis
}

// analyzeObsolescence ages the inventory as of the reporting date and
// reserves a fixed percentage of value per age bucket.
func analyzeObsolescence(gl []models.InventoryRecord, asOf time.Time) ObsolescenceAnalysis {
	buckets := make([]ObsolescenceBucket, len(obsolescenceFactors))
	for i, factor := range obsolescenceFactors {
		buckets[i] = ObsolescenceBucket{Bucket: factor.Bucket, Value: decimal.Zero, Allowance: decimal.Zero}
	}

	var analysis ObsolescenceAnalysis
	for _, record := range gl {
		age := record.AgeDays(asOf)
		idx := len(obsolescenceFactors) - 1
		for i, factor := range obsolescenceFactors {
			if factor.MaxDays >= 0 && age <= factor.MaxDays {
				idx = i
				break
			}
		}
		buckets[idx].ItemCount++
		buckets[idx].Value = buckets[idx].Value.Add(record.Value())
		buckets[idx].Allowance = buckets[idx].Allowance.Add(record.Value().Mul(obsolescenceFactors[idx].Factor))

		if age > slowMovingAgeDays {
			analysis.SlowMovingItems = append(analysis.SlowMovingItems, record)
		}
	}

	analysis.Buckets = buckets
	for _, bucket := range buckets {
		analysis.TotalAllowance = analysis.TotalAllowance.Add(bucket.Allowance)
	}
	return analysis
}

// analyzeValuation writes items down to market where market has fallen below
// cost and aggregates the adjustment by item category.
func analyzeValuation(gl []models.InventoryRecord, market []models.MarketValue) ValuationAnalysis {
	marketByItem := make(map[string]decimal.Decimal)
	for _, mv := range market {
		marketByItem[mv.ItemID] = mv.MarketValue
	}

	var analysis ValuationAnalysis
	adjustments := make(map[string]decimal.Decimal)
	for _, record := range gl {
		marketValue, ok := marketByItem[record.ItemID]
		if !ok {
			continue
		}

		if marketValue.LessThan(record.UnitCost) {
			writeDown := record.UnitCost.Sub(marketValue).Mul(record.Quantity)
			analysis.WriteDowns = append(analysis.WriteDowns, WriteDown{
				ItemID:      record.ItemID,
				UnitCost:    record.UnitCost,
				MarketValue: marketValue,
				Quantity:    record.Quantity,
				Amount:      writeDown,
			})
			analysis.TotalWriteDown = analysis.TotalWriteDown.Add(writeDown)
		}

		carrying := decimal.Min(record.UnitCost, marketValue)
		adjustment := carrying.Sub(record.UnitCost).Mul(record.Quantity)
		adjustments[record.Category] = adjustments[record.Category].Add(adjustment)
	}

	for category, adjustment := range adjustments {
		analysis.CategoryAdjustments = append(analysis.CategoryAdjustments, CategoryAdjustment{
			Category:   category,
			Adjustment: adjustment,
		})
	}
	sort.Slice(analysis.CategoryAdjustments, func(i, j int) bool {
		return analysis.CategoryAdjustments[i].Category < analysis.CategoryAdjustments[j].Category
	})
	return analysis
}

// analyzeCutoff accrues goods invoiced after the cut-off date that were
// still in transit, grouped by vendor.
func analyzeCutoff(shipments []models.APShipment, cutoff time.Time) CutoffAnalysis {
	var analysis CutoffAnalysis
	accruals := make(map[string]*VendorAccrual)

	for _, shipment := range shipments {
		if !shipment.Date.After(cutoff) || !shipment.IsInTransit() {
			continue
		}
		analysis.InTransitShipments = append(analysis.InTransitShipments, shipment)

		accrual, ok := accruals[shipment.VendorID]
		if !ok {
			accrual = &VendorAccrual{VendorID: shipment.VendorID, Accrual: decimal.Zero}
			accruals[shipment.VendorID] = accrual
		}
		accrual.ShipmentCount++
		accrual.Accrual = accrual.Accrual.Add(shipment.AccrualAmount())
		analysis.TotalAccrual = analysis.TotalAccrual.Add(shipment.AccrualAmount())
	}

	for _, accrual := range accruals {
		analysis.VendorAccruals = append(analysis.VendorAccruals, *accrual)
	}
	sort.Slice(analysis.VendorAccruals, func(i, j int) bool {
		return analysis.VendorAccruals[i].VendorID < analysis.VendorAccruals[j].VendorID
	})
	return analysis
}

// WriteText renders the inventory reconciliation section of the console
// report.
func (r *InventoryResult) WriteText(w io.Writer) {
	fmt.Fprintln(w, "=== Inventory Reconciliation ===")
	fmt.Fprintf(w, "GL inventory value: %s\n", r.GLValue.StringFixed(2))
	fmt.Fprintf(w, "Count discrepancies: %d, net value difference: %s, reconciled: %v\n",
		countRealDiscrepancies(r.Counts.Discrepancies), r.Counts.NetValueDiff.StringFixed(2), r.Reconciled)
	if len(r.Counts.UncountedItems) > 0 {
		fmt.Fprintf(w, "Items without a physical count: %d\n", len(r.Counts.UncountedItems))
	}

	fmt.Fprintln(w, "Obsolescence reserve:")
	for _, bucket := range r.Obsolescence.Buckets {
		fmt.Fprintf(w, "  %-14s %4d items, value %s, allowance %s\n",
			bucket.Bucket, bucket.ItemCount, bucket.Value.StringFixed(2), bucket.Allowance.StringFixed(2))
	}
	fmt.Fprintf(w, "Total obsolescence allowance: %s, slow-moving items: %d\n",
		r.Obsolescence.TotalAllowance.StringFixed(2), len(r.Obsolescence.SlowMovingItems))

	fmt.Fprintf(w, "Lower-of-cost-or-market write-downs: %d totaling %s\n",
		len(r.Valuation.WriteDowns), r.Valuation.TotalWriteDown.StringFixed(2))
	for _, adjustment := range r.Valuation.CategoryAdjustments {
		fmt.Fprintf(w, "  Category %s adjustment: %s\n",
			adjustment.Category, adjustment.Adjustment.StringFixed(2))
	}

	fmt.Fprintf(w, "Cut-off accrual for in-transit goods: %s across %d vendors\n",
		r.Cutoff.TotalAccrual.StringFixed(2), len(r.Cutoff.VendorAccruals))
}

func countRealDiscrepancies(discrepancies []CountDiscrepancy) int {
	n := 0
	for _, d := range discrepancies {
		if d.DiscrepancyType != "Matched" {
			n++
		}
	}
	return n
}
