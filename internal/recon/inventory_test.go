package recon

import (
	"testing"

	"accounting-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inventoryRecord(t *testing.T, itemID, locationID string, qty, cost float64, date string) models.InventoryRecord {
	t.Helper()
	return models.InventoryRecord{
		ItemID:     itemID,
		LocationID: locationID,
		Quantity:   decimal.NewFromFloat(qty),
		UnitCost:   decimal.NewFromFloat(cost),
		Date:       mustDate(t, date),
	}
}

func TestInventoryPhysicalCounts(t *testing.T) {
	opts := Options{
		AsOf:      mustDate(t, "2024-03-31"),
		StartDate: mustDate(t, "2024-01-01"),
		EndDate:   mustDate(t, "2024-03-31"),
	}

	gl := []models.InventoryRecord{
		inventoryRecord(t, "ITEM-1", "LOC-1", 100, 5.00, "2024-03-01"),
		inventoryRecord(t, "ITEM-2", "LOC-1", 40, 12.00, "2024-03-01"),
		inventoryRecord(t, "ITEM-3", "LOC-2", 10, 3.00, "2024-03-01"),
	}
	counts := []models.PhysicalCount{
		{ItemID: "ITEM-1", LocationID: "LOC-1", Quantity: decimal.NewFromInt(98), CountDate: mustDate(t, "2024-03-30")},
		{ItemID: "ITEM-2", LocationID: "LOC-1", Quantity: decimal.NewFromInt(40), CountDate: mustDate(t, "2024-03-30")},
	}

	result := ReconcileInventory(gl, counts, nil, nil, opts)

	require.Len(t, result.Counts.Discrepancies, 2)

	first := result.Counts.Discrepancies[0]
	assert.Equal(t, "Count < GL", first.DiscrepancyType)
	assert.True(t, first.QuantityDiff.Equal(decimal.NewFromInt(-2)))
	assert.True(t, first.ValueDiff.Equal(decimal.NewFromInt(-10)))

	assert.Equal(t, "Matched", result.Counts.Discrepancies[1].DiscrepancyType)

	require.Len(t, result.Counts.UncountedItems, 1)
	assert.Equal(t, "ITEM-3|LOC-2", result.Counts.UncountedItems[0])

	assert.True(t, result.Counts.NetValueDiff.Equal(decimal.NewFromInt(-10)))
	assert.False(t, result.Reconciled)
}

func TestInventoryCountedItemMissingFromGL(t *testing.T) {
	opts := Options{
		AsOf:      mustDate(t, "2024-03-31"),
		StartDate: mustDate(t, "2024-01-01"),
		EndDate:   mustDate(t, "2024-03-31"),
	}

	gl := []models.InventoryRecord{
		inventoryRecord(t, "ITEM-1", "LOC-1", 100, 5.00, "2024-03-01"),
	}
	counts := []models.PhysicalCount{
		{ItemID: "ITEM-1", LocationID: "LOC-1", Quantity: decimal.NewFromInt(100), CountDate: mustDate(t, "2024-03-30")},
		// Counted on the floor but never booked.
		{ItemID: "ITEM-9", LocationID: "LOC-2", Quantity: decimal.NewFromInt(25), CountDate: mustDate(t, "2024-03-30")},
	}

	result := ReconcileInventory(gl, counts, nil, nil, opts)

	require.Len(t, result.Counts.Discrepancies, 2)

	unbooked := result.Counts.Discrepancies[1]
	assert.Equal(t, "ITEM-9", unbooked.ItemID)
	assert.Equal(t, "LOC-2", unbooked.LocationID)
	assert.Equal(t, "Count > GL", unbooked.DiscrepancyType)
	assert.True(t, unbooked.GLQuantity.IsZero())
	assert.True(t, unbooked.QuantityDiff.Equal(decimal.NewFromInt(25)))

	// No GL cost basis, so the unbooked item carries no value difference.
	assert.True(t, unbooked.ValueDiff.IsZero())
	assert.True(t, result.Counts.NetValueDiff.IsZero())
	assert.Empty(t, result.Counts.UncountedItems)
}

func TestInventoryObsolescence(t *testing.T) {
	asOf := mustDate(t, "2024-03-31")
	opts := Options{AsOf: asOf, StartDate: mustDate(t, "2024-01-01"), EndDate: asOf}

	gl := []models.InventoryRecord{
		// 30 days old: no reserve.
		inventoryRecord(t, "NEW", "LOC-1", 10, 100, "2024-03-01"),
		// 151 days old: 10% reserve on 1000.
		inventoryRecord(t, "MID", "LOC-1", 10, 100, "2023-11-01"),
		// 455 days old: 50% reserve on 1000, also slow moving.
		inventoryRecord(t, "OLD", "LOC-1", 10, 100, "2023-01-01"),
	}

	result := ReconcileInventory(gl, nil, nil, nil, opts)

	require.Len(t, result.Obsolescence.Buckets, 4)
	assert.True(t, result.Obsolescence.Buckets[0].Allowance.IsZero())
	assert.True(t, result.Obsolescence.Buckets[1].Allowance.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Obsolescence.Buckets[3].Allowance.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.Obsolescence.TotalAllowance.Equal(decimal.NewFromInt(600)))

	// Only OLD exceeds the slow-moving age.
	assert.Len(t, result.Obsolescence.SlowMovingItems, 1)
}

func TestInventoryValuation(t *testing.T) {
	opts := Options{
		AsOf:      mustDate(t, "2024-03-31"),
		StartDate: mustDate(t, "2024-01-01"),
		EndDate:   mustDate(t, "2024-03-31"),
	}

	glRecord := inventoryRecord(t, "ITEM-1", "LOC-1", 10, 8.00, "2024-03-01")
	glRecord.Category = "raw"
	above := inventoryRecord(t, "ITEM-2", "LOC-1", 5, 4.00, "2024-03-01")
	above.Category = "raw"

	market := []models.MarketValue{
		{ItemID: "ITEM-1", MarketValue: decimal.NewFromFloat(6.50)},
		{ItemID: "ITEM-2", MarketValue: decimal.NewFromFloat(5.00)},
	}

	result := ReconcileInventory([]models.InventoryRecord{glRecord, above}, nil, market, nil, opts)

	// Only ITEM-1 is carried above market: (8.00 - 6.50) * 10.
	require.Len(t, result.Valuation.WriteDowns, 1)
	assert.Equal(t, "ITEM-1", result.Valuation.WriteDowns[0].ItemID)
	assert.True(t, result.Valuation.TotalWriteDown.Equal(decimal.NewFromInt(15)))

	// Category adjustment nets to -15 because ITEM-2 stays at cost.
	require.Len(t, result.Valuation.CategoryAdjustments, 1)
	assert.Equal(t, "raw", result.Valuation.CategoryAdjustments[0].Category)
	assert.True(t, result.Valuation.CategoryAdjustments[0].Adjustment.Equal(decimal.NewFromInt(-15)))
}

func TestInventoryCutoff(t *testing.T) {
	opts := Options{
		AsOf:      mustDate(t, "2024-03-31"),
		StartDate: mustDate(t, "2024-01-01"),
		EndDate:   mustDate(t, "2024-03-31"),
	}

	shipments := []models.APShipment{
		// After cut-off and in transit: accrue 10 * 3.00.
		{TransactionID: "TXN-1", VendorID: "VEND-1", Date: mustDate(t, "2024-04-02"),
			Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(3), Status: "in_transit"},
		// After cut-off but already received.
		{TransactionID: "TXN-2", VendorID: "VEND-1", Date: mustDate(t, "2024-04-03"),
			Quantity: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(2), Status: "received"},
		// In transit but before cut-off.
		{TransactionID: "TXN-3", VendorID: "VEND-2", Date: mustDate(t, "2024-03-20"),
			Quantity: decimal.NewFromInt(7), UnitCost: decimal.NewFromInt(4), Status: "in_transit"},
	}

	result := ReconcileInventory(nil, nil, nil, shipments, opts)

	require.Len(t, result.Cutoff.InTransitShipments, 1)
	assert.Equal(t, "TXN-1", result.Cutoff.InTransitShipments[0].TransactionID)

	require.Len(t, result.Cutoff.VendorAccruals, 1)
	assert.Equal(t, "VEND-1", result.Cutoff.VendorAccruals[0].VendorID)
	assert.True(t, result.Cutoff.TotalAccrual.Equal(decimal.NewFromInt(30)))
}
