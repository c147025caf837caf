package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is a row from either the company's GL cash account or the
// bank statement.
type BankTransaction struct {
	Reference   string          `json:"reference" csv:"reference_id"`
	Date        time.Time       `json:"date" csv:"txn_date"`
	Amount      decimal.Decimal `json:"amount" csv:"txn_amount"`
	Description string          `json:"description" csv:"txn_description"`
	Type        string          `json:"type,omitempty" csv:"txn_type"`
	CheckNumber string          `json:"check_number,omitempty" csv:"check_num"`
}

// MatchKey returns the composite key used to match GL and bank rows: date,
// amount, and description together.
func (t *BankTransaction) MatchKey() string {
	return t.Date.Format("2006-01-02") + "|" + t.Amount.String() + "|" + strings.ToLower(strings.TrimSpace(t.Description))
}

// IsCheck reports whether the transaction carries a check number.
func (t *BankTransaction) IsCheck() bool {
	return strings.TrimSpace(t.CheckNumber) != ""
}

// IsServiceFee reports whether the description marks a bank service fee.
func (t *BankTransaction) IsServiceFee() bool {
	return strings.Contains(strings.ToLower(t.Description), "fee")
}

// IsRoundAmount reports whether the amount is an exact multiple of 100.
func (t *BankTransaction) IsRoundAmount() bool {
	return t.Amount.Mod(decimal.NewFromInt(100)).IsZero()
}

func (t *BankTransaction) String() string {
	return fmt.Sprintf("BankTransaction{Ref: %s, Amount: %s, Date: %s}",
		t.Reference, t.Amount.String(), t.Date.Format("2006-01-02"))
}

// InventoryRecord is a GL inventory position for an item at a location.
type InventoryRecord struct {
	ItemID     string          `json:"item_id" csv:"item_id"`
	LocationID string          `json:"location_id" csv:"location_id"`
	Category   string          `json:"item_category,omitempty" csv:"item_category"`
	Quantity   decimal.Decimal `json:"quantity" csv:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost" csv:"unit_cost"`
	Date       time.Time       `json:"date" csv:"date"`
}

// ItemLocationKey identifies the item at its location.
func (r *InventoryRecord) ItemLocationKey() string {
	return r.ItemID + "|" + r.LocationID
}

// Value returns quantity times unit cost.
func (r *InventoryRecord) Value() decimal.Decimal {
	return r.Quantity.Mul(r.UnitCost)
}

// AgeDays returns the age of the position in whole days as of the given date.
func (r *InventoryRecord) AgeDays(asOf time.Time) int {
	return int(asOf.Sub(r.Date).Hours() / 24)
}

// PhysicalCount is a physical inventory count for an item at a location.
type PhysicalCount struct {
	ItemID     string          `json:"item_id" csv:"item_id"`
	LocationID string          `json:"location_id" csv:"location_id"`
	Quantity   decimal.Decimal `json:"quantity" csv:"quantity"`
	CountDate  time.Time       `json:"count_date" csv:"count_date"`
}

// ItemLocationKey identifies the counted item at its location.
func (c *PhysicalCount) ItemLocationKey() string {
	return c.ItemID + "|" + c.LocationID
}

// MarketValue is the current market price of an inventory item.
type MarketValue struct {
	ItemID        string          `json:"item_id" csv:"item_id"`
	MarketValue   decimal.Decimal `json:"market_value" csv:"market_value"`
	ValuationDate time.Time       `json:"valuation_date" csv:"valuation_date"`
}

// APShipment is an AP transaction for inventory cut-off analysis.
type APShipment struct {
	TransactionID string          `json:"transaction_id" csv:"transaction_id"`
	VendorID      string          `json:"vendor_id" csv:"vendor_id"`
	Date          time.Time       `json:"transaction_date" csv:"transaction_date"`
	Quantity      decimal.Decimal `json:"quantity" csv:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost" csv:"unit_cost"`
	Status        string          `json:"status" csv:"status"`
}

// AccrualAmount returns quantity times unit cost.
func (s *APShipment) AccrualAmount() decimal.Decimal {
	return s.Quantity.Mul(s.UnitCost)
}

// IsInTransit reports whether the shipment has in-transit status.
func (s *APShipment) IsInTransit() bool {
	return s.Status == "in_transit"
}

// Investment is a short-term investment from the investment details file.
type Investment struct {
	InvestmentID   string          `json:"investment_id" csv:"investment_id"`
	InstrumentType string          `json:"instrument_type" csv:"instrument_type"`
	Issuer         string          `json:"issuer" csv:"issuer"`
	Amount         decimal.Decimal `json:"amount" csv:"amount"`
	PurchaseDate   time.Time       `json:"purchase_date" csv:"purchase_date"`
	MaturityDate   time.Time       `json:"maturity_date" csv:"maturity_date"`
}

// DaysToMaturity returns the days remaining until maturity as of the given
// date.
func (i *Investment) DaysToMaturity(asOf time.Time) int {
	return int(i.MaturityDate.Sub(asOf).Hours() / 24)
}

// HoldingPeriodDays returns the full holding period from purchase to
// maturity in days.
func (i *Investment) HoldingPeriodDays() int {
	return int(i.MaturityDate.Sub(i.PurchaseDate).Hours() / 24)
}

// BrokerPosition is a row from the broker statement.
type BrokerPosition struct {
	InvestmentID string          `json:"investment_id" csv:"investment_id"`
	Date         time.Time       `json:"date" csv:"date"`
	MarketValue  decimal.Decimal `json:"market_value" csv:"market_value"`
	Yield        decimal.Decimal `json:"yield,omitempty" csv:"yield"`
	Issuer       string          `json:"issuer,omitempty" csv:"issuer"`
}

// BatchPayment is a payment run record for AP batch payment tracking.
type BatchPayment struct {
	BatchID string          `json:"batch_id" csv:"batch_id"`
	BillID  string          `json:"bill_id" csv:"bill_id"`
	Date    time.Time       `json:"date" csv:"date"`
	Amount  decimal.Decimal `json:"amount" csv:"amount"`
	Status  string          `json:"status" csv:"status"`
}

// Batch payment statuses.
const (
	BatchStatusProcessed = "processed"
	BatchStatusFailed    = "failed"
	BatchStatusPending   = "pending"
)
