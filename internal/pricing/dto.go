package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/pkg/enums"
	"github.com/siamtube/pricing-backend/pkg/types"
)

// CalculateInput holds the validated payload for one price calculation.
type CalculateInput struct {
	ProductID       uuid.UUID
	CustomerID      *uuid.UUID
	CustomerGroupID *uuid.UUID
	Quantity        float64
	Currency        enums.Currency
}

// MaterialLineDTO is one priced bill-of-materials line in the response.
type MaterialLineDTO struct {
	LineID        uuid.UUID         `json:"line_id"`
	MaterialCode  string            `json:"material_code"`
	MaterialName  string            `json:"material_name"`
	ItemGroupCode string            `json:"item_group_code"`
	Unit          string            `json:"unit"`
	BOMQuantity   decimal.Decimal   `json:"bom_quantity"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	CostPerUnit   decimal.Decimal   `json:"cost_per_unit"`
	TotalCost     decimal.Decimal   `json:"total_cost"`
	PriceSource   enums.PriceSource `json:"price_source"`
}

// FormulaSetDTO exposes the formula strings a calculation evaluated.
type FormulaSetDTO struct {
	MaterialCost       string `json:"material_cost"`
	TotalCost          string `json:"total_cost"`
	SellingPrice       string `json:"selling_price"`
	Margin             string `json:"margin"`
	CurrencyConversion string `json:"currency_conversion,omitempty"`
}

// CalculationResult is the full outcome of one price calculation.
type CalculationResult struct {
	CalculationID   uuid.UUID             `json:"calculation_id"`
	ProductID       uuid.UUID             `json:"product_id"`
	CustomerGroupID *uuid.UUID            `json:"customer_group_id,omitempty"`
	Quantity        decimal.Decimal       `json:"quantity"`
	Currency        enums.Currency        `json:"currency"`
	MaterialCost    decimal.Decimal       `json:"material_cost"`
	TotalCost       decimal.Decimal       `json:"total_cost"`
	SellingPrice    decimal.Decimal       `json:"selling_price"`
	UnitPrice       decimal.Decimal       `json:"unit_price"`
	Margin          decimal.Decimal       `json:"margin"`
	Lines           []MaterialLineDTO     `json:"lines"`
	Formulas        FormulaSetDTO         `json:"formulas"`
	Variables       map[string]float64    `json:"variables"`
	AppliedRules    types.AppliedRules    `json:"applied_rules"`
	Actions         types.RuleActions     `json:"actions,omitempty"`
	Warnings        []string              `json:"warnings,omitempty"`
	Snapshot        types.VersionSnapshot `json:"snapshot"`
	CalculatedAt    time.Time             `json:"calculated_at"`
}

// AuditSummary is one past calculation in the history list.
type AuditSummary struct {
	ID              uuid.UUID             `json:"id"`
	ProductID       uuid.UUID             `json:"product_id"`
	CustomerGroupID *uuid.UUID            `json:"customer_group_id,omitempty"`
	Quantity        decimal.Decimal       `json:"quantity"`
	Currency        enums.Currency        `json:"currency"`
	TotalCost       decimal.Decimal       `json:"total_cost"`
	SellingPrice    decimal.Decimal       `json:"selling_price"`
	Margin          decimal.Decimal       `json:"margin"`
	AppliedRules    types.AppliedRules    `json:"applied_rules"`
	Snapshot        types.VersionSnapshot `json:"snapshot"`
	Warnings        []string              `json:"warnings,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// AuditList wraps the paginated history plus the next page cursor.
type AuditList struct {
	Calculations []AuditSummary `json:"calculations"`
	NextCursor   string         `json:"next_cursor,omitempty"`
}
