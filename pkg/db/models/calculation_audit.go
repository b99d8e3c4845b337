package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/pkg/enums"
	"github.com/siamtube/pricing-backend/pkg/types"
)

// CalculationAudit is the best-effort trace of one completed calculation.
// Writes to this table never fail a calculation.
type CalculationAudit struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;index;not null"`
	CustomerID      *uuid.UUID            `gorm:"column:customer_id;type:uuid"`
	CustomerGroupID *uuid.UUID            `gorm:"column:customer_group_id;type:uuid"`
	Quantity        decimal.Decimal       `gorm:"column:quantity;type:numeric(18,6);not null"`
	Currency        enums.Currency        `gorm:"column:currency;type:text;not null"`
	TotalCost       decimal.Decimal       `gorm:"column:total_cost;type:numeric(18,6);not null"`
	SellingPrice    decimal.Decimal       `gorm:"column:selling_price;type:numeric(18,6);not null"`
	Margin          decimal.Decimal       `gorm:"column:margin;type:numeric(18,6);not null"`
	AppliedRules    types.AppliedRules    `gorm:"column:applied_rules;type:jsonb;not null"`
	Snapshot        types.VersionSnapshot `gorm:"column:snapshot;type:jsonb;not null"`
	Warnings        pq.StringArray        `gorm:"column:warnings;type:text[]"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
