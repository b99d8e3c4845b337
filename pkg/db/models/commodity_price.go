package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/pkg/enums"
)

// CommodityPrice is the benchmarked per-unit price for an item-group code,
// optionally scoped to one customer group. Versioned; the logical key is
// item-group code plus group scope.
type CommodityPrice struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemGroupCode   string          `gorm:"column:item_group_code;index;not null"`
	CustomerGroupID *uuid.UUID      `gorm:"column:customer_group_id;type:uuid"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(18,6);not null"`
	Currency        enums.Currency  `gorm:"column:currency;type:text;not null;default:'THB'"`
	Versioned
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// FabricationAdjustment is the additive per-unit surcharge paired with a
// commodity price, scoped the same way and versioned the same way.
type FabricationAdjustment struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemGroupCode   string          `gorm:"column:item_group_code;index;not null"`
	CustomerGroupID *uuid.UUID      `gorm:"column:customer_group_id;type:uuid"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(18,6);not null"`
	Currency        enums.Currency  `gorm:"column:currency;type:text;not null;default:'THB'"`
	Versioned
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
