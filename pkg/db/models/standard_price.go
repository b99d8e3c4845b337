package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/pkg/enums"
)

// StandardPrice is the flat per-unit fallback price for a specific raw
// material, synced read-only from the ERP. No version control; SyncedAt is
// the upstream snapshot time.
type StandardPrice struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RawMaterialID uuid.UUID       `gorm:"column:raw_material_id;type:uuid;uniqueIndex;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(18,6);not null"`
	Currency      enums.Currency  `gorm:"column:currency;type:text;not null;default:'THB'"`
	SyncedAt      time.Time       `gorm:"column:synced_at;not null"`
}
