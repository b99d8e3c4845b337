package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMLine is one raw-material requirement of a finished item. Lines are
// immutable once calculations reference them.
type BOMLine struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;index;not null"`
	RawMaterialID uuid.UUID       `gorm:"column:raw_material_id;type:uuid;not null"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:numeric(18,6);not null"`
	Unit          string          `gorm:"column:unit;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`

	RawMaterial *RawMaterial `gorm:"foreignKey:RawMaterialID"`
}
