package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseFormula holds the system-wide default calculation formulas. Exactly one
// record carries IsDefault; override rules layer on top of it.
type BaseFormula struct {
	ID                        uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                      string                    `gorm:"column:name;not null"`
	IsDefault                 bool                      `gorm:"column:is_default;not null;default:false"`
	MaterialCostFormula       string                    `gorm:"column:material_cost_formula;not null"`
	TotalCostFormula          string                    `gorm:"column:total_cost_formula;not null"`
	SellingPriceFormula       string                    `gorm:"column:selling_price_formula;not null"`
	MarginFormula             string                    `gorm:"column:margin_formula;not null"`
	CurrencyConversionFormula string                    `gorm:"column:currency_conversion_formula"`
	Constants                 map[string]float64        `gorm:"column:constants;type:jsonb;serializer:json"`
	Versioned
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
