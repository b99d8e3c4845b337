package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarkupFactor is the versioned selling multiplier keyed by tube size.
type MarkupFactor struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TubeSize string          `gorm:"column:tube_size;index;not null"`
	Factor   decimal.Decimal `gorm:"column:factor;type:numeric(8,4);not null"`
	Versioned
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
