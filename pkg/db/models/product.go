package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a finished item priced from its bill of materials.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"column:code;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	TubeSize  string    `gorm:"column:tube_size"`
	Unit      string    `gorm:"column:unit;not null;default:'pc'"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RawMaterial is a purchased input. It has no price of its own; pricing joins
// through the item-group code or a synced standard price.
type RawMaterial struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string    `gorm:"column:code;uniqueIndex;not null"`
	Name          string    `gorm:"column:name;not null"`
	ItemGroupCode string    `gorm:"column:item_group_code;index;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
