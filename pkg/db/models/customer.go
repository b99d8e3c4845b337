package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerGroup buckets customers for scoped pricing. Exactly one group
// system-wide carries IsDefault.
type CustomerGroup struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"column:code;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	IsDefault bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Customer maps an account to its pricing group. GroupID may be nil; group
// resolution then falls back to the default group.
type Customer struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string     `gorm:"column:code;uniqueIndex;not null"`
	Name      string     `gorm:"column:name;not null"`
	GroupID   *uuid.UUID `gorm:"column:group_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
