package models

import (
	"time"

	"github.com/siamtube/pricing-backend/pkg/enums"
)

// Versioned is the lifecycle shape embedded by every approval-controlled
// master-data record. At most one record per logical key may be Active.
type Versioned struct {
	Version       int                `gorm:"column:version;not null;default:1"`
	Status        enums.RecordStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	IsActive      bool               `gorm:"column:is_active;not null;default:false"`
	EffectiveFrom *time.Time         `gorm:"column:effective_from"`
	EffectiveTo   *time.Time         `gorm:"column:effective_to"`
	ApprovedBy    *string            `gorm:"column:approved_by"`
	ApprovedAt    *time.Time         `gorm:"column:approved_at"`
	ChangeReason  string             `gorm:"column:change_reason"`
}
