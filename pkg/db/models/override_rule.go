package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/siamtube/pricing-backend/pkg/types"
)

// OverrideRule conditionally replaces formulas or adjusts variables on top of
// the base formula set. Rules share the Draft/Active/Archived lifecycle but
// many rules may be active at once; the single-Active invariant does not
// apply, so each rule is its own logical key.
type OverrideRule struct {
	ID                  uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string                    `gorm:"column:name;not null"`
	Priority            int                       `gorm:"column:priority;not null;default:100"`
	Conditions          types.RuleConditions      `gorm:"column:conditions;type:jsonb;not null"`
	FormulaOverrides    types.FormulaOverrides    `gorm:"column:formula_overrides;type:jsonb;not null"`
	VariableAdjustments types.VariableAdjustments `gorm:"column:variable_adjustments;type:jsonb;not null"`
	Actions             types.RuleActions         `gorm:"column:actions;type:jsonb;not null"`
	Versioned
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
