package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// AppliedRuleKind distinguishes formula replacements from variable adjustments
// in the audit trail.
type AppliedRuleKind string

const (
	AppliedRuleFormula  AppliedRuleKind = "formula"
	AppliedRuleVariable AppliedRuleKind = "variable"
)

// AppliedRule is one audit-trail entry: which rule touched which formula
// field or variable key, in application order.
type AppliedRule struct {
	RuleID   uuid.UUID       `json:"rule_id"`
	RuleName string          `json:"rule_name"`
	Priority int             `json:"priority"`
	Kind     AppliedRuleKind `json:"kind"`
	Target   string          `json:"target"`
}

// AppliedRules is the ordered audit trail for one merge, stored as JSONB.
type AppliedRules []AppliedRule

// Value serializes the trail to JSON.
func (a AppliedRules) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan decodes JSONB into the trail.
func (a *AppliedRules) Scan(value interface{}) error {
	if value == nil {
		*a = AppliedRules{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("AppliedRules: unsupported Scan type %T", value)
	}
}
