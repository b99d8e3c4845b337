package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/siamtube/pricing-backend/pkg/enums"
)

// RuleAction is a declared side effect of a matched rule. Actions never feed
// back into the numbers; they annotate the calculation result.
type RuleAction struct {
	Type    enums.RuleActionType `json:"type"`
	Message string               `json:"message"`
}

// RuleActions is the action list stored as JSONB on an override rule.
type RuleActions []RuleAction

// Value serializes the actions to JSON.
func (r RuleActions) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// Scan decodes JSONB into the action list.
func (r *RuleActions) Scan(value interface{}) error {
	if value == nil {
		*r = RuleActions{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("RuleActions: unsupported Scan type %T", value)
	}
}
