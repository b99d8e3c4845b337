package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RuleConditions is the structured predicate set of an override rule. A nil
// or zero field means "don't care"; present fields are ANDed together by the
// matcher. Quantity bounds are inclusive-min, exclusive-max.
type RuleConditions struct {
	CustomerGroupIDs  []uuid.UUID `json:"customer_group_ids,omitempty"`
	ItemGroupCodes    []string    `json:"item_group_codes,omitempty"`
	ProductIDs        []uuid.UUID `json:"product_ids,omitempty"`
	HasCommodityPrice *bool       `json:"has_commodity_price,omitempty"`
	QuantityMin       *float64    `json:"quantity_min,omitempty"`
	QuantityMax       *float64    `json:"quantity_max,omitempty"`
	Expression        string      `json:"expression,omitempty"`
}

// IsEmpty reports whether no condition field is present.
func (c RuleConditions) IsEmpty() bool {
	return len(c.CustomerGroupIDs) == 0 &&
		len(c.ItemGroupCodes) == 0 &&
		len(c.ProductIDs) == 0 &&
		c.HasCommodityPrice == nil &&
		c.QuantityMin == nil &&
		c.QuantityMax == nil &&
		c.Expression == ""
}

// Value serializes the conditions to JSON.
func (c RuleConditions) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan decodes JSONB into the condition set.
func (c *RuleConditions) Scan(value interface{}) error {
	if value == nil {
		*c = RuleConditions{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("RuleConditions: unsupported Scan type %T", value)
	}
}
