package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FormulaOverrides carries the formula strings an override rule replaces.
// An empty string means the rule leaves that formula alone.
type FormulaOverrides struct {
	MaterialCost       string `json:"material_cost,omitempty"`
	TotalCost          string `json:"total_cost,omitempty"`
	SellingPrice       string `json:"selling_price,omitempty"`
	Margin             string `json:"margin,omitempty"`
	CurrencyConversion string `json:"currency_conversion,omitempty"`
}

// IsEmpty reports whether the rule overrides no formula at all.
func (f FormulaOverrides) IsEmpty() bool {
	return f == FormulaOverrides{}
}

// Value serializes the overrides to JSON.
func (f FormulaOverrides) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan decodes JSONB into the override set.
func (f *FormulaOverrides) Scan(value interface{}) error {
	if value == nil {
		*f = FormulaOverrides{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("FormulaOverrides: unsupported Scan type %T", value)
	}
}
