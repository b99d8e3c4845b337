package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// VariableAdjustment is either a literal number that overwrites a variable or
// a formula string evaluated against the variable set before the adjustment
// pass. Exactly one of the two is set.
type VariableAdjustment struct {
	Literal *float64 `json:"-"`
	Formula string   `json:"-"`
}

// LiteralAdjustment builds a literal-number adjustment.
func LiteralAdjustment(v float64) VariableAdjustment {
	return VariableAdjustment{Literal: &v}
}

// FormulaAdjustment builds a formula-string adjustment.
func FormulaAdjustment(expr string) VariableAdjustment {
	return VariableAdjustment{Formula: expr}
}

// IsLiteral reports whether the adjustment is a plain number.
func (a VariableAdjustment) IsLiteral() bool {
	return a.Literal != nil
}

// MarshalJSON emits the literal as a JSON number and the formula as a string.
func (a VariableAdjustment) MarshalJSON() ([]byte, error) {
	if a.Literal != nil {
		return json.Marshal(*a.Literal)
	}
	return json.Marshal(a.Formula)
}

// UnmarshalJSON accepts either a JSON number or a formula string.
func (a *VariableAdjustment) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		a.Literal = &num
		a.Formula = ""
		return nil
	}
	var expr string
	if err := json.Unmarshal(data, &expr); err != nil {
		return fmt.Errorf("variable adjustment must be a number or a formula string: %w", err)
	}
	a.Literal = nil
	a.Formula = expr
	return nil
}

// VariableAdjustments maps variable names to their adjustment, stored as JSONB.
type VariableAdjustments map[string]VariableAdjustment

// Value serializes the adjustment map to JSON.
func (v VariableAdjustments) Value() (driver.Value, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// Scan decodes JSONB into the adjustment map.
func (v *VariableAdjustments) Scan(value interface{}) error {
	if value == nil {
		*v = VariableAdjustments{}
		return nil
	}
	switch raw := value.(type) {
	case []byte:
		return json.Unmarshal(raw, v)
	case string:
		return json.Unmarshal([]byte(raw), v)
	default:
		return fmt.Errorf("VariableAdjustments: unsupported Scan type %T", value)
	}
}
