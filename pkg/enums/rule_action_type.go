package enums

import "fmt"

// RuleActionType names the side effects an override rule may request.
type RuleActionType string

const (
	// RuleActionWarn attaches a warning message to the calculation result.
	RuleActionWarn RuleActionType = "warn"
	// RuleActionTag attaches a free-form tag to the calculation result.
	RuleActionTag RuleActionType = "tag"
)

var validRuleActionTypes = []RuleActionType{
	RuleActionWarn,
	RuleActionTag,
}

// String implements fmt.Stringer.
func (r RuleActionType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RuleActionType.
func (r RuleActionType) IsValid() bool {
	for _, candidate := range validRuleActionTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRuleActionType converts raw input into a RuleActionType.
func ParseRuleActionType(value string) (RuleActionType, error) {
	for _, candidate := range validRuleActionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rule action type %q", value)
}
