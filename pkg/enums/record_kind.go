package enums

import "fmt"

// RecordKind identifies a versioned master-data entity kind.
type RecordKind string

const (
	RecordKindCommodityPrice        RecordKind = "commodity_price"
	RecordKindFabricationAdjustment RecordKind = "fabrication_adjustment"
	RecordKindMarkupFactor          RecordKind = "markup_factor"
	RecordKindExchangeRate          RecordKind = "exchange_rate"
	RecordKindBaseFormula           RecordKind = "base_formula"
	RecordKindOverrideRule          RecordKind = "override_rule"
)

var validRecordKinds = []RecordKind{
	RecordKindCommodityPrice,
	RecordKindFabricationAdjustment,
	RecordKindMarkupFactor,
	RecordKindExchangeRate,
	RecordKindBaseFormula,
	RecordKindOverrideRule,
}

// String implements fmt.Stringer.
func (r RecordKind) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecordKind.
func (r RecordKind) IsValid() bool {
	for _, candidate := range validRecordKinds {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecordKind converts raw input into a RecordKind.
func ParseRecordKind(value string) (RecordKind, error) {
	for _, candidate := range validRecordKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record kind %q", value)
}
