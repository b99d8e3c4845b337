package enums

import "fmt"

// PriceSource names which quote a bill-of-materials line was priced from.
type PriceSource string

const (
	PriceSourceCommodity PriceSource = "commodity"
	PriceSourceStandard  PriceSource = "standard"
	PriceSourceNone      PriceSource = "none"
)

var validPriceSources = []PriceSource{
	PriceSourceCommodity,
	PriceSourceStandard,
	PriceSourceNone,
}

// String implements fmt.Stringer.
func (p PriceSource) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceSource.
func (p PriceSource) IsValid() bool {
	for _, candidate := range validPriceSources {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceSource converts raw input into a PriceSource.
func ParsePriceSource(value string) (PriceSource, error) {
	for _, candidate := range validPriceSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price source %q", value)
}
