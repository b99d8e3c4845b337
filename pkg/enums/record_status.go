package enums

import "fmt"

// RecordStatus tracks where a versioned master-data record sits in its lifecycle.
type RecordStatus string

const (
	RecordStatusDraft    RecordStatus = "draft"
	RecordStatusActive   RecordStatus = "active"
	RecordStatusArchived RecordStatus = "archived"
)

var validRecordStatuses = []RecordStatus{
	RecordStatusDraft,
	RecordStatusActive,
	RecordStatusArchived,
}

// String implements fmt.Stringer.
func (r RecordStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecordStatus.
func (r RecordStatus) IsValid() bool {
	for _, candidate := range validRecordStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecordStatus converts raw input into a RecordStatus.
func ParseRecordStatus(value string) (RecordStatus, error) {
	for _, candidate := range validRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record status %q", value)
}
