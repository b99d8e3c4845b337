package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RecordRef pins one master-data record (and its version) that a calculation
// read, so the computation can be replayed against the same inputs.
type RecordRef struct {
	Kind    string    `json:"kind"`
	ID      uuid.UUID `json:"id"`
	Version int       `json:"version"`
}

// VersionSnapshot is the full set of master-data versions one calculation
// used, stored as JSONB on the audit record.
type VersionSnapshot []RecordRef

// Add appends a reference, skipping duplicates.
func (s VersionSnapshot) Add(ref RecordRef) VersionSnapshot {
	for _, existing := range s {
		if existing.Kind == ref.Kind && existing.ID == ref.ID {
			return s
		}
	}
	return append(s, ref)
}

// Value serializes the snapshot to JSON.
func (s VersionSnapshot) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan decodes JSONB into the snapshot.
func (s *VersionSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = VersionSnapshot{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("VersionSnapshot: unsupported Scan type %T", value)
	}
}
