package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is the open-ended attribute bag carried by every entity. It is
// serialized to JSON text only at the storage boundary.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner. Malformed stored JSON is repaired to an
// empty map instead of failing the read.
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", value)
	}
	parsed := Metadata{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		*m = Metadata{}
		return nil
	}
	*m = parsed
	return nil
}

// Clone returns a shallow copy so callers can augment metadata without
// mutating the caller's map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
