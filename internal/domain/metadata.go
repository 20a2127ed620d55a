package domain

import "fmt"

// Metadata is an open mapping of string keys to scalar values attached to a
// document (summary, tags, timestamps, provenance fields).
type Metadata map[string]any

// Flatten validates that every value is a scalar. The primary store rejects
// nested structures, so this runs before any upsert.
func (m Metadata) Flatten() (Metadata, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		switch v.(type) {
		case nil:
			continue
		case string, bool,
			int, int32, int64,
			float32, float64:
			out[k] = v
		default:
			return nil, fmt.Errorf("metadata field %q is not a scalar: %w", k, ErrValidation)
		}
	}
	return out, nil
}

// StringValue returns the value for key as a string, or "" if absent.
func (m Metadata) StringValue(key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}
