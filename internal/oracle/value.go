package oracle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a device function value as produced by the model: a boolean,
// a number or a string. Compound values are rejected because the backend
// only accepts scalars.
type Value struct {
	raw any
}

// NewValue wraps a scalar for tests and callers constructing resolutions
// by hand.
func NewValue(v any) Value { return Value{raw: v} }

// Raw returns the decoded scalar, or nil when unset.
func (v Value) Raw() any { return v.raw }

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool { return v.raw == nil }

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		v.raw = nil
		return nil
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("oracle: decode value: %w", err)
	}
	switch d := decoded.(type) {
	case bool, float64:
		v.raw = d
	case string:
		v.raw = coerceString(d)
	default:
		return fmt.Errorf("oracle: value must be a scalar, got %T", decoded)
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

// coerceString maps string spellings of booleans and numbers onto their
// scalar types; anything else stays a string.
func coerceString(s string) any {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true
	case "false":
		return false
	case "none", "null":
		return nil
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return n
	}
	return s
}
