package storage

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Extensions holds optional, independently versioned sections of a spec,
// keyed by name. Each section stays raw JSON until a consumer asks for it.
type Extensions map[string]json.RawMessage

// Set stores v under key after marshalling it to JSON.
func (e *Extensions) Set(key string, v any) error {
	if *e == nil {
		*e = Extensions{}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal extension %q: %w", key, err)
	}

	(*e)[key] = json.RawMessage(b)
	return nil
}

// Get unmarshals the section at key into out.
// Returns (found=false, nil) if not present.
func (e Extensions) Get(key string, out any) (bool, error) {
	raw, ok := e[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("unmarshal extension %q: %w", key, err)
	}
	return true, nil
}

// Keys returns the section names in sorted order.
func (e Extensions) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
