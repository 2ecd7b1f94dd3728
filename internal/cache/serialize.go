package cache

import (
	"encoding/json"
	"sort"
	"strings"
)

// StableSerialize renders v as JSON with object keys sorted
// lexicographically at every nesting depth. Arrays keep their order;
// primitives follow standard JSON literal rules. Structurally equal values
// serialize identically regardless of key insertion order.
func StableSerialize(v any) (string, error) {
	var sb strings.Builder
	if err := writeStable(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writeStable recursively writes the stable rendering of v.
func writeStable(sb *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return err
			}
			sb.Write(keyJSON)
			sb.WriteByte(':')
			if err := writeStable(sb, val[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
		return nil
	case []any:
		sb.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeStable(sb, elem); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
		return nil
	case string, bool, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		out, err := json.Marshal(val)
		if err != nil {
			return err
		}
		sb.Write(out)
		return nil
	default:
		// Structs, typed maps, and typed slices are normalized through a
		// JSON round trip so key ordering rules apply to them too.
		normalized, err := normalize(val)
		if err != nil {
			return err
		}
		return writeStable(sb, normalized)
	}
}

// normalize round-trips a value through encoding/json, reducing it to the
// JSON-like shapes writeStable handles directly.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
