package parse

import (
	"github.com/kaptinlin/jsonrepair"
)

// repairJSON runs jsonrepair over a malformed payload (single quotes,
// unquoted keys, trailing commas, truncated objects).
func repairJSON(raw string) (string, bool) {
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return "", false
	}
	return repaired, true
}

// unwrapSchemaValues undoes a common model mistake on repaired payloads:
// echoing schema-like {"type": ..., "value": ...} wrappers instead of values.
//
// Example input:
//
//	{"name": {"type": "string", "value": "John"}, "age": {"type": "integer", "value": 30}}
//
// Example output:
//
//	{"name": "John", "age": 30}
func unwrapSchemaValues(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return unwrapSchemaValues(value)
			}
		}
		for key, val := range v {
			v[key] = unwrapSchemaValues(val)
		}
		return v
	case []any:
		for i, val := range v {
			v[i] = unwrapSchemaValues(val)
		}
		return v
	default:
		return data
	}
}
