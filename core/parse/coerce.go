package parse

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/jsonschema"
)

// fill walks doc alongside s, inserting declared defaults for absent
// properties and, unless strict, coercing string scalars and integral
// numbers written with a fraction or exponent.
func (p *Parser) fill(doc any, s *jsonschema.Schema, strict bool) any {
	s = p.resolve(s)
	if s == nil {
		return doc
	}

	switch val := doc.(type) {
	case map[string]any:
		for name, prop := range s.Properties {
			child, ok := val[name]
			if !ok {
				if prop.HasDefault() {
					val[name] = normalize(prop.Default)
				}
				continue
			}
			val[name] = p.fill(child, prop, strict)
		}
		if ap, ok := s.AdditionalProperties.(*jsonschema.Schema); ok {
			for name, child := range val {
				if _, declared := s.Properties[name]; !declared {
					val[name] = p.fill(child, ap, strict)
				}
			}
		}
		return val
	case []any:
		if s.Items != nil {
			for i := range val {
				val[i] = p.fill(val[i], s.Items, strict)
			}
		}
		return val
	case string:
		if strict {
			return val
		}
		return coerceString(val, s.Type)
	case json.Number:
		if strict || s.Type != "integer" {
			return val
		}
		if n, ok := integral(string(val)); ok {
			return n
		}
		return val
	default:
		return doc
	}
}

// resolve follows a local "#/$defs/..." reference.
func (p *Parser) resolve(s *jsonschema.Schema) *jsonschema.Schema {
	if s == nil || s.Ref == "" {
		return s
	}
	name, ok := strings.CutPrefix(s.Ref, "#/$defs/")
	if !ok {
		return s
	}
	if def, found := p.schema.Defs[name]; found {
		return def
	}
	return s
}

// normalize gives a default value the same representation as decoded input,
// so maps and slices are never shared with the schema.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	doc, err := decodeJSON(string(data))
	if err != nil {
		return v
	}
	return doc
}

func coerceString(s, schemaType string) any {
	t := strings.TrimSpace(s)

	switch schemaType {
	case "integer":
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return json.Number(strconv.FormatInt(n, 10))
		}
		if n, ok := integral(t); ok {
			return n
		}
	case "number":
		if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
		}
	case "boolean":
		switch strings.ToLower(t) {
		case "true", "t", "1", "yes", "y", "on":
			return true
		case "false", "f", "0", "no", "n", "off":
			return false
		}
	}
	return s
}

// integral rewrites a number such as 5.0 or 5e0 in plain integer form. It
// reports false for fractional values and for malformed input.
func integral(s string) (json.Number, bool) {
	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return "", false
	}
	return json.Number(r.Num().String()), true
}
