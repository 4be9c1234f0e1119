package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Schema represents the structure of JSON Schema used for describing function
// parameters. It follows the JSON Schema standard, supporting types,
// properties, defaults and enums. The zero value of Default (nil) means the
// property has no default and is therefore required, so a null default
// literal is rejected.
type Schema struct {
	// Title is the name of the described type; only set on the root of a struct schema.
	Title string `json:"title,omitempty"`
	//  Type Specifies the data type (e.g., "object", "array", "string", "number")
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Format      string   `json:"format,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the arguments, each with its own schema
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties: Controls whether properties not defined in Properties are allowed
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	// Default value for the parameter, converted to the Go kind of the field
	Default any `json:"default,omitempty"`
	// Enum contains the list of allowed values for the parameter
	Enum []any `json:"enum,omitempty"`
	// Ref is used for JSON Schema references to avoid infinite recursion
	Ref string `json:"$ref,omitempty"`
	// Defs contains reusable schema definitions
	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// ErrNilType is returned when schema generation is asked for a nil reflect.Type.
var ErrNilType = errors.New("jsonschema: nil type")

var timeType = reflect.TypeFor[time.Time]()

// GenerateJSONSchema generates a JSON schema for the Go type T.
// Struct roots carry the type name as Title. A struct field is listed in
// Required unless its jsonschema tag declares a default value.
func GenerateJSONSchema[T any]() (*Schema, error) {
	return GenerateForType(reflect.TypeFor[T]())
}

// GenerateForType is the reflect.Type counterpart of [GenerateJSONSchema].
func GenerateForType(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, ErrNilType
	}

	// Use a context to track visited types and handle recursion
	ctx := &schemaContext{
		visited: make(map[reflect.Type]string),
		defs:    make(map[string]*Schema),
	}

	schema, err := generateJSONSchema(t, ctx, true)
	if err != nil {
		return nil, err
	}

	// Add $defs to the root schema if we have any definitions
	if len(ctx.defs) > 0 {
		schema.Defs = ctx.defs
	}

	return schema, nil
}

// schemaContext tracks the state during schema generation to handle recursion
type schemaContext struct {
	visited map[reflect.Type]string // Maps types to their definition names
	defs    map[string]*Schema      // Stores reusable schema definitions
}

// generateJSONSchema generates a JSON schema with recursion handling
func generateJSONSchema(t reflect.Type, ctx *schemaContext, isRoot bool) (*Schema, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() == reflect.Struct && t != timeType && isRoot {
		return handleRootStruct(t, ctx)
	}
	return generateFieldSchema(t, ctx)
}

// handleRootStruct builds the schema of the top-level struct. When the struct
// refers to itself the schema is also registered in $defs so that nested
// references resolve.
func handleRootStruct(t reflect.Type, ctx *schemaContext) (*Schema, error) {
	defName := generateDefName(t)
	ctx.visited[t] = defName

	schema, err := buildObject(t, ctx)
	if err != nil {
		return nil, err
	}
	schema.Title = t.Name()

	if hasRecursiveFields(t) {
		// The definition copy must not carry the title, it is addressed by $ref only.
		defSchema := &Schema{
			Type:       schema.Type,
			Properties: schema.Properties,
			Required:   schema.Required,
		}
		ctx.defs[defName] = defSchema
	}

	return schema, nil
}

// buildObject walks the exported fields of a struct type and produces an
// object schema. Embedded structs without a json name are flattened the way
// encoding/json flattens them.
func buildObject(t reflect.Type, ctx *schemaContext) (*Schema, error) {
	schema := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema),
	}
	required := make([]string, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		fieldName, ok := jsonFieldName(field)
		if !ok {
			continue
		}

		if isFlattenedEmbed(field) {
			embedded := field.Type
			for embedded.Kind() == reflect.Ptr {
				embedded = embedded.Elem()
			}
			inner, err := buildObject(embedded, ctx)
			if err != nil {
				return nil, err
			}
			for name, prop := range inner.Properties {
				schema.Properties[name] = prop
			}
			required = append(required, inner.Required...)
			continue
		}

		fieldSchema, err := generateFieldSchema(field.Type, ctx)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fieldName, err)
		}

		if err := parseJSONSchemaTag(field.Type, field.Tag, fieldSchema); err != nil {
			return nil, fmt.Errorf("field %q: %w", fieldName, err)
		}

		schema.Properties[fieldName] = fieldSchema
		if fieldSchema.Default == nil {
			required = append(required, fieldName)
		}
	}

	if len(required) > 0 {
		sort.Strings(required)
		schema.Required = required
	}

	return schema, nil
}

// jsonFieldName returns the property name encoding/json would use for the
// field, and false when the field is not serialised at all.
func jsonFieldName(field reflect.StructField) (string, bool) {
	if !field.IsExported() && !field.Anonymous {
		return "", false
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "-" {
		return "", false
	}

	name := jsonTag
	if commaIdx := strings.Index(jsonTag, ","); commaIdx != -1 {
		name = jsonTag[:commaIdx]
	}
	if name == "" {
		name = field.Name
	}
	if !field.IsExported() && !isFlattenedEmbed(field) {
		return "", false
	}
	return name, true
}

// isFlattenedEmbed reports whether an anonymous struct field is inlined by encoding/json.
func isFlattenedEmbed(field reflect.StructField) bool {
	if !field.Anonymous {
		return false
	}
	if tag := field.Tag.Get("json"); tag != "" && !strings.HasPrefix(tag, ",") {
		return false
	}
	ft := field.Type
	for ft.Kind() == reflect.Ptr {
		ft = ft.Elem()
	}
	return ft.Kind() == reflect.Struct && ft != timeType
}

// hasRecursiveFields checks if a struct type has fields that reference itself
func hasRecursiveFields(t reflect.Type) bool {
	return checkRecursion(t, t, make(map[reflect.Type]bool))
}

// checkRecursion recursively checks if targetType appears in the fields of currentType
func checkRecursion(targetType, currentType reflect.Type, visited map[reflect.Type]bool) bool {
	if visited[currentType] {
		return false
	}
	visited[currentType] = true

	switch currentType.Kind() {
	case reflect.Struct:
		for i := 0; i < currentType.NumField(); i++ {
			field := currentType.Field(i)
			if !field.IsExported() && !field.Anonymous {
				continue
			}

			fieldType := field.Type
			// Check through pointers, slices, arrays and maps
			for fieldType.Kind() == reflect.Ptr || fieldType.Kind() == reflect.Slice ||
				fieldType.Kind() == reflect.Array || fieldType.Kind() == reflect.Map {
				fieldType = fieldType.Elem()
			}

			if fieldType == targetType {
				return true
			}

			if fieldType.Kind() == reflect.Struct && checkRecursion(targetType, fieldType, visited) {
				return true
			}
		}
	case reflect.Slice, reflect.Array, reflect.Ptr, reflect.Map:
		elemType := currentType.Elem()
		for elemType.Kind() == reflect.Ptr {
			elemType = elemType.Elem()
		}
		if elemType == targetType {
			return true
		}
		if elemType.Kind() == reflect.Struct && checkRecursion(targetType, elemType, visited) {
			return true
		}
	}

	return false
}

// generateDefName creates a unique definition name for a type
func generateDefName(t reflect.Type) string {
	// Use the type name if available, otherwise use a generic name
	if t.Name() != "" {
		return strings.ToLower(t.Name())
	}
	return "anonymousStruct"
}

// tagEntry is a single key[=value] item of a jsonschema struct tag.
type tagEntry struct {
	key   string
	value string
	flag  bool
}

// splitJSONSchemaTag splits a jsonschema tag on commas. A segment that is not
// a key=value pair and not a known flag continues the value of the previous
// entry, so descriptions may contain commas.
func splitJSONSchemaTag(raw string) []tagEntry {
	var entries []tagEntry
	for _, segment := range strings.Split(raw, ",") {
		key, value, hasValue := strings.Cut(segment, "=")
		key = strings.TrimSpace(key)

		if hasValue && isTagKey(key) {
			entries = append(entries, tagEntry{key: key, value: value})
			continue
		}

		if !hasValue && key == "required" {
			entries = append(entries, tagEntry{key: key, flag: true})
			continue
		}

		if len(entries) > 0 && !entries[len(entries)-1].flag {
			entries[len(entries)-1].value += "," + segment
		}
	}
	return entries
}

func isTagKey(key string) bool {
	switch key {
	case "description", "title", "format", "enum", "default":
		return true
	}
	return false
}

// parseJSONSchemaTag parses jsonschema struct tag and applies the settings to the schema.
// Supported struct tags:
// 1. jsonschema: "description=xxx" (commas allowed inside the value)
// 2. jsonschema: "enum=xxx,enum=yyy", or "enum=1,enum=2", or "enum=3.14,enum=3.15", etc.
// 3. jsonschema: "default=xxx" marks the field optional and records the default
// 4. jsonschema: "title=xxx", "format=xxx"
// NOTE: enum and default literals are converted to the Go kind of the field.
// NOTE: "required" is accepted for compatibility; fields without a default are required anyway.
func parseJSONSchemaTag(fieldType reflect.Type, tag reflect.StructTag, schema *Schema) error {
	jsonSchemaTag := tag.Get("jsonschema")
	if len(jsonSchemaTag) == 0 {
		return nil
	}

	for _, entry := range splitJSONSchemaTag(jsonSchemaTag) {
		switch entry.key {
		case "description":
			schema.Description = entry.value
		case "title":
			schema.Title = entry.value
		case "format":
			schema.Format = entry.value
		case "enum":
			v, err := convertLiteral(fieldType, entry.value)
			if err != nil {
				return fmt.Errorf("parse enum value %q: %w", entry.value, err)
			}
			schema.Enum = append(schema.Enum, v)
		case "default":
			v, err := convertLiteral(fieldType, entry.value)
			if err != nil {
				return fmt.Errorf("parse default value %q: %w", entry.value, err)
			}
			if v == nil {
				return fmt.Errorf("default value %q is null; use a pointer field without a default for an optional null", entry.value)
			}
			schema.Default = v
		}
	}

	return nil
}

// convertLiteral converts a tag literal to a value of the field's kind.
// Composite kinds (slices, maps, structs) take a JSON literal.
func convertLiteral(fieldType reflect.Type, value string) (any, error) {
	for fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}

	switch fieldType.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("to int64 failed: %w", err)
		}
		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("to uint64 failed: %w", err)
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("to float64 failed: %w", err)
		}
		return v, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("to bool failed: %w", err)
		}
		return v, nil
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Interface:
		if fieldType == timeType {
			return value, nil
		}
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return nil, fmt.Errorf("JSON literal expected for %v: %w", fieldType, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("literal unsupported for field type: %v", fieldType)
	}
}

// generateFieldSchema generates schema for a specific field type with recursion handling.
func generateFieldSchema(t reflect.Type, ctx *schemaContext) (*Schema, error) {
	if t == timeType {
		return &Schema{Type: "string", Format: "date-time"}, nil
	}

	switch t.Kind() {
	case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool:
		return handlePrimitiveType(t), nil
	case reflect.Slice, reflect.Array:
		return handleArrayOrSlice(t, ctx)
	case reflect.Map:
		return handleMapType(t, ctx)
	case reflect.Ptr:
		return generateFieldSchema(t.Elem(), ctx)
	case reflect.Struct:
		return handleStructType(t, ctx)
	case reflect.Interface:
		return &Schema{}, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}

// handlePrimitiveType returns a simple schema for primitive kinds.
func handlePrimitiveType(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	default:
		return &Schema{Type: "integer"}
	}
}

// handleArrayOrSlice builds schema for arrays and slices.
func handleArrayOrSlice(t reflect.Type, ctx *schemaContext) (*Schema, error) {
	items, err := generateFieldSchema(t.Elem(), ctx)
	if err != nil {
		return nil, err
	}
	return &Schema{Type: "array", Items: items}, nil
}

// handleMapType builds schema for map types using additionalProperties.
func handleMapType(t reflect.Type, ctx *schemaContext) (*Schema, error) {
	if t.Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map key must be a string, got %s", t.Key().Kind())
	}

	valueSchema, err := generateFieldSchema(t.Elem(), ctx)
	if err != nil {
		return nil, err
	}

	return &Schema{
		Type:                 "object",
		AdditionalProperties: valueSchema,
	}, nil
}

// handleStructType handles inline and named struct schemas with recursion tracking.
func handleStructType(t reflect.Type, ctx *schemaContext) (*Schema, error) {
	// If we've already created a definition for this type, return a reference.
	if defName, exists := ctx.visited[t]; exists {
		return &Schema{Ref: "#/$defs/" + defName}, nil
	}

	// Inline schema when there is no recursion.
	if !hasRecursiveFields(t) {
		return buildObject(t, ctx)
	}

	// Named struct with recursion: create definition and return a reference.
	defName := generateDefName(t)
	ctx.visited[t] = defName

	nestedSchema, err := buildObject(t, ctx)
	if err != nil {
		return nil, err
	}
	ctx.defs[defName] = nestedSchema

	return &Schema{Ref: "#/$defs/" + defName}, nil
}

// HasDefault reports whether the schema declares a default value.
func (s *Schema) HasDefault() bool {
	return s != nil && s.Default != nil
}

// Clone returns a deep copy of the schema tree. Default and Enum values are
// shared; they are never mutated after generation.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}

	c := *s
	if s.Required != nil {
		c.Required = append([]string(nil), s.Required...)
	}
	if s.Enum != nil {
		c.Enum = append([]any(nil), s.Enum...)
	}
	c.Properties = cloneSchemaMap(s.Properties)
	c.Defs = cloneSchemaMap(s.Defs)
	c.Items = s.Items.Clone()
	if ap, ok := s.AdditionalProperties.(*Schema); ok {
		c.AdditionalProperties = ap.Clone()
	}
	return &c
}

func cloneSchemaMap(in map[string]*Schema) map[string]*Schema {
	if in == nil {
		return nil
	}
	out := make(map[string]*Schema, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

// JsonString converts the Schema to its JSON representation
// indent: optional bool parameter. If true, formats JSON with indentation. If false or omitted, returns compact JSON.
func (s *Schema) JsonString(indent ...bool) (string, error) {
	shouldIndent := false // default: compact
	if len(indent) > 0 {
		shouldIndent = indent[0]
	}

	var jsonBytes []byte
	var err error

	if shouldIndent {
		jsonBytes, err = json.MarshalIndent(s, "", "  ")
	} else {
		jsonBytes, err = json.Marshal(s)
	}

	if err != nil {
		return "", fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// String returns the compact JSON representation of the schema.
// Returns an error message if marshalling fails
func (s *Schema) String() string {
	jsonStr, err := s.JsonString()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return jsonStr
}
