package callable

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/jsonschema"
)

// Derive builds the callable spec for the struct type T.
//
// Parameters is the JSON Schema of T without its title. Required lists, in
// sorted order, every property that declares no default. Property
// descriptions come from the jsonschema tag, or from the parameter entries of
// the type's documentation when the tag has none. The description is taken
// from [Described], then from the first line of [Documented], and finally
// falls back to a generated sentence.
//
// Derive is pure: calling it twice for the same type yields equal specs.
// Each call returns a fresh copy the caller may modify.
func Derive[T any]() (*Spec, error) {
	return DeriveType(reflect.TypeFor[T]())
}

// DeriveType is the reflect.Type counterpart of [Derive].
// Pointer types are dereferenced.
func DeriveType(t reflect.Type) (*Spec, error) {
	if t == nil {
		return nil, &SchemaError{Type: t, Err: ErrNotStruct}
	}

	base := t
	for base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: t, Err: ErrNotStruct}
	}

	if spec, ok := specCache.Get(base); ok {
		return spec.Clone(), nil
	}

	spec, err := build(base)
	if err != nil {
		return nil, &SchemaError{Type: t, Err: err}
	}
	specCache.Add(base, spec)

	return spec.Clone(), nil
}

func build(t reflect.Type) (*Spec, error) {
	params, err := jsonschema.GenerateForType(t)
	if err != nil {
		return nil, err
	}

	// Only a struct pointer reaches the interface checks, so both value and
	// pointer receivers are honoured.
	zero := reflect.New(t).Interface()

	name := t.Name()
	if n, ok := zero.(Named); ok && n.CallableName() != "" {
		name = n.CallableName()
	}
	if name == "" {
		return nil, ErrUnnamed
	}

	var doc Doc
	if d, ok := zero.(Documented); ok {
		doc = ParseDoc(d.Doc())
	}

	params.Title = ""
	params.Description = ""
	backfillDescriptions(t, params, doc.Params)
	params.Required = requiredProperties(params)

	description := ""
	if d, ok := zero.(Described); ok {
		description = strings.TrimSpace(d.CallableDescription())
	}
	if description == "" {
		description = doc.Summary
	}
	if description == "" {
		description = fmt.Sprintf("Correctly extracted `%s` with all the required parameters with correct types", name)
	}

	return &Spec{
		Name:        name,
		Description: description,
		Parameters:  params,
	}, nil
}

// backfillDescriptions copies documented parameter descriptions onto
// properties without one. Documentation may refer to a property by its JSON
// name or by its Go field name.
func backfillDescriptions(t reflect.Type, params *jsonschema.Schema, documented map[string]string) {
	if len(documented) == 0 {
		return
	}

	goNames := goFieldNames(t)
	for name, prop := range params.Properties {
		if prop.Description != "" {
			continue
		}
		if desc, ok := documented[name]; ok && desc != "" {
			prop.Description = desc
			continue
		}
		if desc, ok := documented[goNames[name]]; ok && desc != "" {
			prop.Description = desc
		}
	}
}

// goFieldNames maps JSON property names to Go field names, following
// promoted fields of embedded structs.
func goFieldNames(t reflect.Type) map[string]string {
	names := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		jsonName, _, _ := strings.Cut(field.Tag.Get("json"), ",")

		if field.Anonymous && jsonName == "" {
			ft := field.Type
			for ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				for k, v := range goFieldNames(ft) {
					names[k] = v
				}
				continue
			}
		}
		if !field.IsExported() || jsonName == "-" {
			continue
		}
		if jsonName == "" {
			jsonName = field.Name
		}
		names[jsonName] = field.Name
	}
	return names
}

// requiredProperties returns the sorted names of properties without a default.
func requiredProperties(params *jsonschema.Schema) []string {
	required := make([]string, 0, len(params.Properties))
	for name, prop := range params.Properties {
		if !prop.HasDefault() {
			required = append(required, name)
		}
	}
	if len(required) == 0 {
		return nil
	}
	sort.Strings(required)
	return required
}
