// Package jsonschema generates JSON Schema documents from Go types using
// reflection.
//
// It supports structs, primitives, slices, maps, pointers, time.Time and
// recursive types. Recursive references are resolved with $ref and $defs.
//
// Struct fields are named after their json tag and annotated through the
// jsonschema tag:
//
//	type Person struct {
//		Name string `json:"name" jsonschema:"description=Full name, as written"`
//		Age  int    `json:"age" jsonschema:"default=0"`
//	}
//
// A field is required unless it declares a default. The Required list is
// sorted by property name so that the output is stable across builds.
package jsonschema
