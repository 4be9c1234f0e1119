// Package callable derives function-call specifications from Go struct types.
//
// A [Spec] is what a chat model is forced to invoke during an extraction: the
// callable name, a description and the JSON Schema of its arguments.
// [Derive] builds one from a struct type:
//
//	type User struct {
//		Name string `json:"name" jsonschema:"description=Full name"`
//		Age  int    `json:"age" jsonschema:"default=0"`
//	}
//
//	spec, err := callable.Derive[User]()
//	// spec.Name == "User", spec.Parameters.Required == ["name"]
//
// Types may implement [Named], [Described] or [Documented] to control the
// name, the description and the per-parameter documentation.
//
// Derived specs are cached per type; every call returns an independent copy.
package callable
