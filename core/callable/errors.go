package callable

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotStruct is reported when the target is not a struct (or pointer to one).
	ErrNotStruct = errors.New("target type must be a struct")

	// ErrUnnamed is reported for anonymous struct types that do not implement [Named].
	ErrUnnamed = errors.New("anonymous struct types must implement callable.Named")
)

// SchemaError reports a target type that cannot be turned into a [Spec].
// It is returned before any model call is made and is never retried.
type SchemaError struct {
	Type reflect.Type
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("cannot derive callable spec from %v: %v", e.Type, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
