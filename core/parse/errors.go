package parse

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError reports an argument payload that is not valid JSON.
type ParseError struct {
	// Input is the payload as received from the model.
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON in function arguments: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FieldError is a single violation found while validating a payload.
type FieldError struct {
	// Path is the dotted location of the offending value, "(root)" for the document itself.
	Path    string
	Message string
}

func (f FieldError) String() string {
	return f.Path + "\n  " + f.Message
}

// ValidationError reports a payload that is valid JSON but does not match the
// target shape.
type ValidationError struct {
	// Model is the name of the target the payload was validated against.
	Model  string
	Errors []FieldError
	// Err is the underlying cause, if any (schema validator or hook error).
	Err error
}

func (e *ValidationError) Error() string {
	var b strings.Builder

	n := len(e.Errors)
	noun := "errors"
	if n == 1 {
		noun = "error"
	}
	if e.Model != "" {
		fmt.Fprintf(&b, "%d validation %s for %s", n, noun, e.Model)
	} else {
		fmt.Fprintf(&b, "%d validation %s", n, noun)
	}

	for _, fe := range e.Errors {
		b.WriteString("\n")
		b.WriteString(fe.String())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Fields returns the paths of all violations, in report order.
func (e *ValidationError) Fields() []string {
	paths := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		paths[i] = fe.Path
	}
	return paths
}

// IsParseOrValidation reports whether err is, or wraps, a [*ParseError] or a
// [*ValidationError].
func IsParseOrValidation(err error) bool {
	var pe *ParseError
	var ve *ValidationError
	return errors.As(err, &pe) || errors.As(err, &ve)
}

const rootPath = "(root)"

// instancePath converts a JSON pointer ("/address/street") to a dotted path.
func instancePath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return rootPath
	}
	parts := strings.Split(pointer, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}
