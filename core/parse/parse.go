package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	jsv "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/jsonschema"
)

// Validator is implemented by targets that check their own invariants after
// decoding. A returned error becomes a [*ValidationError].
type Validator interface {
	Validate() error
}

// ContextValidator is like [Validator] but receives the caller-supplied
// validation context (see [WithContext]).
type ContextValidator interface {
	ValidateContext(vctx map[string]any) error
}

// Option configures a single Parse call.
type Option func(*options)

type options struct {
	strict  bool
	repair  bool
	context map[string]any
}

// WithStrict disables the coercion of string scalars to the schema type.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithRepair enables a jsonrepair pass over payloads that are not valid JSON
// before giving up with a [*ParseError].
func WithRepair(repair bool) Option {
	return func(o *options) {
		o.repair = repair
	}
}

// WithContext makes vctx available to [ContextValidator] hooks.
func WithContext(vctx map[string]any) Option {
	return func(o *options) {
		o.context = vctx
	}
}

// Parser validates argument payloads against one compiled schema.
// It is safe for concurrent use.
type Parser struct {
	name     string
	schema   *jsonschema.Schema
	compiled *jsv.Schema
}

// NewParser compiles schema for validation. name identifies the target in
// error messages.
func NewParser(name string, schema *jsonschema.Schema) (*Parser, error) {
	if schema == nil {
		return nil, errors.New("parse: nil schema")
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema for %s: %w", name, err)
	}

	compiler := jsv.NewCompiler()
	compiler.Draft = jsv.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load schema for %s: %w", name, err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", name, err)
	}

	return &Parser{
		name:     name,
		schema:   schema,
		compiled: compiled,
	}, nil
}

// Name returns the target name used in error messages.
func (p *Parser) Name() string {
	return p.name
}

// Parse decodes arguments into out, which must be a non-nil pointer.
// It returns a [*ParseError] for malformed JSON and a [*ValidationError] when
// the document does not satisfy the schema or a hook rejects the value.
// Any other error signals a programming mistake on the caller's side.
func (p *Parser) Parse(arguments string, out any, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("parse: out must be a non-nil pointer, got %T", out)
	}

	doc, err := decode(arguments, o.repair)
	if err != nil {
		return &ParseError{Input: arguments, Err: err}
	}

	doc = p.fill(doc, p.schema, o.strict)

	if err := p.compiled.Validate(doc); err != nil {
		return p.validationError(err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse: re-encode validated document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return p.decodeError(err)
	}

	return p.runHooks(out, o.context)
}

// Arguments is a one-shot helper compiling schema and parsing arguments into out.
// The schema title, when present, names the target in error messages.
func Arguments(arguments string, schema *jsonschema.Schema, out any, opts ...Option) error {
	name := ""
	if schema != nil {
		name = schema.Title
	}
	p, err := NewParser(name, schema)
	if err != nil {
		return err
	}
	return p.Parse(arguments, out, opts...)
}

// Invalid builds a single-field [*ValidationError]; hooks may return it to
// point at the offending field.
func Invalid(path, message string) *ValidationError {
	if path == "" {
		path = rootPath
	}
	return &ValidationError{Errors: []FieldError{{Path: path, Message: message}}}
}

// decode reads a single JSON value, keeping numbers as json.Number.
func decode(raw string, repair bool) (any, error) {
	doc, err := decodeJSON(raw)
	if err == nil || !repair {
		return doc, err
	}

	repaired, ok := repairJSON(raw)
	if !ok {
		return nil, err
	}
	doc, repairedErr := decodeJSON(repaired)
	if repairedErr != nil {
		return nil, err
	}
	return unwrapSchemaValues(doc), nil
}

func decodeJSON(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty payload")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func (p *Parser) validationError(err error) error {
	var verr *jsv.ValidationError
	if !errors.As(err, &verr) {
		return &ValidationError{
			Model:  p.name,
			Errors: []FieldError{{Path: rootPath, Message: err.Error()}},
			Err:    err,
		}
	}

	var fields []FieldError
	collectLeaves(verr, &fields)
	return &ValidationError{Model: p.name, Errors: fields, Err: err}
}

// collectLeaves flattens the validator's error tree to its leaf causes.
// Missing required properties are reported once per property.
func collectLeaves(e *jsv.ValidationError, out *[]FieldError) {
	if len(e.Causes) > 0 {
		for _, c := range e.Causes {
			collectLeaves(c, out)
		}
		return
	}

	if strings.HasSuffix(e.KeywordLocation, "/required") {
		if names := quotedNames(e.Message); len(names) > 0 {
			base := strings.TrimSuffix(e.InstanceLocation, "/")
			for _, name := range names {
				*out = append(*out, FieldError{
					Path:    instancePath(base + "/" + name),
					Message: "field required",
				})
			}
			return
		}
	}

	*out = append(*out, FieldError{
		Path:    instancePath(e.InstanceLocation),
		Message: e.Message,
	})
}

// quotedNames returns the single-quoted tokens of msg, in order.
func quotedNames(msg string) []string {
	parts := strings.Split(msg, "'")
	var names []string
	for i := 1; i < len(parts); i += 2 {
		names = append(names, parts[i])
	}
	return names
}

func (p *Parser) decodeError(err error) error {
	path := rootPath
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		path = typeErr.Field
	}
	return &ValidationError{
		Model:  p.name,
		Errors: []FieldError{{Path: path, Message: err.Error()}},
		Err:    err,
	}
}

func (p *Parser) runHooks(out any, vctx map[string]any) error {
	var errs []error
	if cv, ok := out.(ContextValidator); ok {
		if err := cv.ValidateContext(vctx); err != nil {
			errs = append(errs, err)
		}
	}
	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}

	result := &ValidationError{Model: p.name, Err: errors.Join(errs...)}
	for _, err := range errs {
		var ve *ValidationError
		if errors.As(err, &ve) {
			result.Errors = append(result.Errors, ve.Errors...)
			continue
		}
		result.Errors = append(result.Errors, FieldError{Path: rootPath, Message: err.Error()})
	}
	return result
}
