package parse

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/jsonschema"
)

type User struct {
	Name string `json:"name"`
	Age  int    `json:"age" jsonschema:"default=0"`
}

type Flags struct {
	Enabled bool    `json:"enabled"`
	Ratio   float64 `json:"ratio"`
}

type Address struct {
	Street  string `json:"street"`
	Country string `json:"country" jsonschema:"default=IT"`
}

type Customer struct {
	Name      string    `json:"name"`
	Addresses []Address `json:"addresses"`
}

type Category struct {
	Name     string     `json:"name"`
	Children []Category `json:"children" jsonschema:"default=[]"`
}

type Booking struct {
	Guests int `json:"guests"`
}

func (b Booking) Validate() error {
	if b.Guests <= 0 {
		return Invalid("guests", "must be positive")
	}
	return nil
}

type Quota struct {
	Used int `json:"used"`
}

func (q *Quota) ValidateContext(vctx map[string]any) error {
	limit, ok := vctx["limit"].(int)
	if !ok {
		return errors.New("limit missing from validation context")
	}
	if q.Used > limit {
		return fmt.Errorf("used %d exceeds limit %d", q.Used, limit)
	}
	return nil
}

func mustParser[T any](t *testing.T) *Parser {
	t.Helper()
	schema, err := jsonschema.GenerateJSONSchema[T]()
	if err != nil {
		t.Fatalf("GenerateJSONSchema() error = %v", err)
	}
	p, err := NewParser(schema.Title, schema)
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}
	return p
}

func TestParse_AppliesDefaults(t *testing.T) {
	p := mustParser[User](t)

	var got User
	if err := p.Parse(`{"name": "Ada"}`, &got); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got != (User{Name: "Ada", Age: 0}) {
		t.Errorf("Parse() = %+v, want {Name:Ada Age:0}", got)
	}
}

func TestParse_MissingRequiredField(t *testing.T) {
	p := mustParser[User](t)

	var got User
	err := p.Parse(`{"age": 5}`, &got)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Parse() error = %v, want *ValidationError", err)
	}
	if !slices.Contains(ve.Fields(), "name") {
		t.Errorf("Fields() = %v, want to contain 'name'", ve.Fields())
	}
	if !strings.HasPrefix(err.Error(), "1 validation error for User") {
		t.Errorf("Error() = %q, want prefix '1 validation error for User'", err.Error())
	}
}

func TestParse_TypeMismatch(t *testing.T) {
	p := mustParser[User](t)

	var got User
	err := p.Parse(`{"name": ["not", "a", "string"]}`, &got)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Parse() error = %v, want *ValidationError", err)
	}
	if !slices.Contains(ve.Fields(), "name") {
		t.Errorf("Fields() = %v, want to contain 'name'", ve.Fields())
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace", input: "   "},
		{name: "truncated", input: `{"name": "Ada"`},
		{name: "single quotes", input: `{'name': 'Ada'}`},
		{name: "trailing data", input: `{"name": "Ada"} {"name": "Bob"}`},
	}

	p := mustParser[User](t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got User
			err := p.Parse(tt.input, &got)

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse() error = %v, want *ParseError", err)
			}
			if pe.Input != tt.input {
				t.Errorf("ParseError.Input = %q, want %q", pe.Input, tt.input)
			}
			if !IsParseOrValidation(err) {
				t.Error("IsParseOrValidation() = false, want true")
			}
		})
	}
}

func TestParse_RepairIsOptIn(t *testing.T) {
	p := mustParser[User](t)
	input := `{name: 'Ada', age: 36,}`

	var plain User
	var pe *ParseError
	if err := p.Parse(input, &plain); !errors.As(err, &pe) {
		t.Fatalf("Parse() without repair error = %v, want *ParseError", err)
	}

	var repaired User
	if err := p.Parse(input, &repaired, WithRepair(true)); err != nil {
		t.Fatalf("Parse() with repair error = %v", err)
	}
	if repaired != (User{Name: "Ada", Age: 36}) {
		t.Errorf("Parse() = %+v, want {Name:Ada Age:36}", repaired)
	}
}

func TestParse_RepairUnwrapsSchemaValues(t *testing.T) {
	p := mustParser[User](t)
	input := `{"name": {"type": "string", "value": "Ada"}, "age": {"type": "integer", "value": 36},}`

	var got User
	if err := p.Parse(input, &got, WithRepair(true)); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got != (User{Name: "Ada", Age: 36}) {
		t.Errorf("Parse() = %+v, want {Name:Ada Age:36}", got)
	}
}

func TestParse_CoercesScalarsUnlessStrict(t *testing.T) {
	p := mustParser[User](t)
	input := `{"name": "Ada", "age": "36"}`

	var lax User
	if err := p.Parse(input, &lax); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if lax.Age != 36 {
		t.Errorf("Age = %d, want 36", lax.Age)
	}

	var strict User
	err := p.Parse(input, &strict, WithStrict(true))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Parse() strict error = %v, want *ValidationError", err)
	}
	if !slices.Contains(ve.Fields(), "age") {
		t.Errorf("Fields() = %v, want to contain 'age'", ve.Fields())
	}
}

func TestParse_IntegralNumbersUnlessStrict(t *testing.T) {
	p := mustParser[User](t)

	for _, age := range []string{`5.0`, `5e0`, `"5.0"`, `50E-1`} {
		t.Run(age, func(t *testing.T) {
			input := `{"name": "Ada", "age": ` + age + `}`

			var lax User
			if err := p.Parse(input, &lax); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if lax.Age != 5 {
				t.Errorf("Age = %d, want 5", lax.Age)
			}

			var strict User
			err := p.Parse(input, &strict, WithStrict(true))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Parse() strict error = %v, want *ValidationError", err)
			}
			if !slices.Contains(ve.Fields(), "age") {
				t.Errorf("Fields() = %v, want to contain 'age'", ve.Fields())
			}
		})
	}

	var fractional User
	err := p.Parse(`{"name": "Ada", "age": 5.5}`, &fractional)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Parse() error = %v, want *ValidationError for 5.5", err)
	}
}

func TestParse_CoercesBooleansAndNumbers(t *testing.T) {
	p := mustParser[Flags](t)

	var got Flags
	if err := p.Parse(`{"enabled": "yes", "ratio": " 0.25 "}`, &got); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !got.Enabled || got.Ratio != 0.25 {
		t.Errorf("Parse() = %+v, want {Enabled:true Ratio:0.25}", got)
	}

	err := p.Parse(`{"enabled": "maybe", "ratio": 1}`, &got)
	if !IsParseOrValidation(err) {
		t.Errorf("Parse() error = %v, want validation failure", err)
	}
}

func TestParse_NestedDefaults(t *testing.T) {
	p := mustParser[Customer](t)

	var got Customer
	err := p.Parse(`{"name": "Ada", "addresses": [{"street": "Via Roma"}, {"street": "Rue X", "country": "FR"}]}`, &got)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got.Addresses) != 2 {
		t.Fatalf("len(Addresses) = %d, want 2", len(got.Addresses))
	}
	if got.Addresses[0].Country != "IT" || got.Addresses[1].Country != "FR" {
		t.Errorf("Addresses = %+v, want countries IT and FR", got.Addresses)
	}
}

func TestParse_NestedMissingFieldPath(t *testing.T) {
	p := mustParser[Customer](t)

	var got Customer
	err := p.Parse(`{"name": "Ada", "addresses": [{"street": "Via Roma"}, {"country": "FR"}]}`, &got)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Parse() error = %v, want *ValidationError", err)
	}
	if !slices.Contains(ve.Fields(), "addresses.1.street") {
		t.Errorf("Fields() = %v, want to contain 'addresses.1.street'", ve.Fields())
	}
}

func TestParse_RecursiveSchema(t *testing.T) {
	p := mustParser[Category](t)

	var got Category
	err := p.Parse(`{"name": "root", "children": [{"name": "leaf"}]}`, &got)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got.Children) != 1 || got.Children[0].Name != "leaf" {
		t.Errorf("Parse() = %+v", got)
	}
	if got.Children[0].Children == nil {
		t.Error("expected default children on nested node")
	}

	err = p.Parse(`{"name": "root", "children": [{"children": []}]}`, &got)
	if !IsParseOrValidation(err) {
		t.Errorf("Parse() error = %v, want validation failure for nested node", err)
	}
}

func TestParse_DefaultsAreNotShared(t *testing.T) {
	p := mustParser[Category](t)

	var first, second Category
	if err := p.Parse(`{"name": "a"}`, &first); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	first.Children = append(first.Children, Category{Name: "x"})

	if err := p.Parse(`{"name": "b"}`, &second); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(second.Children) != 0 {
		t.Errorf("second.Children = %+v, want empty", second.Children)
	}
}

func TestParse_ValidatorHook(t *testing.T) {
	p := mustParser[Booking](t)

	var ok Booking
	if err := p.Parse(`{"guests": 2}`, &ok); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var bad Booking
	err := p.Parse(`{"guests": 0}`, &bad)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Parse() error = %v, want *ValidationError", err)
	}
	if len(ve.Errors) != 1 || ve.Errors[0].Path != "guests" || ve.Errors[0].Message != "must be positive" {
		t.Errorf("Errors = %+v", ve.Errors)
	}
	if ve.Model != "Booking" {
		t.Errorf("Model = %q, want Booking", ve.Model)
	}
}

func TestParse_ContextValidatorHook(t *testing.T) {
	p := mustParser[Quota](t)

	var got Quota
	if err := p.Parse(`{"used": 3}`, &got, WithContext(map[string]any{"limit": 5})); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	err := p.Parse(`{"used": 9}`, &got, WithContext(map[string]any{"limit": 5}))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Parse() error = %v, want *ValidationError", err)
	}
	if !strings.Contains(ve.Error(), "exceeds limit") {
		t.Errorf("Error() = %q, want to mention the limit", ve.Error())
	}

	if err := p.Parse(`{"used": 1}`, &got); !IsParseOrValidation(err) {
		t.Errorf("Parse() without context error = %v, want validation failure", err)
	}
}

func TestParse_RequiresPointer(t *testing.T) {
	p := mustParser[User](t)

	var u User
	err := p.Parse(`{"name": "Ada"}`, u)
	if err == nil {
		t.Fatal("Parse() error = nil, want error for non-pointer target")
	}
	if IsParseOrValidation(err) {
		t.Errorf("Parse() error = %v, must not be retryable", err)
	}
}

func TestArguments_UsesSchemaTitle(t *testing.T) {
	schema, err := jsonschema.GenerateJSONSchema[User]()
	if err != nil {
		t.Fatalf("GenerateJSONSchema() error = %v", err)
	}

	var got User
	err = Arguments(`{}`, schema, &got)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Arguments() error = %v, want *ValidationError", err)
	}
	if ve.Model != "User" {
		t.Errorf("Model = %q, want User", ve.Model)
	}
}

func TestValidationError_Format(t *testing.T) {
	err := &ValidationError{
		Model: "User",
		Errors: []FieldError{
			{Path: "name", Message: "field required"},
			{Path: "age", Message: "expected integer"},
		},
	}

	want := "2 validation errors for User\nname\n  field required\nage\n  expected integer"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestInstancePath(t *testing.T) {
	tests := map[string]string{
		"":                 "(root)",
		"/name":            "name",
		"/addresses/0/zip": "addresses.0.zip",
		"/a~1b/c~0d":       "a/b.c~d",
	}
	for in, want := range tests {
		if got := instancePath(in); got != want {
			t.Errorf("instancePath(%q) = %q, want %q", in, got, want)
		}
	}
}
