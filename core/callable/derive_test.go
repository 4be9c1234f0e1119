package callable

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type User struct {
	Name string `json:"name"`
	Age  int    `json:"age" jsonschema:"default=0"`
}

type Invoice struct {
	Number string  `json:"number"`
	Total  float64 `json:"total" jsonschema:"description=Grand total, taxes included"`
	Paid   bool    `json:"paid" jsonschema:"default=false"`
	Notes  string  `json:"notes" jsonschema:"default="`
}

func (Invoice) Doc() string {
	return `
	An invoice issued to a customer.

	Longer explanation of the record.

	Args:
	    number (str): Invoice number as printed.
	    total: Ignored, the tag already describes it.
	    Notes: Free-form remarks,
	        possibly on several lines.
	`
}

type Renamed struct {
	Value string `json:"value"`
}

func (*Renamed) CallableName() string        { return "extract_value" }
func (*Renamed) CallableDescription() string { return "Extracts a single value." }

type Movie struct {
	Title string `json:"title"`
}

func (Movie) Doc() string {
	return ":param title: The movie title."
}

func TestDerive_RequiredAndDefaults(t *testing.T) {
	spec, err := Derive[User]()
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if spec.Name != "User" {
		t.Errorf("Name = %q, want User", spec.Name)
	}
	if got := spec.Required(); !reflect.DeepEqual(got, []string{"name"}) {
		t.Errorf("Required() = %v, want [name]", got)
	}
	if got := spec.Parameters.Properties["age"].Default; got != int64(0) {
		t.Errorf("age default = %#v, want int64(0)", got)
	}
	if spec.Parameters.Title != "" || spec.Parameters.Description != "" {
		t.Errorf("Parameters must not carry title or description, got %q / %q", spec.Parameters.Title, spec.Parameters.Description)
	}
	if spec.Parameters.Type != "object" {
		t.Errorf("Parameters.Type = %q, want object", spec.Parameters.Type)
	}
}

func TestDerive_GeneratedDescription(t *testing.T) {
	spec, err := Derive[User]()
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	want := "Correctly extracted `User` with all the required parameters with correct types"
	if spec.Description != want {
		t.Errorf("Description = %q, want %q", spec.Description, want)
	}
}

func TestDerive_DocumentationBackfill(t *testing.T) {
	spec, err := Derive[Invoice]()
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if spec.Description != "An invoice issued to a customer." {
		t.Errorf("Description = %q", spec.Description)
	}

	props := spec.Parameters.Properties
	if got := props["number"].Description; got != "Invoice number as printed." {
		t.Errorf("number description = %q", got)
	}
	if got := props["total"].Description; got != "Grand total, taxes included" {
		t.Errorf("total description = %q, tag must win over documentation", got)
	}
	if got := props["notes"].Description; got != "Free-form remarks, possibly on several lines." {
		t.Errorf("notes description = %q, Go field name must match", got)
	}
	if got := props["paid"].Description; got != "" {
		t.Errorf("paid description = %q, want empty", got)
	}

	if got := spec.Required(); !reflect.DeepEqual(got, []string{"number", "total"}) {
		t.Errorf("Required() = %v, want [number total]", got)
	}
}

func TestDerive_NamedAndDescribed(t *testing.T) {
	spec, err := Derive[Renamed]()
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if spec.Name != "extract_value" {
		t.Errorf("Name = %q, want extract_value", spec.Name)
	}
	if spec.Description != "Extracts a single value." {
		t.Errorf("Description = %q", spec.Description)
	}
}

func TestDerive_FieldListDocumentation(t *testing.T) {
	spec, err := Derive[Movie]()
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if got := spec.Parameters.Properties["title"].Description; got != "The movie title." {
		t.Errorf("title description = %q", got)
	}
	if !strings.HasPrefix(spec.Description, "Correctly extracted `Movie`") {
		t.Errorf("Description = %q, want generated fallback", spec.Description)
	}
}

func TestDerive_PointerType(t *testing.T) {
	spec, err := DeriveType(reflect.TypeFor[*User]())
	if err != nil {
		t.Fatalf("DeriveType() error = %v", err)
	}
	if spec.Name != "User" {
		t.Errorf("Name = %q, want User", spec.Name)
	}
}

func TestDerive_RejectsNonStruct(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{name: "nil", typ: nil},
		{name: "string", typ: reflect.TypeFor[string]()},
		{name: "slice of structs", typ: reflect.TypeFor[[]User]()},
		{name: "map", typ: reflect.TypeFor[map[string]any]()},
		{name: "pointer to int", typ: reflect.TypeFor[*int]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveType(tt.typ)

			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("DeriveType() error = %v, want *SchemaError", err)
			}
			if !errors.Is(err, ErrNotStruct) {
				t.Errorf("DeriveType() error = %v, want ErrNotStruct", err)
			}
		})
	}
}

func TestDerive_RejectsAnonymousStruct(t *testing.T) {
	_, err := Derive[struct {
		A string `json:"a"`
	}]()
	if !errors.Is(err, ErrUnnamed) {
		t.Errorf("Derive() error = %v, want ErrUnnamed", err)
	}
}

func TestDerive_SchemaGenerationFailure(t *testing.T) {
	type Broken struct {
		Count int `json:"count" jsonschema:"default=lots"`
	}

	_, err := Derive[Broken]()
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("Derive() error = %v, want *SchemaError", err)
	}
	if errors.Is(err, ErrNotStruct) {
		t.Error("generation failure must not be reported as ErrNotStruct")
	}
}

func TestDerive_ReturnsIndependentCopies(t *testing.T) {
	first, err := Derive[User]()
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	before, err := first.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	first.Name = "Mutated"
	first.Parameters.Required = append(first.Parameters.Required, "age")
	first.Parameters.Properties["name"].Description = "changed"

	second, err := Derive[User]()
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	after, err := second.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	if before != after {
		t.Errorf("Derive() not idempotent after mutating a returned spec:\nbefore %s\nafter  %s", before, after)
	}
}

func TestDerive_CacheHit(t *testing.T) {
	specCache.Purge()

	if _, err := Derive[User](); err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if !specCache.Contains(reflect.TypeFor[User]()) {
		t.Fatal("expected User spec to be cached")
	}
	if _, err := DeriveType(reflect.TypeFor[*User]()); err != nil {
		t.Fatalf("DeriveType() error = %v", err)
	}
	if specCache.Len() != 1 {
		t.Errorf("cache length = %d, want 1 (pointer and value share an entry)", specCache.Len())
	}
}

func TestSpec_JSONShape(t *testing.T) {
	spec, err := Derive[User]()
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	got, err := spec.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	want := `{"name":"User","description":"Correctly extracted ` + "`User`" + ` with all the required parameters with correct types",` +
		`"parameters":{"type":"object","required":["name"],"properties":{"age":{"type":"integer","default":0},"name":{"type":"string"}}}}`
	if got != want {
		t.Errorf("JSON() =\n%s\nwant\n%s", got, want)
	}
}

func TestSpec_Tool(t *testing.T) {
	spec, err := Derive[User]()
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	tool := spec.Tool()
	if tool.Name != spec.Name || tool.Description != spec.Description || tool.Parameters != spec.Parameters {
		t.Errorf("Tool() = %+v, does not mirror spec", tool)
	}
}

func TestSpec_CloneNil(t *testing.T) {
	var s *Spec
	if s.Clone() != nil {
		t.Error("Clone() of nil spec must be nil")
	}
	if s.Required() != nil {
		t.Error("Required() of nil spec must be nil")
	}
}
