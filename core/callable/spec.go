package callable

import (
	"encoding/json"
	"fmt"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/jsonschema"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

// Spec is the function signature a model is forced to call: a name, a
// description and a JSON Schema describing the arguments.
type Spec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// Named overrides the callable name, which otherwise is the Go type name.
type Named interface {
	CallableName() string
}

// Described overrides the callable description.
type Described interface {
	CallableDescription() string
}

// Documented supplies free-text documentation for a type. The first line
// becomes the description fallback and parameter entries fill in missing
// property descriptions. See [ParseDoc] for the accepted layouts.
type Documented interface {
	Doc() string
}

// Required returns the names of the required parameters.
func (s *Spec) Required() []string {
	if s == nil || s.Parameters == nil {
		return nil
	}
	return append([]string(nil), s.Parameters.Required...)
}

// Clone returns a deep copy of the spec.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}
	return &Spec{
		Name:        s.Name,
		Description: s.Description,
		Parameters:  s.Parameters.Clone(),
	}
}

// JSON returns the canonical compact encoding of the spec. Property maps are
// encoded with sorted keys, so equal specs always encode identically.
func (s *Spec) JSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal callable spec %q: %w", s.Name, err)
	}
	return string(data), nil
}

// Tool converts the spec to the provider-neutral tool description.
func (s *Spec) Tool() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        s.Name,
		Description: s.Description,
		Parameters:  s.Parameters,
	}
}
