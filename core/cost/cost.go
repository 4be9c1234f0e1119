package cost

import (
	"fmt"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

// Currency is the unit every rate is expressed in.
const Currency = "USD"

const perMillion = 1_000_000.0

// ModelCost is the pricing of a model in USD per million tokens.
//
//	modelCost := cost.ModelCost{
//	    InputCostPerMillion:       0.15,
//	    OutputCostPerMillion:      0.60,
//	    CachedInputCostPerMillion: 0.075,
//	}
type ModelCost struct {
	InputCostPerMillion  float64 `json:"input_cost_per_million" yaml:"input_cost_per_million" mapstructure:"input_cost_per_million"`
	OutputCostPerMillion float64 `json:"output_cost_per_million" yaml:"output_cost_per_million" mapstructure:"output_cost_per_million"`

	// CachedInputCostPerMillion applies to the cached share of the prompt
	// tokens. Zero bills cached tokens at the input rate.
	CachedInputCostPerMillion float64 `json:"cached_input_cost_per_million,omitempty" yaml:"cached_input_cost_per_million" mapstructure:"cached_input_cost_per_million"`

	// ReasoningCostPerMillion applies to reasoning tokens, which are also
	// counted in the completion tokens. Zero bills them at the output rate.
	ReasoningCostPerMillion float64 `json:"reasoning_cost_per_million,omitempty" yaml:"reasoning_cost_per_million" mapstructure:"reasoning_cost_per_million"`
}

// IsZero reports whether no rate is set.
func (mc ModelCost) IsZero() bool {
	return mc == ModelCost{}
}

// Validate rejects negative rates.
func (mc ModelCost) Validate() error {
	rates := []struct {
		name  string
		value float64
	}{
		{"input_cost_per_million", mc.InputCostPerMillion},
		{"output_cost_per_million", mc.OutputCostPerMillion},
		{"cached_input_cost_per_million", mc.CachedInputCostPerMillion},
		{"reasoning_cost_per_million", mc.ReasoningCostPerMillion},
	}
	for _, r := range rates {
		if r.value < 0 {
			return fmt.Errorf("cost: %s must not be negative, got %g", r.name, r.value)
		}
	}
	return nil
}

// Summary is the cost of a usage total, by token kind.
type Summary struct {
	InputCost     float64 `json:"input_cost"`
	CachedCost    float64 `json:"cached_cost,omitempty"`
	OutputCost    float64 `json:"output_cost"`
	ReasoningCost float64 `json:"reasoning_cost,omitempty"`
	TotalCost     float64 `json:"total_cost"`
	Currency      string  `json:"currency"`
}

// String returns the total, e.g. "0.000123 USD".
func (s Summary) String() string {
	return fmt.Sprintf("%.6f %s", s.TotalCost, s.Currency)
}

// Summary prices usage. Cached tokens are split out of the prompt tokens
// only when a cached rate is set, and reasoning tokens out of the
// completion tokens only when a reasoning rate is set.
func (mc ModelCost) Summary(usage ai.Usage) Summary {
	input := usage.PromptTokens
	output := usage.CompletionTokens

	s := Summary{Currency: Currency}
	if mc.CachedInputCostPerMillion > 0 && usage.CachedTokens > 0 {
		cached := min(usage.CachedTokens, input)
		input -= cached
		s.CachedCost = tokens(cached, mc.CachedInputCostPerMillion)
	}
	if mc.ReasoningCostPerMillion > 0 && usage.ReasoningTokens > 0 {
		reasoning := min(usage.ReasoningTokens, output)
		output -= reasoning
		s.ReasoningCost = tokens(reasoning, mc.ReasoningCostPerMillion)
	}
	s.InputCost = tokens(input, mc.InputCostPerMillion)
	s.OutputCost = tokens(output, mc.OutputCostPerMillion)
	s.TotalCost = s.InputCost + s.CachedCost + s.OutputCost + s.ReasoningCost
	return s
}

// String returns the input and output rates.
func (mc ModelCost) String() string {
	return fmt.Sprintf("Input: $%.6f/M, Output: $%.6f/M",
		mc.InputCostPerMillion, mc.OutputCostPerMillion)
}

func tokens(n int, ratePerMillion float64) float64 {
	return float64(n) / perMillion * ratePerMillion
}
