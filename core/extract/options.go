package extract

import (
	"log/slog"
	"time"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/callable"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability"
)

// DefaultMaxRetries is the retry budget of a call that sets none.
const DefaultMaxRetries = 1

// Option configures the controller built by [Patch].
type Option func(*controller)

// WithJSONRepair runs malformed argument payloads through a JSON repair pass
// before reporting a parse failure.
func WithJSONRepair(repair bool) Option {
	return func(c *controller) {
		c.repair = repair
	}
}

// WithRetryDelay pauses for d between attempts. The default is no pause.
func WithRetryDelay(d time.Duration) Option {
	return func(c *controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithLogger sets the logger for attempt failures. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver records a span and metrics for every extraction. Without it
// the observer found in the call context, if any, is used.
func WithObserver(observer observability.Provider) Option {
	return func(c *controller) {
		c.observer = observer
	}
}

// CallOption configures a single call of a [CreateFunc].
type CallOption func(*callConfig)

type callConfig struct {
	model      any
	target     any
	spec       *callable.Spec
	vctx       map[string]any
	maxRetries int
	strict     bool
}

func newCallConfig(opts []CallOption) callConfig {
	cfg := callConfig{maxRetries: DefaultMaxRetries}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxRetries < 0 {
		cfg.maxRetries = 0
	}
	return cfg
}

// structured reports whether the call asks for a response model.
func (c *callConfig) structured() bool {
	return c.model != nil || c.spec != nil
}

// WithResponseModel requests a structured result. model is either a non-nil
// pointer to a struct, which receives the decoded value and whose type the
// callable spec is derived from, or a *callable.Spec describing the function
// directly (see [WithTarget]).
func WithResponseModel(model any) CallOption {
	return func(c *callConfig) {
		c.model = model
	}
}

// WithSpec replaces the derived callable spec, for instance to rename the
// function or reword its description. Used alone it behaves like
// WithResponseModel(spec).
func WithSpec(spec *callable.Spec) CallOption {
	return func(c *callConfig) {
		c.spec = spec
	}
}

// WithTarget sets the pointer that receives the decoded value when the
// response model is a *callable.Spec. Without a target the arguments are
// validated and then discarded.
func WithTarget(out any) CallOption {
	return func(c *callConfig) {
		c.target = out
	}
}

// WithValidationContext passes vctx to targets implementing
// parse.ContextValidator.
func WithValidationContext(vctx map[string]any) CallOption {
	return func(c *callConfig) {
		c.vctx = vctx
	}
}

// WithMaxRetries sets how many times a failed attempt is retried.
// Negative values mean no retry.
func WithMaxRetries(n int) CallOption {
	return func(c *callConfig) {
		c.maxRetries = n
	}
}

// WithStrict disables the coercion of string scalars to the schema type.
func WithStrict(strict bool) CallOption {
	return func(c *callConfig) {
		c.strict = strict
	}
}
