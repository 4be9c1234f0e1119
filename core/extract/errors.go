package extract

import (
	"errors"
	"fmt"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/parse"
)

var (
	// ErrNilRequest is returned when the request pointer is nil.
	ErrNilRequest = errors.New("extract: request is nil")

	// ErrInvalidTarget is returned when the response model is neither a
	// non-nil pointer nor a *callable.Spec.
	ErrInvalidTarget = errors.New("extract: response model must be a non-nil pointer or a *callable.Spec")
)

// NoInvocationError reports a response that invokes no function at all.
// It is never retried.
type NoInvocationError struct {
	// Name is the function the model was forced to call.
	Name         string
	FinishReason string
	Refusal      string
}

func (e *NoInvocationError) Error() string {
	if e.Refusal != "" {
		return fmt.Sprintf("model refused to invoke %q: %s", e.Name, e.Refusal)
	}
	return fmt.Sprintf("model did not invoke %q (finish reason %q)", e.Name, e.FinishReason)
}

// NameMismatchError reports an invocation of a function other than the
// forced one. It points at a provider or configuration problem, not at the
// shape of the data, and is never retried.
type NameMismatchError struct {
	Expected string
	Got      string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("model invoked %q, expected %q", e.Got, e.Expected)
}

// IsRetryable reports whether err is a failure the model can correct: a
// [*parse.ParseError] or a [*parse.ValidationError].
func IsRetryable(err error) bool {
	return parse.IsParseOrValidation(err)
}

// errorKind labels retryable failures for logs and metrics.
func errorKind(err error) string {
	var pe *parse.ParseError
	if errors.As(err, &pe) {
		return "parse"
	}
	var ve *parse.ValidationError
	if errors.As(err, &ve) {
		return "validation"
	}
	return "other"
}
