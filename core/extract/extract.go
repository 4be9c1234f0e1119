package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/callable"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/client"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/parse"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/utils"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability"
)

// CreateFunc sends request and, when a response model is given, decodes the
// forced invocation into it. request.Messages is extended in place with the
// corrective turns of failed attempts.
type CreateFunc func(ctx context.Context, request *ai.ChatRequest, opts ...CallOption) (*ai.ChatResponse, error)

type controller struct {
	send     client.SendFunc
	logger   *slog.Logger
	observer observability.Provider
	repair   bool
	delay    time.Duration
}

// Patch returns a CreateFunc backed by send. The returned function holds no
// mutable state and may be used concurrently, as long as each call gets its
// own request.
func Patch(send client.SendFunc, opts ...Option) CreateFunc {
	c := &controller{
		send:   send,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c.create
}

// Extract is a typed helper around a CreateFunc: it decodes the forced
// invocation into a new T and returns it with the final response.
func Extract[T any](ctx context.Context, create CreateFunc, request *ai.ChatRequest, opts ...CallOption) (T, *ai.ChatResponse, error) {
	var out T
	opts = append([]CallOption{WithResponseModel(&out)}, opts...)

	response, err := create(ctx, request, opts...)
	if err != nil {
		var zero T
		return zero, nil, err
	}
	return out, response, nil
}

func (c *controller) create(ctx context.Context, request *ai.ChatRequest, opts ...CallOption) (*ai.ChatResponse, error) {
	if request == nil {
		return nil, ErrNilRequest
	}

	cfg := newCallConfig(opts)
	if !cfg.structured() {
		return c.send(ctx, *request)
	}

	spec, dec, err := cfg.resolve(c.repair)
	if err != nil {
		return nil, err
	}

	inv := &invocation{
		controller: c,
		id:         uuid.NewString(),
		spec:       spec,
		decoder:    dec,
		request:    request,
		maxRetries: cfg.maxRetries,
	}
	return inv.run(ctx)
}

// resolve picks the spec to force and builds the decoder for the target.
// Every failure here happens before any model call.
func (c *callConfig) resolve(repair bool) (*callable.Spec, *decoder, error) {
	spec := c.spec
	target := c.target

	switch model := c.model.(type) {
	case nil:
	case *callable.Spec:
		if spec == nil {
			spec = model
		}
	default:
		target = model
	}

	var targetValue reflect.Value
	if target != nil {
		targetValue = reflect.ValueOf(target)
		if targetValue.Kind() != reflect.Ptr || targetValue.IsNil() {
			return nil, nil, fmt.Errorf("%w, got %T", ErrInvalidTarget, target)
		}
	}

	if spec == nil {
		if model, ok := c.model.(*callable.Spec); ok && model == nil {
			return nil, nil, fmt.Errorf("%w, got nil *callable.Spec", ErrInvalidTarget)
		}
		derived, err := callable.DeriveType(reflect.TypeOf(target))
		if err != nil {
			return nil, nil, err
		}
		spec = derived
	}
	if spec.Name == "" {
		return nil, nil, errors.New("extract: callable spec has no name")
	}

	parser, err := parse.NewParser(spec.Name, spec.Parameters)
	if err != nil {
		return nil, nil, err
	}

	return spec, &decoder{
		parser: parser,
		target: targetValue,
		options: []parse.Option{
			parse.WithStrict(c.strict),
			parse.WithRepair(repair),
			parse.WithContext(c.vctx),
		},
	}, nil
}

// decoder parses arguments into a fresh value and copies it to the target
// only once every check passed, so a failed attempt never leaves a partial
// result behind.
type decoder struct {
	parser  *parse.Parser
	target  reflect.Value
	options []parse.Option
}

func (d *decoder) decode(arguments string) error {
	var fresh reflect.Value
	if d.target.IsValid() {
		fresh = reflect.New(d.target.Elem().Type())
	} else {
		fresh = reflect.New(reflect.TypeFor[map[string]any]())
	}

	if err := d.parser.Parse(arguments, fresh.Interface(), d.options...); err != nil {
		return err
	}
	if d.target.IsValid() {
		d.target.Elem().Set(fresh.Elem())
	}
	return nil
}

// invocation is the state of one structured call.
type invocation struct {
	*controller
	id         string
	spec       *callable.Spec
	decoder    *decoder
	request    *ai.ChatRequest
	maxRetries int
	attempts   int
}

func (inv *invocation) run(ctx context.Context) (*ai.ChatResponse, error) {
	observer := inv.observer
	if observer == nil {
		observer = observability.ObserverFromContext(ctx)
	}

	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanExtractionInvoke,
			observability.String(observability.AttrExtractionID, inv.id),
			observability.String(observability.AttrExtractionName, inv.spec.Name),
			observability.Int(observability.AttrExtractionMaxRetries, inv.maxRetries),
		)
		defer span.End()
	}
	timer := utils.StartStopwatch()

	response, err := retry.DoWithData(
		func() (*ai.ChatResponse, error) {
			return inv.attempt(ctx, observer, span)
		},
		retry.Context(ctx),
		retry.Attempts(uint(inv.maxRetries)+1),
		retry.Delay(inv.delay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
	)
	elapsed := timer.Stop()

	if err != nil && IsRetryable(err) && ctx.Err() == nil {
		inv.logger.WarnContext(ctx, "max retries reached",
			slog.String(observability.AttrExtractionID, inv.id),
			slog.String(observability.AttrExtractionName, inv.spec.Name),
			slog.Int(observability.AttrExtractionAttempts, inv.attempts),
			slog.String(observability.AttrError, err.Error()),
		)
	}

	if observer != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		observer.Histogram(observability.MetricExtractionDuration).Record(ctx, elapsed.Seconds(),
			observability.String(observability.AttrExtractionName, inv.spec.Name),
			observability.String(observability.AttrStatus, status),
		)
		span.SetAttributes(observability.Int(observability.AttrExtractionAttempts, inv.attempts))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		} else {
			span.SetStatus(observability.StatusOK, "")
		}
	}

	if err != nil {
		return nil, err
	}
	return response, nil
}

// attempt performs one forced call. Retryable failures append the
// corrective turns when another attempt remains.
func (inv *invocation) attempt(ctx context.Context, observer observability.Provider, span observability.Span) (*ai.ChatResponse, error) {
	inv.attempts++
	if observer != nil {
		observer.Counter(observability.MetricExtractionAttempts).Add(ctx, 1,
			observability.String(observability.AttrExtractionName, inv.spec.Name),
		)
	}

	response, err := inv.send(ctx, inv.forcedRequest())
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, &NoInvocationError{Name: inv.spec.Name}
	}

	call, ok := response.Invocation()
	if !ok {
		return nil, &NoInvocationError{
			Name:         inv.spec.Name,
			FinishReason: response.FinishReason,
			Refusal:      response.Refusal,
		}
	}
	if call.Name != inv.spec.Name {
		return nil, &NameMismatchError{Expected: inv.spec.Name, Got: call.Name}
	}

	err = inv.decoder.decode(call.Arguments)
	if err == nil {
		return response, nil
	}
	if !IsRetryable(err) {
		return nil, err
	}

	kind := errorKind(err)
	inv.logger.DebugContext(ctx, "extraction attempt failed",
		slog.String(observability.AttrExtractionID, inv.id),
		slog.String(observability.AttrExtractionName, inv.spec.Name),
		slog.Int(observability.AttrExtractionAttempt, inv.attempts),
		slog.String(observability.AttrExtractionErrorKind, kind),
		slog.String(observability.AttrError, err.Error()),
	)
	if observer != nil {
		observer.Counter(observability.MetricExtractionFailures).Add(ctx, 1,
			observability.String(observability.AttrExtractionName, inv.spec.Name),
			observability.String(observability.AttrExtractionErrorKind, kind),
		)
		span.AddEvent(observability.EventExtractionAttemptFailed,
			observability.Int(observability.AttrExtractionAttempt, inv.attempts),
			observability.String(observability.AttrExtractionErrorKind, kind),
			observability.Error(err),
		)
	}

	if inv.attempts <= inv.maxRetries {
		inv.request.Messages = append(inv.request.Messages,
			assistantTurn(response),
			correctiveTurn(err),
		)
	}
	return nil, err
}

// forcedRequest copies the caller's request and constrains it to the spec.
// The copy reads the current message history, including corrective turns.
func (inv *invocation) forcedRequest() ai.ChatRequest {
	forced := *inv.request
	forced.Tools = []ai.ToolDescription{inv.spec.Tool()}
	forced.ToolChoice = ai.ForceTool(inv.spec.Name)
	return forced
}
