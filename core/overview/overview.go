package overview

import (
	"context"
	"sync"
	"time"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/client"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/cost"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

type contextKey struct{}

// Overview accumulates call statistics. It is safe for concurrent use.
type Overview struct {
	mu        sync.Mutex
	calls     int
	failures  int
	toolCalls map[string]int
	usage     ai.Usage
	started   time.Time
	ended     time.Time
}

// Snapshot is a point-in-time copy of an Overview.
type Snapshot struct {
	Calls     int            `json:"calls"`
	Failures  int            `json:"failures,omitempty"`
	ToolCalls map[string]int `json:"tool_calls,omitempty"`
	Usage     ai.Usage       `json:"usage"`
	Duration  time.Duration  `json:"duration"`
}

// New returns an empty overview whose clock starts now.
func New() *Overview {
	return &Overview{started: time.Now()}
}

// FromContext returns the overview stored in ctx, or nil.
func FromContext(ctx context.Context) *Overview {
	o, _ := ctx.Value(contextKey{}).(*Overview)
	return o
}

// ToContext returns a copy of ctx carrying o.
func (o *Overview) ToContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, o)
}

// Record adds one call. A nil response with a nil error counts as a call
// without usage.
func (o *Overview) Record(resp *ai.ChatResponse, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls++
	o.ended = time.Now()
	if err != nil {
		o.failures++
		return
	}
	if resp == nil {
		return
	}
	if resp.Usage != nil {
		o.usage.PromptTokens += resp.Usage.PromptTokens
		o.usage.CompletionTokens += resp.Usage.CompletionTokens
		o.usage.TotalTokens += resp.Usage.TotalTokens
		o.usage.ReasoningTokens += resp.Usage.ReasoningTokens
		o.usage.CachedTokens += resp.Usage.CachedTokens
	}
	for _, call := range resp.ToolCalls {
		o.countTool(call.Function.Name)
	}
	if resp.FunctionCall != nil {
		o.countTool(resp.FunctionCall.Name)
	}
}

func (o *Overview) countTool(name string) {
	if o.toolCalls == nil {
		o.toolCalls = make(map[string]int)
	}
	o.toolCalls[name]++
}

// Snapshot copies the current totals.
func (o *Overview) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{
		Calls:    o.calls,
		Failures: o.failures,
		Usage:    o.usage,
	}
	if len(o.toolCalls) > 0 {
		s.ToolCalls = make(map[string]int, len(o.toolCalls))
		for name, n := range o.toolCalls {
			s.ToolCalls[name] = n
		}
	}
	if !o.started.IsZero() && o.ended.After(o.started) {
		s.Duration = o.ended.Sub(o.started)
	}
	return s
}

// Cost prices the usage recorded so far.
func (o *Overview) Cost(pricing cost.ModelCost) cost.Summary {
	return pricing.Summary(o.Snapshot().Usage)
}

// Middleware records every call that passes through it into o.
func (o *Overview) Middleware() client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			resp, err := next(ctx, request)
			o.Record(resp, err)
			return resp, err
		}
	}
}

// Middleware records every call into the overview carried by the request
// context, if any.
func Middleware(next client.SendFunc) client.SendFunc {
	return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		resp, err := next(ctx, request)
		if o := FromContext(ctx); o != nil {
			o.Record(resp, err)
		}
		return resp, err
	}
}
