package client

import (
	"context"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/utils"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability"
)

// NewObservabilityMiddleware records a client.send_message span, request
// and token counters, a duration histogram and a completion log for every
// send. The span and observer are placed in the context handed to next so
// providers can enrich them.
//
// defaultModel labels requests whose Model is empty.
func NewObservabilityMiddleware(observer observability.Provider, defaultModel string) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			model := request.Model
			if model == "" {
				model = defaultModel
			}
			modelAttr := observability.String(observability.AttrLLMModel, model)

			ctx, span := observer.StartSpan(ctx, observability.SpanClientSendMessage,
				modelAttr,
				observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
				observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
			)
			defer span.End()
			ctx = observability.ContextWithSpan(ctx, span)
			ctx = observability.ContextWithObserver(ctx, observer)

			sw := utils.StartStopwatch()
			response, err := next(ctx, request)
			elapsed := sw.Stop()

			observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(), modelAttr)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(observability.StatusError, "llm send failed")
				observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
					modelAttr, observability.String(observability.AttrStatus, "error"))
				observer.Error(ctx, "llm send failed",
					modelAttr,
					observability.Duration(observability.AttrDuration, elapsed),
					observability.Error(err),
				)
				return nil, err
			}

			observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
				modelAttr, observability.String(observability.AttrStatus, "success"))

			attrs := []observability.Attribute{
				modelAttr,
				observability.Duration(observability.AttrDuration, elapsed),
				observability.String(observability.AttrLLMFinishReason, response.FinishReason),
				observability.Int(observability.AttrResponseToolCalls, len(response.ToolCalls)),
			}
			if call, ok := response.Invocation(); ok {
				attrs = append(attrs, observability.String("invocation", call.Name))
			}
			if response.Usage != nil {
				usage := response.Usage
				observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(usage.TotalTokens), modelAttr)
				observer.Counter(observability.MetricClientTokensPrompt).Add(ctx, int64(usage.PromptTokens), modelAttr)
				observer.Counter(observability.MetricClientTokensCompletion).Add(ctx, int64(usage.CompletionTokens), modelAttr)

				tokens := []observability.Attribute{
					observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
					observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
					observability.Int(observability.AttrLLMTokensTotal, usage.TotalTokens),
				}
				span.SetAttributes(tokens...)
				attrs = append(attrs, tokens...)
			}
			if response.Content != "" {
				attrs = append(attrs, observability.String("response", utils.TruncateString(response.Content, 100)))
			}

			span.SetAttributes(observability.String(observability.AttrLLMResponseID, response.Id))
			span.SetStatus(observability.StatusOK, "")
			observer.Info(ctx, "llm send completed", attrs...)
			return response, nil
		}
	}
}
