package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/client"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/utils"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

// LogLevel controls how much of each exchange the logging middleware writes.
type LogLevel int

const (
	// LogLevelMinimal logs model, duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds message and tool counts, the forced tool, the
	// finish reason and the name of the returned invocation.
	LogLevelStandard

	// LogLevelVerbose adds the last message and the response content and
	// arguments, truncated. Prompts and answers end up in the logs: keep it
	// out of production.
	LogLevelVerbose
)

const truncateLen = 500

// ParseLogLevel maps "minimal", "standard" and "verbose" to a LogLevel.
// Anything else yields LogLevelStandard.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "minimal":
		return LogLevelMinimal
	case "verbose":
		return LogLevelVerbose
	default:
		return LogLevelStandard
	}
}

// NewLoggingMiddleware logs each send at Info and each failure at Error.
// A nil logger means slog.Default().
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			logger.InfoContext(ctx, "llm send", requestAttrs(request, level)...)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "llm send failed",
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "llm send completed", responseAttrs(response, elapsed, level)...)
			return response, nil
		}
	}
}

func requestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Model)}
	if level >= LogLevelStandard {
		attrs = append(attrs,
			slog.Int("message_count", len(request.Messages)),
			slog.Int("tool_count", len(request.Tools)),
		)
		if request.ToolChoice != nil && request.ToolChoice.Name != "" {
			attrs = append(attrs, slog.String("forced_tool", request.ToolChoice.Name))
		}
	}
	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		last := request.Messages[len(request.Messages)-1]
		attrs = append(attrs,
			slog.String("last_message_role", string(last.Role)),
			slog.String("last_message_content", utils.TruncateString(last.Content, truncateLen)),
		)
	}
	return attrs
}

func responseAttrs(response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}
	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.Usage.TotalTokens),
		)
	}
	call, hasCall := response.Invocation()
	if level >= LogLevelStandard {
		if response.FinishReason != "" {
			attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
		}
		if hasCall {
			attrs = append(attrs, slog.String("invocation", call.Name))
		}
	}
	if level >= LogLevelVerbose {
		if response.Content != "" {
			attrs = append(attrs, slog.String("response_content", utils.TruncateString(response.Content, truncateLen)))
		}
		if hasCall {
			attrs = append(attrs, slog.String("arguments", utils.TruncateString(call.Arguments, truncateLen)))
		}
	}
	return attrs
}
