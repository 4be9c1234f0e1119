package client

import (
	"context"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

// SendFunc sends a chat request and returns the completed response.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// Middleware wraps a SendFunc. The first middleware handed to [Chain] is the
// outermost: it sees the request first and the response last.
type Middleware func(next SendFunc) SendFunc

// ProviderSend adapts a provider to a SendFunc.
func ProviderSend(provider ai.Provider) SendFunc {
	return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		return provider.SendMessage(ctx, request)
	}
}

// Chain wraps base with middlewares, applied in reverse so that
// middlewares[0] is outermost. Nil entries are skipped.
func Chain(base SendFunc, middlewares ...Middleware) SendFunc {
	chain := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		chain = middlewares[i](chain)
	}
	return chain
}
