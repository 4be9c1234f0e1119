package client

import (
	"context"
	"errors"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability"
)

// ErrNilProvider is returned by New when no provider is given.
var ErrNilProvider = errors.New("client: provider is nil")

// Client sends chat requests through a provider and its middleware chain.
// It holds no conversation state and is safe for concurrent use.
type Client struct {
	provider     ai.Provider
	send         SendFunc
	defaultModel string
	systemPrompt string
	observer     observability.Provider
	middlewares  []Middleware
}

// Option configures a Client.
type Option func(*Client)

// WithDefaultModel sets the model used when a request leaves Model empty.
func WithDefaultModel(model string) Option {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// WithSystemPrompt sets the system prompt used when a request leaves
// SystemPrompt empty.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// WithObserver installs the observability middleware as the outermost link
// of the chain.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithMiddleware appends middlewares to the chain, outermost first.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// New builds a Client around provider.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	c := &Client{provider: provider}
	for _, opt := range opts {
		opt(c)
	}

	middlewares := c.middlewares
	if c.observer != nil {
		middlewares = append([]Middleware{NewObservabilityMiddleware(c.observer, c.defaultModel)}, middlewares...)
	}
	c.send = Chain(ProviderSend(provider), middlewares...)
	return c, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() ai.Provider {
	return c.provider
}

// Send fills in the client defaults and runs request through the chain.
func (c *Client) Send(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if request.Model == "" {
		request.Model = c.defaultModel
	}
	if request.SystemPrompt == "" {
		request.SystemPrompt = c.systemPrompt
	}
	return c.send(ctx, request)
}

// SendFunc returns Send as a SendFunc, ready to be wrapped by extract.Patch.
func (c *Client) SendFunc() SendFunc {
	return c.Send
}
