package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability"
)

const (
	providerName        = "openai"
	defaultBaseURL      = "https://api.openai.com/v1"
	chatCompletionsPath = "chat/completions"
	defaultMaxRetries   = 2
)

// Provider sends chat requests to an OpenAI-compatible endpoint.
type Provider struct {
	apiKey             string
	baseURL            string
	httpClient         *http.Client
	maxRetries         int
	requestTimeout     time.Duration
	useLegacyFunctions bool
}

var _ ai.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithLegacyFunctions sends tools as "functions" with a "function_call"
// selector instead of "tools"/"tool_choice".
func WithLegacyFunctions(enabled bool) Option {
	return func(p *Provider) {
		p.useLegacyFunctions = enabled
	}
}

// WithMaxRetries sets how many times the SDK retries a failed HTTP call.
func WithMaxRetries(n int) Option {
	return func(p *Provider) {
		p.maxRetries = n
	}
}

// WithRequestTimeout bounds each HTTP attempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.requestTimeout = d
	}
}

// New returns a Provider configured from OPENAI_API_KEY and
// OPENAI_API_BASE_URL, then opts.
func New(opts ...Option) *Provider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	p := &Provider{
		apiKey:     os.Getenv("OPENAI_API_KEY"),
		baseURL:    baseURL,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.httpClient = httpClient
	return p
}

// UsesLegacyFunctions reports whether requests use the functions format.
func (p *Provider) UsesLegacyFunctions() bool {
	return p.useLegacyFunctions
}

func (p *Provider) client() sdk.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(p.baseURL),
		option.WithMaxRetries(p.maxRetries),
	}
	if p.apiKey != "" {
		opts = append(opts, option.WithAPIKey(p.apiKey))
	}
	if p.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(p.httpClient))
	}
	if p.requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(p.requestTimeout))
	}
	return sdk.NewClient(opts...)
}

// SendMessage posts request to /chat/completions and returns the first
// choice. Non-2xx answers surface as *ai.APIError.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.Bool(observability.AttrUseLegacyFunctions, p.useLegacyFunctions),
		)
	}

	body, err := requestToChatCompletion(request, p.useLegacyFunctions)
	if err != nil {
		return nil, err
	}

	client := p.client()
	var resp chatCompletionResponse
	if err := client.Post(ctx, chatCompletionsPath, body, &resp); err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, &ai.APIError{
				Provider:   providerName,
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Message,
				Err:        err,
			}
		}
		return nil, fmt.Errorf("%s: send chat completion: %w", providerName, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: response %q has no choices", providerName, resp.ID)
	}
	return chatCompletionToGeneric(resp, request.Tools), nil
}
