package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/client"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

// RetryConfig tunes NewRetryMiddleware. Zero values take the defaults noted
// on each field.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first failure. Default 3.
	MaxRetries uint

	// InitialBackoff is the delay before the first retry, doubled on each
	// following one. Default 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps a single delay. Default 30s.
	MaxBackoff time.Duration

	// MaxJitter is the upper bound of the random delay added to each
	// backoff. Default InitialBackoff/10.
	MaxJitter time.Duration

	// RetryableFunc decides whether err is worth another attempt. Default
	// [IsTransient].
	RetryableFunc func(error) bool

	// OnRetry is called before each wait with the 0-based retry index.
	OnRetry func(n uint, err error)
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.MaxJitter == 0 {
		c.MaxJitter = c.InitialBackoff / 10
	}
	if c.RetryableFunc == nil {
		c.RetryableFunc = IsTransient
	}
	if c.OnRetry == nil {
		c.OnRetry = func(uint, error) {}
	}
}

// IsTransient reports whether err is an [ai.APIError] with a transient
// status code.
func IsTransient(err error) bool {
	var apiErr *ai.APIError
	return errors.As(err, &apiErr) && apiErr.Transient()
}

// NewRetryMiddleware retries sends whose error satisfies
// config.RetryableFunc. Non-retryable errors and context cancellation are
// returned as-is; exhausting the budget wraps the last error with
// [ErrRetryExhausted].
func NewRetryMiddleware(config RetryConfig) client.Middleware {
	config.applyDefaults()

	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			response, err := retry.DoWithData(
				func() (*ai.ChatResponse, error) {
					return next(ctx, request)
				},
				retry.Context(ctx),
				retry.Attempts(config.MaxRetries+1),
				retry.Delay(config.InitialBackoff),
				retry.MaxDelay(config.MaxBackoff),
				retry.MaxJitter(config.MaxJitter),
				retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
				retry.RetryIf(config.RetryableFunc),
				retry.OnRetry(config.OnRetry),
				retry.LastErrorOnly(true),
			)
			if err == nil {
				return response, nil
			}
			if ctx.Err() == nil && config.RetryableFunc(err) {
				return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, err)
			}
			return nil, err
		}
	}
}
