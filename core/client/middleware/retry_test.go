package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/client"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

// scripted returns the queued errors in order, then succeeds.
func scripted(calls *int, errs ...error) client.SendFunc {
	return func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		i := *calls
		*calls++
		if i < len(errs) {
			return nil, errs[i]
		}
		return &ai.ChatResponse{Content: "ok"}, nil
	}
}

func fastRetry(max uint) RetryConfig {
	return RetryConfig{MaxRetries: max, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, MaxJitter: time.Microsecond}
}

func TestRetry_RecoversFromTransient(t *testing.T) {
	calls := 0
	var retried []uint
	cfg := fastRetry(3)
	cfg.OnRetry = func(n uint, _ error) { retried = append(retried, n) }
	send := NewRetryMiddleware(cfg)(scripted(&calls,
		&ai.APIError{Provider: "openai", StatusCode: http.StatusTooManyRequests},
		&ai.APIError{Provider: "openai", StatusCode: http.StatusBadGateway},
	))

	resp, err := send(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" || calls != 3 {
		t.Errorf("content=%q calls=%d, want ok/3", resp.Content, calls)
	}
	if len(retried) != 2 {
		t.Errorf("OnRetry calls = %v, want 2", retried)
	}
}

func TestRetry_NonRetryablePassesThrough(t *testing.T) {
	calls := 0
	bad := &ai.APIError{Provider: "openai", StatusCode: http.StatusBadRequest, Message: "invalid tool schema"}
	send := NewRetryMiddleware(fastRetry(3))(scripted(&calls, bad))

	_, err := send(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, bad) || errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("error = %v, want the 400 unchanged", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	unavailable := &ai.APIError{Provider: "openai", StatusCode: http.StatusServiceUnavailable}
	send := NewRetryMiddleware(fastRetry(2))(scripted(&calls, unavailable, unavailable, unavailable, unavailable))

	_, err := send(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("error = %v, want ErrRetryExhausted", err)
	}
	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("last error not preserved: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := RetryConfig{MaxRetries: 5, InitialBackoff: time.Hour, MaxJitter: time.Millisecond}
	cfg.OnRetry = func(uint, error) { cancel() }
	send := NewRetryMiddleware(cfg)(scripted(&calls,
		&ai.APIError{StatusCode: http.StatusTooManyRequests},
		&ai.APIError{StatusCode: http.StatusTooManyRequests},
	))

	_, err := send(ctx, ai.ChatRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("429"), false},
		{&ai.APIError{StatusCode: 429}, true},
		{&ai.APIError{StatusCode: 500}, true},
		{&ai.APIError{StatusCode: 529}, true},
		{&ai.APIError{StatusCode: 401}, false},
		{errors.Join(errors.New("wrapped"), &ai.APIError{StatusCode: 503}), true},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
