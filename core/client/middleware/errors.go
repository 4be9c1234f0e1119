package middleware

import "errors"

// ErrRetryExhausted wraps the last provider error once the retry middleware
// has used its budget on retryable failures.
var ErrRetryExhausted = errors.New("all retry attempts exhausted")
