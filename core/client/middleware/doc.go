// Package middleware provides the built-in [client.Middleware] values.
//
//   - [NewRetryMiddleware] retries transient provider failures (HTTP 429 and
//     5xx) with jittered exponential backoff.
//   - [NewTimeoutMiddleware] bounds each send with a deadline.
//   - [NewLoggingMiddleware] logs every send with log/slog at one of three
//     verbosity levels.
//
// Middlewares run outermost-first:
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(30*time.Second),
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 2}),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// A request travels Timeout, Retry, Logging, provider; the response comes
// back in reverse. Retries of the extraction controller sit above all of
// these and are unrelated: they re-prompt the model after a parse or
// validation failure, while the retry middleware repeats the same request
// after a transport failure.
package middleware
