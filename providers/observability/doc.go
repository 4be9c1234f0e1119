// Package observability defines the interfaces and semantic conventions used
// for tracing, metrics collection and structured logging across the
// extraction stack.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics]
// and [Logger] into a single injectable dependency. An active [Provider] and
// [Span] travel through a [context.Context] via [ContextWithObserver] and
// [ContextWithSpan], and are retrieved with [ObserverFromContext] and
// [SpanFromContext].
//
// Two implementations ship with the module: slogobs, backed by log/slog with
// in-memory metrics, and otelobs, backed by OpenTelemetry.
package observability
