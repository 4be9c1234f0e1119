// Package slogobs implements observability.Provider on top of log/slog.
//
// Spans and metric updates are emitted as debug records; counters and
// histograms are also kept in memory so that callers (and tests) can read
// them back with [Observer.CounterValue] and [Observer.HistogramCount].
// Output is either a compact single-line text format or JSON, selected with
// [WithFormat] or the FNCALL_LOG_FORMAT environment variable.
package slogobs
