// Package otelobs implements observability.Provider on OpenTelemetry.
//
// Spans map onto an otel trace.Tracer, counters and histograms onto
// instruments of a metric.Meter (created lazily and cached by name), and log
// calls go to a *slog.Logger and, when a recording span is active in the
// context, are mirrored as span events.
package otelobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability"
)

const instrumentationName = "github.com/Roudranil/function-calling-with-openai-and-oss-llm"

// Option configures an Observer.
type Option func(*Observer)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Observer) {
		o.tracer = tp.Tracer(instrumentationName)
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *Observer) {
		o.meter = mp.Meter(instrumentationName)
	}
}

// WithLogger sets the logger used by the Logger methods.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Observer) {
		o.logger = logger
	}
}

// Observer is an observability.Provider backed by OpenTelemetry.
type Observer struct {
	tracer trace.Tracer
	meter  metric.Meter
	logger *slog.Logger

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

var _ observability.Provider = (*Observer)(nil)

// New returns an Observer using the global otel providers unless overridden.
func New(opts ...Option) *Observer {
	o := &Observer{
		tracer:     otel.Tracer(instrumentationName),
		meter:      otel.Meter(instrumentationName),
		logger:     slog.Default(),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StartSpan starts an otel span and attaches the wrapper to the context.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, s := o.tracer.Start(ctx, name, trace.WithAttributes(convert(attrs)...))
	wrapped := &span{span: s}
	return observability.ContextWithSpan(ctx, wrapped), wrapped
}

type span struct {
	span trace.Span
}

func (s *span) End() {
	s.span.End()
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.span.SetAttributes(convert(attrs)...)
}

func (s *span) SetStatus(code observability.StatusCode, description string) {
	switch code {
	case observability.StatusOK:
		s.span.SetStatus(codes.Ok, description)
	case observability.StatusError:
		s.span.SetStatus(codes.Error, description)
	default:
		s.span.SetStatus(codes.Unset, description)
	}
}

func (s *span) RecordError(err error) {
	if err != nil {
		s.span.RecordError(err)
	}
}

func (s *span) AddEvent(name string, attrs ...observability.Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(convert(attrs)...))
}

// Counter returns an Int64Counter instrument registered under name. If the
// meter rejects the name the returned counter is a no-op and the failure is
// logged once.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.counters[name]
	if !ok {
		var err error
		c, err = o.meter.Int64Counter(name)
		if err != nil {
			o.logger.Warn("otel counter unavailable", slog.String("metric", name), slog.String(observability.AttrError, err.Error()))
		}
		o.counters[name] = c
	}
	return counter{c}
}

// Histogram returns a Float64Histogram instrument registered under name.
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.histograms[name]
	if !ok {
		var err error
		h, err = o.meter.Float64Histogram(name)
		if err != nil {
			o.logger.Warn("otel histogram unavailable", slog.String("metric", name), slog.String(observability.AttrError, err.Error()))
		}
		o.histograms[name] = h
	}
	return histogram{h}
}

type counter struct{ c metric.Int64Counter }

func (c counter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	if c.c == nil {
		return
	}
	c.c.Add(ctx, value, metric.WithAttributes(convert(attrs)...))
}

type histogram struct{ h metric.Float64Histogram }

func (h histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	if h.h == nil {
		return
	}
	h.h.Record(ctx, value, metric.WithAttributes(convert(attrs)...))
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelInfo, msg, attrs)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelWarn, msg, attrs)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelError, msg, attrs)
}

func (o *Observer) log(ctx context.Context, level slog.Level, msg string, attrs []observability.Attribute) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s := trace.SpanFromContext(ctx); s.IsRecording() {
		kv := append(convert(attrs), attribute.String("log.severity", level.String()))
		s.AddEvent(msg, trace.WithAttributes(kv...))
	}
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		logAttrs = append(logAttrs, slog.Any(a.Key, a.Value))
	}
	o.logger.LogAttrs(ctx, level, msg, logAttrs...)
}

func convert(attrs []observability.Attribute) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, keyValue(a))
	}
	return out
}

func keyValue(a observability.Attribute) attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case []string:
		return attribute.StringSlice(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	case float64:
		return attribute.Float64(a.Key, v)
	case bool:
		return attribute.Bool(a.Key, v)
	case time.Duration:
		return attribute.String(a.Key, v.String())
	case fmt.Stringer:
		return attribute.String(a.Key, v.String())
	default:
		return attribute.String(a.Key, fmt.Sprint(v))
	}
}
