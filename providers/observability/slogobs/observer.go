package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability"
)

// Observer implements observability.Provider with a *slog.Logger and an
// in-memory metric store.
type Observer struct {
	logger *slog.Logger

	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

var _ observability.Provider = (*Observer)(nil)

// New builds an Observer. Without options the format and level come from
// FNCALL_LOG_FORMAT and FNCALL_LOG_LEVEL and records go to stderr.
func New(opts ...Option) *Observer {
	cfg := applyOptions(opts...)

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(NewHandler(&HandlerOptions{
			Format: cfg.format,
			Level:  cfg.level,
			Output: cfg.output,
			Colors: cfg.colors,
		}))
	}
	return &Observer{
		logger:     logger,
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
}

// Logger returns the underlying logger.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

func toSlog(attrs []observability.Attribute, extra ...slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(extra)+len(attrs))
	out = append(out, extra...)
	for _, a := range attrs {
		out = append(out, slog.Any(a.Key, a.Value))
	}
	return out
}

// --- TRACING ---

// StartSpan logs the span start at debug level. The returned span logs its
// accumulated attributes and duration when ended. The span is attached to
// the returned context.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &span{
		ctx:    ctx,
		name:   name,
		start:  time.Now(),
		logger: o.logger,
		attrs:  append([]observability.Attribute(nil), attrs...),
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "span started",
		toSlog(attrs, slog.String("span", name))...)
	return observability.ContextWithSpan(ctx, s), s
}

type span struct {
	ctx    context.Context
	name   string
	start  time.Time
	logger *slog.Logger

	mu     sync.Mutex
	attrs  []observability.Attribute
	status observability.StatusCode
	desc   string
	ended  bool
}

func (s *span) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	attrs := append([]observability.Attribute(nil), s.attrs...)
	status, desc := s.status, s.desc
	s.mu.Unlock()

	extra := []slog.Attr{
		slog.String("span", s.name),
		slog.Duration(observability.AttrDuration, time.Since(s.start)),
		slog.String(observability.AttrStatus, statusName(status)),
	}
	if desc != "" {
		extra = append(extra, slog.String(observability.AttrStatus+".description", desc))
	}
	level := slog.LevelDebug
	if status == observability.StatusError {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(s.ctx, level, "span ended", toSlog(attrs, extra...)...)
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *span) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
	s.desc = description
}

func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.logger.LogAttrs(s.ctx, slog.LevelDebug, "span error",
		slog.String("span", s.name), slog.String(observability.AttrError, err.Error()))
}

func (s *span) AddEvent(name string, attrs ...observability.Attribute) {
	s.logger.LogAttrs(s.ctx, slog.LevelDebug, name, toSlog(attrs, slog.String("span", s.name))...)
}

func statusName(code observability.StatusCode) string {
	switch code {
	case observability.StatusOK:
		return "ok"
	case observability.StatusError:
		return "error"
	default:
		return "unset"
	}
}

// --- METRICS ---

// Counter returns the counter registered under name, creating it on first use.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.counters[name]
	if !ok {
		c = &counter{name: name, logger: o.logger}
		o.counters[name] = c
	}
	return c
}

// Histogram returns the histogram registered under name, creating it on
// first use.
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.histograms[name]
	if !ok {
		h = &histogram{name: name, logger: o.logger}
		o.histograms[name] = h
	}
	return h
}

// CounterValue returns the running total of the named counter, or 0.
func (o *Observer) CounterValue(name string) int64 {
	o.mu.Lock()
	c, ok := o.counters[name]
	o.mu.Unlock()
	if !ok {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// HistogramCount returns how many observations the named histogram holds.
func (o *Observer) HistogramCount(name string) int {
	o.mu.Lock()
	h, ok := o.histograms[name]
	o.mu.Unlock()
	if !ok {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

type counter struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	value  int64
}

func (c *counter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	total := c.value
	c.mu.Unlock()

	c.logger.LogAttrs(ctx, slog.LevelDebug, "counter",
		toSlog(attrs, slog.String("metric", c.name), slog.Int64("delta", value), slog.Int64("value", total))...)
}

type histogram struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	count  int
}

func (h *histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()

	h.logger.LogAttrs(ctx, slog.LevelDebug, "histogram",
		toSlog(attrs, slog.String("metric", h.name), slog.Float64("value", value))...)
}

// --- LOGGING ---

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
	o.logger.LogAttrs(ctx, level, msg, toSlog(attrs)...)
}
