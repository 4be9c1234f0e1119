package otelobs

import (
	"context"
	"errors"
	"log/slog"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SDK wires an Observer to in-process SDK providers. Finished spans are
// written to the logger as they end; metrics are collected and logged once,
// on Shutdown. It suits one-shot commands that have no collector to export to.
type SDK struct {
	*Observer

	logger         *slog.Logger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	reader         *sdkmetric.ManualReader
}

// NewSDK builds the providers and an Observer on top of them.
func NewSDK(logger *slog.Logger) *SDK {
	if logger == nil {
		logger = slog.Default()
	}
	reader := sdkmetric.NewManualReader()
	s := &SDK{
		logger:         logger,
		tracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSyncer(&logExporter{logger: logger})),
		meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		reader:         reader,
	}
	s.Observer = New(
		WithTracerProvider(s.tracerProvider),
		WithMeterProvider(s.meterProvider),
		WithLogger(logger),
	)
	return s
}

// Shutdown logs the collected metrics and stops both providers.
func (s *SDK) Shutdown(ctx context.Context) error {
	var rm metricdata.ResourceMetrics
	collectErr := s.reader.Collect(ctx, &rm)
	if collectErr == nil {
		s.logMetrics(ctx, rm)
	}

	return errors.Join(
		collectErr,
		s.tracerProvider.Shutdown(ctx),
		s.meterProvider.Shutdown(ctx),
	)
}

func (s *SDK) logMetrics(ctx context.Context, rm metricdata.ResourceMetrics) {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				s.logger.InfoContext(ctx, "metric", slog.String("name", m.Name), slog.Int64("value", total))
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				s.logger.InfoContext(ctx, "metric",
					slog.String("name", m.Name),
					slog.Uint64("count", count),
					slog.Float64("sum", sum),
				)
			}
		}
	}
}

// logExporter writes finished spans to a logger.
type logExporter struct {
	logger *slog.Logger
}

func (e *logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		attrs := []slog.Attr{
			slog.String("span", span.Name()),
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.Duration("duration", span.EndTime().Sub(span.StartTime())),
			slog.String("status", span.Status().Code.String()),
			slog.Int("events", len(span.Events())),
		}
		for _, kv := range span.Attributes() {
			attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
		}
		if desc := span.Status().Description; desc != "" {
			attrs = append(attrs, slog.String("status.description", desc))
		}
		e.logger.LogAttrs(ctx, slog.LevelDebug, "span exported", attrs...)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error {
	return nil
}

var _ sdktrace.SpanExporter = (*logExporter)(nil)
