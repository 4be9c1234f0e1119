package observability

import (
	"context"
	"errors"
	"testing"
)

type mockSpan struct {
	name string
}

func (m *mockSpan) End()                                          {}
func (m *mockSpan) SetAttributes(attrs ...Attribute)              {}
func (m *mockSpan) SetStatus(code StatusCode, description string) {}
func (m *mockSpan) RecordError(err error)                         {}
func (m *mockSpan) AddEvent(name string, attrs ...Attribute)      {}

type mockObserver struct {
	Provider
}

func TestSpanFromContext_Empty(t *testing.T) {
	if span := SpanFromContext(context.Background()); span != nil {
		t.Errorf("Expected nil span from empty context, got %v", span)
	}
}

func TestContextWithSpan_Overwrite(t *testing.T) {
	span1 := &mockSpan{name: "span-1"}
	span2 := &mockSpan{name: "span-2"}

	ctx := ContextWithSpan(context.Background(), span1)
	ctx = ContextWithSpan(ctx, span2)

	if span := SpanFromContext(ctx); span != span2 {
		t.Errorf("Expected span2, got %v", span)
	}
}

func TestObserverFromContext(t *testing.T) {
	if ObserverFromContext(context.Background()) != nil {
		t.Error("Expected nil observer from empty context")
	}

	observer := &mockObserver{}
	ctx := ContextWithObserver(context.Background(), observer)
	if got := ObserverFromContext(ctx); got != observer {
		t.Errorf("Expected stored observer, got %v", got)
	}

	// span and observer keys must not collide
	ctx = ContextWithSpan(ctx, &mockSpan{name: "s"})
	if got := ObserverFromContext(ctx); got != observer {
		t.Errorf("Observer lost after attaching a span, got %v", got)
	}
}

func TestAttribute_Error(t *testing.T) {
	attr := Error(errors.New("boom"))
	if attr.Key != AttrError || attr.Value != "boom" {
		t.Errorf("Error() = %+v", attr)
	}

	nilAttr := Error(nil)
	if nilAttr.Value != "" {
		t.Errorf("Error(nil) value = %v, want empty string", nilAttr.Value)
	}
}
