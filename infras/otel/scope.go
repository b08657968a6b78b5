package otel

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type Scope interface {
	End()
	TraceError(err error)
	// TraceIfError takes a pointer so a deferred call sees the final error.
	TraceIfError(err *error)
	AddEvent(name string)
	SetAttribute(key string, value any)
	SetAttributes(attributes map[string]any)
	TraceID() string
}

type scopeImpl struct {
	span oteltrace.Span
}

func (s *scopeImpl) End() {
	s.span.End()
}

func (s *scopeImpl) TraceError(err error) {
	if err == nil {
		return
	}

	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *scopeImpl) TraceIfError(err *error) {
	if err != nil {
		s.TraceError(*err)
	}
}

func (s *scopeImpl) AddEvent(name string) {
	s.span.AddEvent(name)
}

// TraceID is empty when the span is not sampled.
func (s *scopeImpl) TraceID() string {
	spanContext := s.span.SpanContext()
	if !spanContext.HasTraceID() {
		return ""
	}

	return spanContext.TraceID().String()
}

func (s *scopeImpl) SetAttribute(key string, value any) {
	var kv attribute.KeyValue

	switch val := value.(type) {
	case bool:
		kv = attribute.Bool(key, val)
	case string:
		kv = attribute.String(key, val)
	case int:
		kv = attribute.Int(key, val)
	case int64:
		kv = attribute.Int64(key, val)
	case float64:
		kv = attribute.Float64(key, val)
	case []string:
		kv = attribute.StringSlice(key, val)
	case time.Time:
		kv = attribute.String(key, val.Format(time.RFC3339))
	case fmt.Stringer:
		kv = attribute.String(key, val.String())
	default:
		kv = attribute.String(key, fmt.Sprintf("%v", val))
	}

	s.span.SetAttributes(kv)
}

func (s *scopeImpl) SetAttributes(attributes map[string]any) {
	for key, value := range attributes {
		s.SetAttribute(key, value)
	}
}

func NewScope(span oteltrace.Span) Scope {
	return &scopeImpl{
		span: span,
	}
}
