package instrument

import (
	"context"
	"fmt"

	"github.com/vango-dev/observable/pkg/observable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for observable spans.
const defaultTracerName = "observable"

// TracingConfig configures the OpenTelemetry spy.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "observable").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// IncludeValues records old and new values as span attributes.
	// Values may contain sensitive information - disabled by default.
	IncludeValues bool

	// Filter determines which events to trace.
	// Return true to trace the event, false to skip.
	// If nil, all events are traced.
	Filter func(ev observable.SpyEvent) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(ev observable.SpyEvent) []attribute.KeyValue
}

// TracingOption configures the OpenTelemetry spy.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeValues enables recording cell values on spans.
func WithIncludeValues(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeValues = include
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(ev observable.SpyEvent) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ev observable.SpyEvent) []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = extractor
	}
}

// TracingSpy turns spy events into OpenTelemetry spans.
type TracingSpy struct {
	config TracingConfig
	tracer trace.Tracer

	// stack holds the open spans, innermost last. Entries for filtered
	// events have a nil span so starts and ends stay paired.
	stack []openSpan
}

type openSpan struct {
	ctx  context.Context
	span trace.Span
}

// Tracing creates a spy that traces cell activity.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	ctx := observable.NewContext(observable.WithSpy(
//	    instrument.Tracing(instrument.WithTracerProvider(tp)),
//	))
func Tracing(opts ...TracingOption) *TracingSpy {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}

	return &TracingSpy{
		config: config,
		tracer: config.TracerProvider.Tracer(config.TracerName),
	}
}

// TraceContext returns the context of the innermost open span, for
// propagating the trace to calls made while a cell is updating.
func (s *TracingSpy) TraceContext() context.Context {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].span != nil {
			return s.stack[i].ctx
		}
	}
	return context.Background()
}

// Report records a create event on the innermost open span, or as a span of
// its own when none is open.
func (s *TracingSpy) Report(ev observable.SpyEvent) {
	if !s.traced(ev) {
		return
	}
	attrs := s.attributes(ev)

	parent := s.TraceContext()
	if span := trace.SpanFromContext(parent); span.IsRecording() {
		span.AddEvent(spanName(ev), trace.WithAttributes(attrs...))
		return
	}
	_, span := s.tracer.Start(parent, spanName(ev),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	span.End()
}

// ReportStart opens a span as a child of the innermost open span.
func (s *TracingSpy) ReportStart(ev observable.SpyEvent) {
	if !s.traced(ev) {
		s.stack = append(s.stack, openSpan{})
		return
	}

	ctx, span := s.tracer.Start(s.TraceContext(), spanName(ev),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(s.attributes(ev)...),
	)
	s.stack = append(s.stack, openSpan{ctx: ctx, span: span})
}

// ReportEnd closes the innermost open span.
func (s *TracingSpy) ReportEnd(observable.SpyEvent) {
	n := len(s.stack)
	if n == 0 {
		return
	}
	top := s.stack[n-1]
	s.stack = s.stack[:n-1]
	if top.span == nil {
		return
	}
	top.span.SetStatus(codes.Ok, "")
	top.span.End()
}

func (s *TracingSpy) traced(ev observable.SpyEvent) bool {
	return s.config.Filter == nil || s.config.Filter(ev)
}

func (s *TracingSpy) attributes(ev observable.SpyEvent) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("observable.type", ev.Type),
		attribute.String("observable.name", ev.Name),
	}
	if s.config.IncludeValues {
		if ev.NewValue != nil {
			attrs = append(attrs, attribute.String("observable.new_value", fmt.Sprint(ev.NewValue)))
		}
		if ev.OldValue != nil {
			attrs = append(attrs, attribute.String("observable.old_value", fmt.Sprint(ev.OldValue)))
		}
	}
	if s.config.AttributeExtractor != nil {
		attrs = append(attrs, s.config.AttributeExtractor(ev)...)
	}
	return attrs
}

func spanName(ev observable.SpyEvent) string {
	return fmt.Sprintf("observable.%s %s", ev.Type, ev.Name)
}
