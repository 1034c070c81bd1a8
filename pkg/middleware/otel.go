package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/treepatch/pkg/applier"
	"github.com/vango-dev/treepatch/pkg/dom"
)

// Default tracer name for treepatch appliers.
const defaultTracerName = "treepatch"

// OTelConfig configures the OpenTelemetry decorator.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "treepatch").
	TracerName string

	// TracerProvider supplies the tracer. Default: otel.GetTracerProvider()
	TracerProvider trace.TracerProvider

	// Filter determines which operations to trace.
	// Return true to trace the operation. If nil, all operations are traced.
	Filter func(op string) bool

	// AttributeExtractor adds custom attributes to every span.
	AttributeExtractor func(op string) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry decorator.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithOpFilter sets a filter function for operations.
func WithOpFilter(filter func(op string) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(op string) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// TracedApplier starts one span per operation of the applier it wraps.
// Spans are children of the span in the context given to Trace.
type TracedApplier struct {
	next   applier.Applier
	ctx    context.Context
	config OTelConfig
}

var _ applier.Applier = (*TracedApplier)(nil)

// Trace wraps a with OpenTelemetry tracing. ctx carries the parent span,
// typically the one covering the request or batch being applied.
//
// Example:
//
//	ctx, span := tracer.Start(r.Context(), "apply batch")
//	defer span.End()
//	err := batch.ApplyTo(middleware.Trace(ctx, a))
func Trace(ctx context.Context, a applier.Applier, opts ...OTelOption) *TracedApplier {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	config.tracer = config.TracerProvider.Tracer(config.TracerName)

	if ctx == nil {
		ctx = context.Background()
	}
	return &TracedApplier{next: a, ctx: ctx, config: config}
}

// Unwrap returns the wrapped applier.
func (ta *TracedApplier) Unwrap() applier.Applier {
	return ta.next
}

func (ta *TracedApplier) Current() dom.Node { return ta.next.Current() }
func (ta *TracedApplier) Depth() int        { return ta.next.Depth() }

func (ta *TracedApplier) InsertTopDown(index int, node dom.Node) error {
	return ta.span(applier.OpInsertTopDown, func() error {
		return ta.next.InsertTopDown(index, node)
	}, attribute.Int("treepatch.index", index), nodeKind(node))
}

func (ta *TracedApplier) InsertBottomUp(index int, node dom.Node) error {
	return ta.span(applier.OpInsertBottomUp, func() error {
		return ta.next.InsertBottomUp(index, node)
	}, attribute.Int("treepatch.index", index), nodeKind(node))
}

func (ta *TracedApplier) Remove(index, count int) error {
	return ta.span(applier.OpRemove, func() error {
		return ta.next.Remove(index, count)
	}, attribute.Int("treepatch.index", index), attribute.Int("treepatch.count", count))
}

func (ta *TracedApplier) Move(from, to, count int) error {
	return ta.span(applier.OpMove, func() error {
		return ta.next.Move(from, to, count)
	},
		attribute.Int("treepatch.from", from),
		attribute.Int("treepatch.to", to),
		attribute.Int("treepatch.count", count),
	)
}

func (ta *TracedApplier) Down(node dom.Node) error {
	return ta.span(applier.OpDown, func() error {
		return ta.next.Down(node)
	}, nodeKind(node))
}

func (ta *TracedApplier) Up() error {
	return ta.span(applier.OpUp, ta.next.Up)
}

func (ta *TracedApplier) Clear() error {
	return ta.span(applier.OpClear, ta.next.Clear)
}

func (ta *TracedApplier) span(op string, fn func() error, attrs ...attribute.KeyValue) error {
	if ta.config.Filter != nil && !ta.config.Filter(op) {
		return fn()
	}

	attrs = append(attrs, attribute.String("treepatch.op", op))
	if ta.config.AttributeExtractor != nil {
		attrs = append(attrs, ta.config.AttributeExtractor(op)...)
	}

	_, span := ta.config.tracer.Start(
		ta.ctx,
		fmt.Sprintf("treepatch.%s", op),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	err := fn()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("treepatch.error_code", errorCode(err)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.Int("treepatch.depth", ta.next.Depth()))
	return err
}

func nodeKind(n dom.Node) attribute.KeyValue {
	if n == nil {
		return attribute.String("treepatch.node_kind", "nil")
	}
	return attribute.String("treepatch.node_kind", n.Kind().String())
}
