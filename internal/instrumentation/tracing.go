package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name used for all spans of this module.
const TracerName = "github.com/teemow/calslack"

// Span attribute keys.
const (
	SpanAttrTool      = "mcp.tool"
	SpanAttrService   = "upstream.service"
	SpanAttrOperation = "upstream.operation"
	SpanAttrAccount   = "mcp.account"
	SpanAttrReadOnly  = "mcp.read_only"
	// SpanAttrToolError marks a call that returned an error result rather
	// than a Go error.
	SpanAttrToolError = "mcp.tool_error"
)

// ToolCall identifies one MCP tool invocation for spans, metrics and the
// audit log.
type ToolCall struct {
	Tool string
	// Service is ServiceCalendar, ServiceSlack or empty for local tools.
	Service   string
	Operation string
	// Account is the Google account; Slack tools leave it empty.
	Account  string
	ReadOnly bool
}

func (c ToolCall) spanAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(SpanAttrTool, c.Tool),
		attribute.Bool(SpanAttrReadOnly, c.ReadOnly),
	}
	if c.Service != "" {
		attrs = append(attrs,
			attribute.String(SpanAttrService, c.Service),
			attribute.String(SpanAttrOperation, c.Operation))
	}
	if c.Account != "" {
		attrs = append(attrs, attribute.String(SpanAttrAccount, c.Account))
	}
	return attrs
}

// StartToolSpan starts the server span "tool.<name>" of a tool call.
func StartToolSpan(ctx context.Context, call ToolCall) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, "tool."+call.Tool,
		trace.WithAttributes(call.spanAttributes()...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartAPISpan starts the client span "<service>.<operation>" of an upstream call.
func StartAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	}, attrs...)

	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, service+"."+operation,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records err on the span and marks it failed.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds a named event to the span.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
