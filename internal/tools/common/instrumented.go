package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit logging.
// It records tool invocation metrics and logs the invocation for audit purposes.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my-tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrument(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// records the upstream service and operation type for more detailed metrics.
//
// This handler records both:
// - MCP tool invocation metrics (mcp_tool_invocations_total, mcp_tool_duration_seconds)
// - upstream API operation metrics (upstream_api_operations_total, upstream_api_operation_duration_seconds)
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("list-events", "calendar", "list", sc, handler))
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrument(toolName, serviceName, operation, sc, handler)
}

func instrument(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		call := instrumentation.ToolCall{
			Tool:      toolName,
			Service:   serviceName,
			Operation: operation,
			ReadOnly:  sc.ReadOnly(),
		}
		if serviceName != instrumentation.ServiceSlack {
			call.Account = GetAccountFromArgs(request.GetArguments(), sc.DefaultAccount())
		}

		ctx, span := instrumentation.StartToolSpan(ctx, call)
		defer span.End()
		invocation := instrumentation.NewToolInvocation(ctx, call)

		result, err := handler(ctx, request)

		switch {
		case err != nil:
			instrumentation.SetSpanError(span, err)
			invocation.Finish(false, err.Error())
		case result != nil && result.IsError:
			span.SetAttributes(attribute.Bool(instrumentation.SpanAttrToolError, true))
			invocation.Finish(false, resultText(result))
		default:
			instrumentation.SetSpanSuccess(span)
			invocation.Finish(true, "")
		}

		metrics := sc.Metrics()
		metrics.RecordToolInvocation(ctx, toolName, invocation.Status(), call.Account, invocation.Duration)
		if serviceName != "" {
			metrics.RecordAPIOperation(ctx, serviceName, operation, invocation.Status(), invocation.Duration)
		}
		sc.AuditLogger().LogToolInvocation(ctx, invocation)

		return result, err
	}
}

// resultText returns the first text content of a result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
