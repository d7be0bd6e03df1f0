// Package instrumentation provides OpenTelemetry instrumentation for the
// calslack MCP server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Upstream API Metrics:
//   - upstream_api_operations_total: Counter of calendar and Slack API operations by service, operation, status
//   - upstream_api_operation_duration_seconds: Histogram of upstream API operation durations
//   - slack_api_retries_total: Counter of Slack calls retried after rate limiting or transport failures
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// Calendar Metrics:
//   - calendar_series_splits_total: Counter of recurring series splits by outcome
//     (completed, recovered, partial, failed)
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and upstream API
// calls (<service>.<operation>).
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordAPIOperation(ctx, instrumentation.ServiceCalendar, "list", "success", time.Since(start))
//	recorder.RecordToolInvocation(ctx, "list-events", "success", "default", time.Since(start))
package instrumentation
