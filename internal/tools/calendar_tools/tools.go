package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calslack/internal/calendar"
	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/tools/common"
)

// RegisterCalendarTools registers all Calendar-related tools with the MCP server.
// Write tools are skipped when the server runs read-only.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}

	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	return nil
}

type handlerFunc func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error)

// instrumented wraps a Calendar API handler with tracing, metrics and audit logging.
func instrumented(name, operation string, sc *server.ServerContext, handler handlerFunc) common.ToolHandler {
	return common.InstrumentedToolHandlerWithService(name, instrumentation.ServiceCalendar, operation, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handler(ctx, request, sc)
		})
}

func accountOption() mcp.ToolOption {
	return mcp.WithString("account",
		mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
	)
}

func calendarIDOption(desc string) mcp.ToolOption {
	return mcp.WithString("calendarId",
		mcp.Required(),
		mcp.Description(desc),
	)
}

func dateTimeOption(name, desc string, required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{
		mcp.Description(desc + " (ISO 8601, e.g. '2026-01-01T00:00:00' or '2026-01-01T00:00:00-07:00')"),
	}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString(name, opts...)
}

// getCalendarClient resolves the account of the request and returns its client.
func getCalendarClient(ctx context.Context, args map[string]interface{}, sc *server.ServerContext) (*calendar.Client, error) {
	account := common.GetAccountFromArgs(args, sc.DefaultAccount())
	client, err := sc.CalendarClient(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client for account %s: %w", account, err)
	}
	return client, nil
}

// apiErrorResult renders a failed Calendar API call.
func apiErrorResult(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %s", action, calendar.APIErrorMessage(err)))
}
