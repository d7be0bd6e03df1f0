package calendar_tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calslack/internal/calendar"
	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/server"
)

// RegisterCalendarListTools registers list-calendars and list-colors.
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	s.AddTool(mcp.NewTool("list-calendars",
		mcp.WithDescription("List the calendars of the account with their IDs, access role and time zone. Use the IDs as calendarId in other tools."),
		accountOption(),
	), instrumented("list-calendars", instrumentation.OperationList, sc, handleListCalendars))

	s.AddTool(mcp.NewTool("list-colors",
		mcp.WithDescription("List the event color IDs accepted by colorId with their background and foreground colors"),
		accountOption(),
	), instrumented("list-colors", instrumentation.OperationGet, sc, handleListColors))

	return nil
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, err := getCalendarClient(ctx, request.GetArguments(), sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return apiErrorResult("list calendars", err), nil
	}

	// Primary calendar first, the rest in the order Google returns them.
	slices.SortStableFunc(calendars, func(a, b calendar.CalendarInfo) int {
		switch {
		case a.Primary == b.Primary:
			return 0
		case a.Primary:
			return -1
		default:
			return 1
		}
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d calendar(s):\n", len(calendars))
	for _, cal := range calendars {
		name := cal.Summary
		if name == "" {
			name = "(untitled)"
		}
		if cal.Primary {
			name += " (primary)"
		}
		fmt.Fprintf(&sb, "\n- %s\n  ID: %s\n  Access: %s\n", name, cal.ID, cal.AccessRole)
		if cal.TimeZone != "" {
			fmt.Fprintf(&sb, "  Time zone: %s\n", cal.TimeZone)
		}
		if cal.Description != "" {
			fmt.Fprintf(&sb, "  Description: %s\n", cal.Description)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func handleListColors(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, err := getCalendarClient(ctx, request.GetArguments(), sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	colors, err := client.EventColors(ctx)
	if err != nil {
		return apiErrorResult("list colors", err), nil
	}

	var sb strings.Builder
	sb.WriteString("Event colors (colorId: background / foreground):\n")
	for _, c := range colors {
		fmt.Fprintf(&sb, "%s: %s / %s\n", c.ID, c.Background, c.Foreground)
	}

	return mcp.NewToolResultText(sb.String()), nil
}
