package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calslack/internal/calendar"
	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/tools/common"
)

const (
	maxGroupExpansion    = 100
	maxCalendarExpansion = 50
	freeBusyWindowMonths = 3
)

// RegisterSchedulingTools registers scheduling and availability tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Query free/busy tool
	freeBusyTool := mcp.NewTool("get-freebusy",
		mcp.WithDescription("Query free/busy information for calendars. Note: Time range is limited to a maximum of 3 months between timeMin and timeMax."),
		accountOption(),
		dateTimeOption("timeMin", "Start of the interval", true),
		dateTimeOption("timeMax", "End of the interval", true),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone for naive timestamps and the response (default: UTC)"),
		),
		mcp.WithNumber("groupExpansionMax",
			mcp.Description("Maximum number of calendar identifiers to be provided for a single group (max 100)"),
		),
		mcp.WithNumber("calendarExpansionMax",
			mcp.Description("Maximum number of calendars for which FreeBusy information is to be provided (max 50)"),
		),
		mcp.WithArray("items",
			mcp.Required(),
			mcp.Description("List of calendar or group identifiers to check for availability"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string", "description": "The identifier of a calendar or group, e.g. an email address"},
				},
				"required": []string{"id"},
			}),
		),
	)

	s.AddTool(freeBusyTool, instrumented("get-freebusy", instrumentation.OperationQuery, sc, handleGetFreeBusy))

	// Current time tool; no upstream call
	currentTimeTool := mcp.NewTool("get-current-time",
		mcp.WithDescription("Get current system time and timezone information."),
		mcp.WithString("timeZone",
			mcp.Description("Optional IANA time zone to show the current time in (e.g. 'America/Los_Angeles')"),
		),
	)

	s.AddTool(currentTimeTool, common.InstrumentedToolHandler("get-current-time", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetCurrentTime(ctx, request, sc)
		}))

	return nil
}

func handleGetFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	timeMinStr, err := dateTimeArg(args, "timeMin", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMaxStr, err := dateTimeArg(args, "timeMax", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeZone, err := timeZoneArg(args, "timeZone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := parseFreeBusyItems(args["items"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	groupExpansionMax, _, err := common.IntArg(args, "groupExpansionMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if groupExpansionMax < 0 || groupExpansionMax > maxGroupExpansion {
		return mcp.NewToolResultError(fmt.Sprintf("groupExpansionMax must be between 0 and %d", maxGroupExpansion)), nil
	}
	calendarExpansionMax, _, err := common.IntArg(args, "calendarExpansionMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if calendarExpansionMax < 0 || calendarExpansionMax > maxCalendarExpansion {
		return mcp.NewToolResultError(fmt.Sprintf("calendarExpansionMax must be between 0 and %d", maxCalendarExpansion)), nil
	}

	timeMin, err := calendar.ParseDateTime(timeMinStr, timeZone)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMin: %v", err)), nil
	}
	timeMax, err := calendar.ParseDateTime(timeMaxStr, timeZone)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMax: %v", err)), nil
	}
	if !timeMax.After(timeMin) {
		return mcp.NewToolResultError("timeMax must be after timeMin"), nil
	}
	if timeMax.After(timeMin.AddDate(0, freeBusyWindowMonths, 0)) {
		return mcp.NewToolResultError("The time gap between timeMin and timeMax must be 3 months or less"), nil
	}

	client, err := getCalendarClient(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos, err := client.QueryFreeBusy(ctx, calendar.FreeBusyQuery{
		Items:                items,
		TimeMin:              timeMin.Format(time.RFC3339),
		TimeMax:              timeMax.Format(time.RFC3339),
		TimeZone:             timeZone,
		GroupExpansionMax:    int64(groupExpansionMax),
		CalendarExpansionMax: int64(calendarExpansionMax),
	})
	if err != nil {
		return apiErrorResult("query free/busy", err), nil
	}

	loc, _ := calendar.LoadLocation(timeZone)
	return mcp.NewToolResultText(formatFreeBusy(infos, timeMin, timeMax, loc)), nil
}

func parseFreeBusyItems(raw interface{}) ([]string, error) {
	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("items must contain at least one calendar or group")
	}
	ids := make([]string, 0, len(list))
	for i, item := range list {
		var id string
		switch v := item.(type) {
		case map[string]interface{}:
			id = common.StringArg(v, "id")
		case string:
			id = v
		}
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("items[%d].id is required", i)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatFreeBusy(infos []calendar.FreeBusyInfo, timeMin, timeMax time.Time, loc *time.Location) string {
	const layout = "2006-01-02 15:04 MST"

	var result strings.Builder
	fmt.Fprintf(&result, "Free/Busy information from %s to %s for %d calendar(s):\n\n",
		timeMin.In(loc).Format(layout), timeMax.In(loc).Format(layout), len(infos))
	for _, info := range infos {
		fmt.Fprintf(&result, "Calendar: %s\n", info.Calendar)

		if len(info.Errors) > 0 {
			fmt.Fprintf(&result, "  Errors: %s\n", strings.Join(info.Errors, ", "))
		}

		if len(info.Busy) == 0 {
			result.WriteString("  Status: FREE for entire range\n")
		} else {
			fmt.Fprintf(&result, "  Busy periods: %d\n", len(info.Busy))
			for i, busy := range info.Busy {
				fmt.Fprintf(&result, "  %d. %s to %s\n", i+1,
					busy.Start.In(loc).Format(layout),
					busy.End.In(loc).Format(layout))
			}
		}
		result.WriteString("\n")
	}
	return result.String()
}

type currentTime struct {
	UTC               string    `json:"utc"`
	Timestamp         int64     `json:"timestamp"`
	SystemTimeZone    zoneTime  `json:"systemTimeZone"`
	RequestedTimeZone *zoneTime `json:"requestedTimeZone,omitempty"`
}

type zoneTime struct {
	TimeZone string `json:"timeZone"`
	Offset   string `json:"offset"`
	Local    string `json:"localTime"`
}

func newZoneTime(now time.Time, loc *time.Location) zoneTime {
	t := now.In(loc)
	return zoneTime{
		TimeZone: loc.String(),
		Offset:   t.Format("-07:00"),
		Local:    t.Format(time.RFC3339),
	}
}

func handleGetCurrentTime(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	timeZone, err := timeZoneArg(args, "timeZone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	now := sc.Clock().Now()
	result := currentTime{
		UTC:            now.UTC().Format(time.RFC3339),
		Timestamp:      now.UnixMilli(),
		SystemTimeZone: newZoneTime(now, time.Local),
	}
	if timeZone != "" {
		loc, _ := calendar.LoadLocation(timeZone)
		zt := newZoneTime(now, loc)
		result.RequestedTimeZone = &zt
	}

	data, err := json.MarshalIndent(map[string]currentTime{"currentTime": result}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode current time: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
