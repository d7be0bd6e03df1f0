package calendar_tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/calslack/internal/calendar"
	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/logging"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/tools/common"
)

// listEventsConcurrency bounds the per-calendar fan-out of list-events.
const listEventsConcurrency = 5

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List events tool (read-only, always available)
	listEventsTool := mcp.NewTool("list-events",
		mcp.WithDescription("List events from one or more calendars."),
		accountOption(),
		calendarIDOption(`ID of the calendar(s) to list events from. Accepts either a single calendar ID string or a JSON array string of calendar IDs (e.g., '["cal1", "cal2"]'). Use 'primary' for the main calendar.`),
		dateTimeOption("timeMin", "Start of the time range", false),
		dateTimeOption("timeMax", "End of the time range", false),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone for naive timestamps (default: the calendar's time zone)"),
		),
	)
	s.AddTool(listEventsTool, instrumented("list-events", instrumentation.OperationList, sc, handleListEvents))

	// Search events tool (read-only, always available)
	searchEventsTool := mcp.NewTool("search-events",
		mcp.WithDescription("Search for events in a calendar by text query."),
		accountOption(),
		calendarIDOption("ID of the calendar to search events in (use 'primary' for the main calendar)"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free text search query (searches summary, description, location, attendees, etc.)"),
		),
		dateTimeOption("timeMin", "Start of the time range", true),
		dateTimeOption("timeMax", "End of the time range", true),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone for naive timestamps (default: the calendar's time zone)"),
		),
	)
	s.AddTool(searchEventsTool, instrumented("search-events", instrumentation.OperationSearch, sc, handleSearchEvents))

	if sc.ReadOnly() {
		return nil
	}

	createEventTool := mcp.NewTool("create-event",
		mcp.WithDescription("Create a new calendar event."),
		accountOption(),
		calendarIDOption("ID of the calendar to create the event in (use 'primary' for the main calendar)"),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Title of the event"),
		),
		mcp.WithString("description",
			mcp.Description("Description/notes for the event"),
		),
		dateTimeOption("start", "Event start time", true),
		dateTimeOption("end", "Event end time", true),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone of the event (default: the calendar's time zone)"),
		),
		mcp.WithString("location",
			mcp.Description("Location of the event"),
		),
		attendeesOption(),
		mcp.WithString("colorId",
			mcp.Description("Color ID for the event (use list-colors to see available IDs)"),
		),
		remindersOption(),
		recurrenceOption(),
	)
	s.AddTool(createEventTool, instrumented("create-event", instrumentation.OperationCreate, sc, handleCreateEvent))

	if err := registerUpdateEventTool(s, sc); err != nil {
		return err
	}

	deleteEventTool := mcp.NewTool("delete-event",
		mcp.WithDescription("Delete a calendar event."),
		accountOption(),
		calendarIDOption("ID of the calendar containing the event"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event to delete"),
		),
		sendUpdatesOption(),
	)
	s.AddTool(deleteEventTool, instrumented("delete-event", instrumentation.OperationDelete, sc, handleDeleteEvent))

	return nil
}

func attendeesOption() mcp.ToolOption {
	return mcp.WithArray("attendees",
		mcp.Description("List of event attendees"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"email":            map[string]any{"type": "string", "description": "Email address of the attendee"},
				"additionalGuests": map[string]any{"type": "integer", "description": "Number of additional guests"},
				"comment":          map[string]any{"type": "string", "description": "Attendee's response comment"},
				"displayName":      map[string]any{"type": "string", "description": "Attendee's name"},
				"id":               map[string]any{"type": "string", "description": "Profile ID of the attendee"},
				"optional":         map[string]any{"type": "boolean", "description": "Whether this is an optional attendee"},
				"resource":         map[string]any{"type": "boolean", "description": "Whether the attendee is a resource"},
				"responseStatus": map[string]any{
					"type": "string",
					"enum": responseStatuses,
				},
			},
			"required": []string{"email"},
		}),
	)
}

func remindersOption() mcp.ToolOption {
	return mcp.WithObject("reminders",
		mcp.Description("Reminder settings for the event"),
		mcp.Properties(map[string]any{
			"useDefault": map[string]any{"type": "boolean", "description": "Whether to use the default reminders"},
			"overrides": map[string]any{
				"type":        "array",
				"description": "Custom reminders",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"method":  map[string]any{"type": "string", "enum": reminderMethods, "default": "popup"},
						"minutes": map[string]any{"type": "integer", "description": "Minutes before the event"},
					},
					"required": []string{"minutes"},
				},
			},
		}),
	)
}

func recurrenceOption() mcp.ToolOption {
	return mcp.WithArray("recurrence",
		mcp.Description(`Recurrence rules in RFC 5545 format (e.g., ["RRULE:FREQ=WEEKLY;COUNT=5"])`),
		mcp.WithStringItems(),
	)
}

func sendUpdatesOption() mcp.ToolOption {
	return mcp.WithString("sendUpdates",
		mcp.Description("Whether to send notifications about the change (default: all)"),
		mcp.Enum(calendar.SendUpdatesAll, calendar.SendUpdatesExternalOnly, calendar.SendUpdatesNone),
	)
}

type calendarEvent struct {
	calendarID string
	event      *gcal.Event
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarIDs, err := parseCalendarIDs(args["calendarId"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMin, err := dateTimeArg(args, "timeMin", false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := dateTimeArg(args, "timeMax", false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeZone, err := timeZoneArg(args, "timeZone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	logger := logging.FromContext(ctx, sc.Logger())

	tz := resolveTimeZone(ctx, client, calendarIDs[0], timeZone, logger, timeMin, timeMax)
	opts := calendar.ListOptions{
		TimeMin:  toRFC3339(timeMin, tz),
		TimeMax:  toRFC3339(timeMax, tz),
		TimeZone: timeZone,
	}

	results := make([][]*gcal.Event, len(calendarIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listEventsConcurrency)
	for i, id := range calendarIDs {
		g.Go(func() error {
			events, err := client.ListEvents(gctx, id, opts)
			if err != nil {
				return fmt.Errorf("calendar %s: %w", id, err)
			}
			results[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return apiErrorResult("list events", err), nil
	}

	if len(calendarIDs) == 1 {
		return mcp.NewToolResultText(calendar.FormatEventList(results[0], calendarIDs[0])), nil
	}

	var merged []calendarEvent
	for i, events := range results {
		for _, ev := range events {
			merged = append(merged, calendarEvent{calendarID: calendarIDs[i], event: ev})
		}
	}
	sortByStart(merged)

	return mcp.NewToolResultText(formatMergedEvents(merged, len(calendarIDs))), nil
}

func handleSearchEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, err := requiredString(args, "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := requiredString(args, "query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMin, err := dateTimeArg(args, "timeMin", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := dateTimeArg(args, "timeMax", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeZone, err := timeZoneArg(args, "timeZone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	logger := logging.FromContext(ctx, sc.Logger())

	tz := resolveTimeZone(ctx, client, calendarID, timeZone, logger, timeMin, timeMax)
	events, err := client.ListEvents(ctx, calendarID, calendar.ListOptions{
		TimeMin:  toRFC3339(timeMin, tz),
		TimeMax:  toRFC3339(timeMax, tz),
		Query:    query,
		TimeZone: timeZone,
	})
	if err != nil {
		return apiErrorResult("search events", err), nil
	}

	return mcp.NewToolResultText(calendar.FormatEventList(events, calendarID)), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, err := requiredString(args, "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary, err := requiredString(args, "summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := dateTimeArg(args, "start", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := dateTimeArg(args, "end", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeZone, err := timeZoneArg(args, "timeZone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	attendees, err := parseAttendees(args["attendees"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reminders, err := parseReminders(args["reminders"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recurrence, err := parseRecurrence(args["recurrence"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tz := timeZone
	// Recurring events need an explicit zone to expand occurrences.
	if tz == "" && (!calendar.HasTimezone(start) || !calendar.HasTimezone(end) || len(recurrence) > 0) {
		tz, err = client.CalendarTimeZone(ctx, calendarID)
		if err != nil {
			return apiErrorResult("get calendar time zone", err), nil
		}
	}

	event := &gcal.Event{
		Summary:     summary,
		Description: common.StringArg(args, "description"),
		Location:    common.StringArg(args, "location"),
		ColorId:     common.StringArg(args, "colorId"),
		Start:       calendar.TimeObject(start, tz),
		End:         calendar.TimeObject(end, tz),
		Attendees:   attendees,
		Reminders:   reminders,
		Recurrence:  recurrence,
	}
	if len(recurrence) > 0 && tz != "" {
		event.Start.TimeZone = tz
		event.End.TimeZone = tz
	}

	created, err := client.InsertEvent(ctx, calendarID, event, calendar.WriteOptions{})
	if err != nil {
		return apiErrorResult("create event", err), nil
	}

	logging.FromContext(ctx, sc.Logger()).Info("created event",
		logging.CalendarID(calendarID), logging.EventID(created.Id))

	return mcp.NewToolResultText("Event created successfully!\n\n" + calendar.FormatEventWithDetails(created, calendarID)), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, err := requiredString(args, "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	eventID, err := requiredString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sendUpdates, err := calendar.ValidateSendUpdates(common.StringArg(args, "sendUpdates"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.DeleteEvent(ctx, calendarID, eventID, calendar.WriteOptions{SendUpdates: sendUpdates}); err != nil {
		return apiErrorResult("delete event", err), nil
	}

	logging.FromContext(ctx, sc.Logger()).Info("deleted event",
		logging.CalendarID(calendarID), logging.EventID(eventID))

	return mcp.NewToolResultText("Event deleted successfully"), nil
}

// resolveTimeZone returns the zone naive timestamps are read in: the request
// zone, else the calendar's zone. The calendar is only asked when one of the
// timestamps is naive; a failed lookup falls back to UTC.
func resolveTimeZone(ctx context.Context, client *calendar.Client, calendarID, requested string, logger *slog.Logger, timestamps ...string) string {
	if requested != "" {
		return requested
	}
	naive := false
	for _, ts := range timestamps {
		if ts != "" && !calendar.HasTimezone(ts) {
			naive = true
			break
		}
	}
	if !naive {
		return ""
	}
	tz, err := client.CalendarTimeZone(ctx, calendarID)
	if err != nil {
		logger.Warn("failed to get calendar time zone, using UTC",
			logging.CalendarID(calendarID), logging.Err(err))
		return ""
	}
	return tz
}

func toRFC3339(dt, tz string) string {
	if dt == "" {
		return ""
	}
	return calendar.ToRFC3339(dt, tz)
}

// sortByStart orders events by start instant. Events without a parsable
// start sort last.
func sortByStart(events []calendarEvent) {
	starts := make(map[*gcal.Event]int64, len(events))
	for _, e := range events {
		start, _, err := calendar.EventTimeBounds(e.event)
		if err != nil {
			starts[e.event] = 1<<63 - 1
			continue
		}
		starts[e.event] = start.UnixNano()
	}
	sort.SliceStable(events, func(i, j int) bool {
		return starts[events[i].event] < starts[events[j].event]
	})
}

func formatMergedEvents(events []calendarEvent, calendars int) string {
	if len(events) == 0 {
		return "No events found."
	}
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = calendar.FormatEventWithDetails(e.event, e.calendarID) + "\nCalendar: " + e.calendarID
	}
	return fmt.Sprintf("Found %d event(s) across %d calendars:\n\n%s", len(events), calendars, strings.Join(parts, "\n\n"))
}
