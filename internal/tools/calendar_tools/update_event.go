package calendar_tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/calslack/internal/calendar"
	"github.com/teemow/calslack/internal/calendar/recurring"
	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/logging"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/tools/common"
)

// Retry policy for phase two of a series split. The first insert is made by
// the resolver, so splitRetryAttempts-1 attempts remain.
const splitRetryAttempts = 3

var (
	splitRetryInitialInterval = time.Second
	splitRetryMaxInterval     = 10 * time.Second
)

func registerUpdateEventTool(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	updateEventTool := mcp.NewTool("update-event",
		mcp.WithDescription("Update an existing calendar event with recurring event modification scope support."),
		accountOption(),
		calendarIDOption("ID of the calendar containing the event"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event to update"),
		),
		mcp.WithString("summary",
			mcp.Description("Updated title of the event"),
		),
		mcp.WithString("description",
			mcp.Description("Updated description/notes"),
		),
		dateTimeOption("start", "Updated start time", false),
		dateTimeOption("end", "Updated end time", false),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone for naive timestamps (default: the calendar's time zone)"),
		),
		mcp.WithString("location",
			mcp.Description("Updated location"),
		),
		attendeesOption(),
		mcp.WithString("colorId",
			mcp.Description("Updated color ID"),
		),
		remindersOption(),
		recurrenceOption(),
		sendUpdatesOption(),
		mcp.WithString("modificationScope",
			mcp.Description("Scope for recurring event modifications: 'thisEventOnly', 'all' (default) or 'thisAndFollowing'"),
			mcp.Enum(recurring.ScopeThisEventOnly, recurring.ScopeAll, recurring.ScopeThisAndFollowing),
		),
		dateTimeOption("originalStartTime", "Original start time of the instance to modify (required with 'thisEventOnly')", false),
		dateTimeOption("futureStartDate", "Start date for future instances (required with 'thisAndFollowing')", false),
	)

	s.AddTool(updateEventTool, instrumented("update-event", instrumentation.OperationUpdate, sc, handleUpdateEvent))

	return nil
}

// parseUpdateRequest validates the update-event arguments. It makes no
// backend calls; CalendarTimeZone is left for the caller to fill in.
func parseUpdateRequest(args map[string]interface{}) (recurring.UpdateRequest, error) {
	var req recurring.UpdateRequest
	var err error

	if req.CalendarID, err = requiredString(args, "calendarId"); err != nil {
		return req, err
	}
	if req.EventID, err = requiredString(args, "eventId"); err != nil {
		return req, err
	}
	if req.Start, err = dateTimeArg(args, "start", false); err != nil {
		return req, err
	}
	if req.End, err = dateTimeArg(args, "end", false); err != nil {
		return req, err
	}
	originalStartTime, err := dateTimeArg(args, "originalStartTime", false)
	if err != nil {
		return req, err
	}
	futureStartDate, err := dateTimeArg(args, "futureStartDate", false)
	if err != nil {
		return req, err
	}
	if req.TimeZone, err = timeZoneArg(args, "timeZone"); err != nil {
		return req, err
	}
	if req.SendUpdates, err = calendar.ValidateSendUpdates(common.StringArg(args, "sendUpdates")); err != nil {
		return req, err
	}

	if req.Scope, err = recurring.ParseScope(common.StringArg(args, "modificationScope"), originalStartTime, futureStartDate); err != nil {
		return req, err
	}
	if err := recurring.CheckParameters(req.Scope); err != nil {
		return req, err
	}

	if req.Attendees, err = parseAttendees(args["attendees"]); err != nil {
		return req, err
	}
	if req.Reminders, err = parseReminders(args["reminders"]); err != nil {
		return req, err
	}
	if req.Recurrence, err = parseRecurrence(args["recurrence"]); err != nil {
		return req, err
	}

	req.Summary = common.StringArg(args, "summary")
	req.Description = common.StringArg(args, "description")
	req.Location = common.StringArg(args, "location")
	req.ColorID = common.StringArg(args, "colorId")

	return req, nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req, err := parseUpdateRequest(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if req.TimeZone == "" {
		req.CalendarTimeZone, err = client.CalendarTimeZone(ctx, req.CalendarID)
		if err != nil {
			return apiErrorResult("get calendar time zone", err), nil
		}
	}
	futureStartDate := common.StringArg(args, "futureStartDate")
	if err := checkFutureStartDate(futureStartDate, req.EffectiveTimeZone(), sc.Clock().Now()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger := logging.WithEvent(logging.FromContext(ctx, sc.Logger()), req.CalendarID, req.EventID)
	resolver := recurring.NewResolver(client, logger)
	_, isSplit := req.Scope.(recurring.ThisAndFollowing)

	event, err := resolver.UpdateEvent(ctx, req)

	var partial *recurring.PartialSplitError
	if errors.As(err, &partial) {
		event, err = retryFollowingSeries(ctx, resolver, partial, logger)
		if err != nil {
			sc.Metrics().RecordSeriesSplit(ctx, instrumentation.SplitPartial)
			return mcp.NewToolResultError(partialSplitMessage(partial.Split, err)), nil
		}
		sc.Metrics().RecordSeriesSplit(ctx, instrumentation.SplitRecovered)
		return updatedResult(event, req.CalendarID), nil
	}
	if err != nil {
		if isSplit {
			sc.Metrics().RecordSeriesSplit(ctx, instrumentation.SplitFailed)
		}
		return mcp.NewToolResultError(updateErrorMessage(err)), nil
	}

	if isSplit {
		sc.Metrics().RecordSeriesSplit(ctx, instrumentation.SplitCompleted)
	}
	return updatedResult(event, req.CalendarID), nil
}

// checkFutureStartDate rejects a futureStartDate that is not after now. A
// naive value is read in tz, the zone the resolver splits the series in.
func checkFutureStartDate(futureStartDate, tz string, now time.Time) error {
	if futureStartDate == "" {
		return nil
	}
	split, err := calendar.ParseDateTime(futureStartDate, tz)
	if err != nil {
		return fmt.Errorf("Invalid futureStartDate: %v", err)
	}
	if !split.After(now) {
		return errors.New("futureStartDate must be in the future")
	}
	return nil
}

// retryFollowingSeries repeats phase two of a split while the failure is a
// transient upstream error.
func retryFollowingSeries(ctx context.Context, resolver *recurring.Resolver, partial *recurring.PartialSplitError, logger *slog.Logger) (*gcal.Event, error) {
	if !calendar.IsRetryable(partial.Err) {
		return nil, partial.Err
	}

	op := func() (*gcal.Event, error) {
		event, err := resolver.CreateFollowingSeries(ctx, partial.Split)
		if err != nil && !calendar.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return event, err
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     splitRetryInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         splitRetryMaxInterval,
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(splitRetryAttempts-1),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("retrying creation of following series",
				slog.String("until", partial.Split.Until),
				slog.Duration("backoff", next),
				logging.Err(err))
		}),
	)
}

func updatedResult(event *gcal.Event, calendarID string) *mcp.CallToolResult {
	return mcp.NewToolResultText("Event updated successfully!\n\n" + calendar.FormatEventWithDetails(event, calendarID))
}

func partialSplitMessage(split *recurring.SeriesSplit, err error) string {
	return fmt.Sprintf("Failed to update event: the recurring series %s was truncated with UNTIL=%s, "+
		"but the new series for the following occurrences could not be created: %s. "+
		"No replacement series exists; the following occurrences must be recreated manually.",
		split.MasterID, split.Until, calendar.APIErrorMessage(err))
}

func updateErrorMessage(err error) string {
	var upstream *recurring.UpstreamError
	if errors.As(err, &upstream) {
		return "Failed to update event: " + calendar.APIErrorMessage(upstream.Err)
	}
	return err.Error()
}
