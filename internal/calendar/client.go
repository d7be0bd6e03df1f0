package calendar

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/calslack/internal/google"
	"github.com/teemow/calslack/internal/instrumentation"
)

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	account string // The account this client is associated with
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// NewClient creates a Calendar client for an account using credentials from tokenProvider.
func NewClient(ctx context.Context, account string, tokenProvider google.TokenProvider) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	ts, err := tokenProvider.TokenSource(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	// The service outlives the tool call that created it.
	httpClient := google.NewHTTPClient(context.WithoutCancel(ctx), ts)

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return NewClientWithService(svc, account), nil
}

// NewClientWithService wraps an existing Calendar service.
func NewClientWithService(svc *calendar.Service, account string) *Client {
	return &Client{svc: svc, account: account}
}

// eventSpan starts the client span of an Events call.
func (c *Client) eventSpan(ctx context.Context, operation, calendarID string) (context.Context, trace.Span) {
	return instrumentation.StartAPISpan(ctx, instrumentation.ServiceCalendar, operation,
		attribute.String("calendar.id", calendarID),
		attribute.String("google.account", c.account),
	)
}

// endSpan finishes span with the outcome of err.
func endSpan(span trace.Span, err error) {
	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	span.End()
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.Event, error) {
	ctx, span := c.eventSpan(ctx, "get", calendarID)
	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// PatchEvent applies a partial update to an event. Only fields set in patch are changed.
func (c *Client) PatchEvent(ctx context.Context, calendarID, eventID string, patch *calendar.Event, opts WriteOptions) (*calendar.Event, error) {
	ctx, span := c.eventSpan(ctx, "patch", calendarID)
	call := c.svc.Events.Patch(calendarID, eventID, patch).Context(ctx)
	if opts.SendUpdates != "" {
		call = call.SendUpdates(opts.SendUpdates)
	}
	event, err := call.Do()
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to patch event: %w", err)
	}
	return event, nil
}

// InsertEvent creates a new event
func (c *Client) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event, opts WriteOptions) (*calendar.Event, error) {
	ctx, span := c.eventSpan(ctx, "insert", calendarID)
	call := c.svc.Events.Insert(calendarID, event).Context(ctx)
	if opts.SendUpdates != "" {
		call = call.SendUpdates(opts.SendUpdates)
	}
	created, err := call.Do()
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return created, nil
}

// DeleteEvent deletes an event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string, opts WriteOptions) error {
	ctx, span := c.eventSpan(ctx, "delete", calendarID)
	call := c.svc.Events.Delete(calendarID, eventID).Context(ctx)
	if opts.SendUpdates != "" {
		call = call.SendUpdates(opts.SendUpdates)
	}
	err := call.Do()
	endSpan(span, err)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// ListEvents lists expanded event instances of a calendar in start order.
func (c *Client) ListEvents(ctx context.Context, calendarID string, opts ListOptions) ([]*calendar.Event, error) {
	call := c.svc.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime")

	if opts.TimeMin != "" {
		call = call.TimeMin(opts.TimeMin)
	}
	if opts.TimeMax != "" {
		call = call.TimeMax(opts.TimeMax)
	}
	if opts.Query != "" {
		call = call.Q(opts.Query)
	}
	if opts.TimeZone != "" {
		call = call.TimeZone(opts.TimeZone)
	}

	var events []*calendar.Event
	err := call.Pages(ctx, func(page *calendar.Events) error {
		events = append(events, page.Items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// ListCalendars lists all calendars the user has access to
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var calendars []CalendarInfo
	err := c.svc.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, entry := range page.Items {
			calendars = append(calendars, CalendarInfo{
				ID:          entry.Id,
				Summary:     entry.Summary,
				Description: entry.Description,
				TimeZone:    entry.TimeZone,
				Primary:     entry.Primary,
				AccessRole:  entry.AccessRole,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	return calendars, nil
}

// CalendarTimeZone returns the configured default time zone of a calendar.
func (c *Client) CalendarTimeZone(ctx context.Context, calendarID string) (string, error) {
	entry, err := c.svc.CalendarList.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get calendar: %w", err)
	}
	return entry.TimeZone, nil
}

// EventColors returns the event color palette ordered by numeric id.
func (c *Client) EventColors(ctx context.Context) ([]ColorDefinition, error) {
	colors, err := c.svc.Colors.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get colors: %w", err)
	}

	defs := make([]ColorDefinition, 0, len(colors.Event))
	for id, def := range colors.Event {
		defs = append(defs, ColorDefinition{ID: id, Background: def.Background, Foreground: def.Foreground})
	}
	sort.Slice(defs, func(i, j int) bool {
		a, errA := strconv.Atoi(defs[i].ID)
		b, errB := strconv.Atoi(defs[j].ID)
		if errA != nil || errB != nil {
			return defs[i].ID < defs[j].ID
		}
		return a < b
	})

	return defs, nil
}

// QueryFreeBusy queries free/busy information for calendars and groups
func (c *Client) QueryFreeBusy(ctx context.Context, q FreeBusyQuery) ([]FreeBusyInfo, error) {
	items := make([]*calendar.FreeBusyRequestItem, len(q.Items))
	for i, id := range q.Items {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	req := &calendar.FreeBusyRequest{
		TimeMin:              q.TimeMin,
		TimeMax:              q.TimeMax,
		TimeZone:             q.TimeZone,
		GroupExpansionMax:    q.GroupExpansionMax,
		CalendarExpansionMax: q.CalendarExpansionMax,
		Items:                items,
	}

	resp, err := c.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query free/busy: %w", err)
	}

	ids := append([]string(nil), q.Items...)
	// Calendars expanded from groups are not in Items.
	var expanded []string
	for id := range resp.Calendars {
		if !slices.Contains(q.Items, id) {
			expanded = append(expanded, id)
		}
	}
	sort.Strings(expanded)
	ids = append(ids, expanded...)

	var infos []FreeBusyInfo
	for _, id := range ids {
		cal, ok := resp.Calendars[id]
		if !ok {
			continue
		}
		infos = append(infos, toFreeBusyInfo(id, cal))
	}

	return infos, nil
}

func toFreeBusyInfo(id string, cal calendar.FreeBusyCalendar) FreeBusyInfo {
	info := FreeBusyInfo{Calendar: id}
	for _, period := range cal.Busy {
		start, errStart := time.Parse(time.RFC3339, period.Start)
		end, errEnd := time.Parse(time.RFC3339, period.End)
		if errStart != nil || errEnd != nil {
			continue
		}
		info.Busy = append(info.Busy, TimeRange{Start: start, End: end})
	}
	for _, e := range cal.Errors {
		info.Errors = append(info.Errors, e.Reason)
	}
	return info
}
