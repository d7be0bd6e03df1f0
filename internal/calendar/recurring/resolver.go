package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	calendar "google.golang.org/api/calendar/v3"

	cal "github.com/teemow/calslack/internal/calendar"
	"github.com/teemow/calslack/internal/logging"
)

// CalendarAPI is the calendar backend capability the Resolver needs.
// *calendar.Client implements it.
type CalendarAPI interface {
	EventGetter
	PatchEvent(ctx context.Context, calendarID, eventID string, patch *calendar.Event, opts cal.WriteOptions) (*calendar.Event, error)
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event, opts cal.WriteOptions) (*calendar.Event, error)
}

// UpdateRequest is a validated event update.
//
// Naive timestamps (Start, End and the scope's companion timestamp) are
// resolved in TimeZone, else in CalendarTimeZone, else in UTC.
type UpdateRequest struct {
	CalendarID string
	EventID    string
	Scope      Scope // nil means AllInstances

	Summary     string
	Description string
	Location    string
	ColorID     string
	Start       string
	End         string
	TimeZone    string
	Attendees   []*calendar.EventAttendee
	Reminders   *calendar.EventReminders
	Recurrence  []string

	// CalendarTimeZone is the calendar's configured default time zone.
	CalendarTimeZone string
	SendUpdates      string
}

// EffectiveTimeZone is the zone naive timestamps of the request resolve in.
// An empty result means UTC.
func (r *UpdateRequest) EffectiveTimeZone() string {
	if r.TimeZone != "" {
		return r.TimeZone
	}
	return r.CalendarTimeZone
}

func (r *UpdateRequest) scope() Scope {
	if r.Scope == nil {
		return AllInstances{}
	}
	return r.Scope
}

// SeriesSplit is the state between the two phases of a ThisAndFollowing update.
type SeriesSplit struct {
	CalendarID string
	MasterID   string
	// Until is the UNTIL value written to the master's rules.
	Until string
	// Truncated is the master event as returned by the truncating patch.
	Truncated *calendar.Event
	// Following is the event to insert as the new series.
	Following *calendar.Event

	opts cal.WriteOptions
}

// Resolver applies scoped updates to events through a CalendarAPI.
type Resolver struct {
	api    CalendarAPI
	logger *slog.Logger
}

// NewResolver creates a Resolver. The logger is expected to carry the event
// being updated (see logging.WithEvent); a nil logger uses slog.Default().
func NewResolver(api CalendarAPI, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{api: api, logger: logger}
}

// UpdateEvent applies req and returns the event produced by the effective
// write: the patched master, the patched occurrence, or the newly inserted
// series.
func (r *Resolver) UpdateEvent(ctx context.Context, req UpdateRequest) (*calendar.Event, error) {
	scope := req.scope()
	if err := CheckParameters(scope); err != nil {
		return nil, err
	}

	logger := r.logger.With(logging.Scope(scope.Name()))

	event, err := r.api.GetEvent(ctx, req.CalendarID, req.EventID)
	if err != nil {
		return nil, &UpstreamError{Op: "get event", Err: err}
	}
	eventType := ClassifyEvent(event)
	logger.Debug("classified event", slog.String("event_type", eventType.String()))
	if _, all := scope.(AllInstances); !all && eventType != RecurringEvent {
		return nil, &InvalidScopeError{Reason: ReasonNonRecurringScope, Scope: scope.Name()}
	}

	switch s := scope.(type) {
	case AllInstances:
		logger.Debug("patching master event")
		return r.patch(ctx, req.CalendarID, req.EventID, buildUpdateBody(&req), req.SendUpdates)

	case ThisEventOnly:
		instanceID, err := FormatInstanceID(req.EventID, s.OriginalStartTime, req.EffectiveTimeZone())
		if err != nil {
			return nil, err
		}
		logger.Debug("patching single instance", slog.String("instance_id", instanceID))
		return r.patch(ctx, req.CalendarID, instanceID, buildUpdateBody(&req), req.SendUpdates)

	case ThisAndFollowing:
		split, err := r.truncate(ctx, &req, s, event)
		if err != nil {
			return nil, err
		}
		created, err := r.CreateFollowingSeries(ctx, split)
		if err != nil {
			logger.Error("series truncated but following series not created",
				slog.String("until", split.Until), logging.Err(err))
			return nil, &PartialSplitError{Split: split, Err: err}
		}
		return created, nil

	default:
		return nil, &InvalidScopeError{Reason: ReasonInvalidScope, Scope: scope.Name()}
	}
}

// TruncateSeries is phase one of a ThisAndFollowing update for callers that
// drive the two phases themselves. It bounds the master's recurrence before
// the split point and prepares the following series. Everything that can fail
// locally is computed before the write. UpdateEvent does not call it; it
// truncates the event it already fetched.
func (r *Resolver) TruncateSeries(ctx context.Context, req UpdateRequest) (*SeriesSplit, error) {
	s, ok := req.scope().(ThisAndFollowing)
	if !ok {
		return nil, &InvalidScopeError{Reason: ReasonInvalidScope, Scope: req.scope().Name()}
	}
	if err := CheckParameters(s); err != nil {
		return nil, err
	}

	master, err := r.api.GetEvent(ctx, req.CalendarID, req.EventID)
	if err != nil {
		return nil, &UpstreamError{Op: "get event", Err: err}
	}
	return r.truncate(ctx, &req, s, master)
}

func (r *Resolver) truncate(ctx context.Context, req *UpdateRequest, s ThisAndFollowing, master *calendar.Event) (*SeriesSplit, error) {
	if len(master.Recurrence) == 0 {
		return nil, &NotRecurringError{EventID: req.EventID}
	}

	tz := req.EffectiveTimeZone()
	until, err := CalculateUntilDate(s.FutureStartDate, tz)
	if err != nil {
		return nil, err
	}
	truncatedRules := UpdateRecurrenceWithUntil(master.Recurrence, until)
	if err := ValidateRecurrence(truncatedRules); err != nil {
		return nil, fmt.Errorf("rewritten recurrence of %s is invalid: %w", req.EventID, err)
	}

	following, err := buildFollowingSeries(master, req, s.FutureStartDate, tz)
	if err != nil {
		return nil, err
	}

	opts := cal.WriteOptions{SendUpdates: req.SendUpdates}
	truncated, err := r.api.PatchEvent(ctx, req.CalendarID, req.EventID, &calendar.Event{Recurrence: truncatedRules}, opts)
	if err != nil {
		return nil, &UpstreamError{Op: "truncate recurring series", Err: err}
	}

	r.logger.Info("truncated recurring series", slog.String("until", until))

	return &SeriesSplit{
		CalendarID: req.CalendarID,
		MasterID:   req.EventID,
		Until:      until,
		Truncated:  truncated,
		Following:  following,
		opts:       opts,
	}, nil
}

// CreateFollowingSeries is phase two of a ThisAndFollowing update. It inserts
// the series prepared by TruncateSeries and may be retried with the same split.
func (r *Resolver) CreateFollowingSeries(ctx context.Context, split *SeriesSplit) (*calendar.Event, error) {
	if split == nil || split.Following == nil {
		return nil, errors.New("series split has no following series")
	}

	created, err := r.api.InsertEvent(ctx, split.CalendarID, split.Following, split.opts)
	if err != nil {
		return nil, &UpstreamError{Op: "create following series", Err: err}
	}

	r.logger.Info("created following series", logging.NewEventID(created.Id))
	return created, nil
}

func (r *Resolver) patch(ctx context.Context, calendarID, eventID string, body *calendar.Event, sendUpdates string) (*calendar.Event, error) {
	event, err := r.api.PatchEvent(ctx, calendarID, eventID, body, cal.WriteOptions{SendUpdates: sendUpdates})
	if err != nil {
		return nil, &UpstreamError{Op: "patch event", Err: err}
	}
	return event, nil
}

// buildUpdateBody collects the mutable fields present in req. Naive start and
// end timestamps get the effective time zone attached.
func buildUpdateBody(req *UpdateRequest) *calendar.Event {
	tz := req.EffectiveTimeZone()
	body := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		ColorId:     req.ColorID,
		Attendees:   req.Attendees,
		Reminders:   req.Reminders,
		Recurrence:  req.Recurrence,
	}
	if req.Start != "" {
		body.Start = cal.TimeObject(req.Start, tz)
	}
	if req.End != "" {
		body.End = cal.TimeObject(req.End, tz)
	}
	// An empty guest list removes all attendees.
	if req.Attendees != nil && len(req.Attendees) == 0 {
		body.ForceSendFields = append(body.ForceSendFields, "Attendees")
	}
	return body
}

func buildFollowingSeries(master *calendar.Event, req *UpdateRequest, futureStartDate, tz string) (*calendar.Event, error) {
	start := req.Start
	if start == "" {
		start = futureStartDate
	}

	end := req.End
	if end == "" {
		var err error
		if end, err = CalculateEndTime(start, master, tz); err != nil {
			return nil, fmt.Errorf("failed to derive end of following series: %w", err)
		}
	}

	following := CleanEventForDuplication(master)
	overlay(following, buildUpdateBody(req))
	following.Start = &calendar.EventDateTime{DateTime: start, TimeZone: tz}
	following.End = &calendar.EventDateTime{DateTime: end, TimeZone: tz}
	return following, nil
}

// overlay copies the fields set in src onto dst.
func overlay(dst, src *calendar.Event) {
	if src.Summary != "" {
		dst.Summary = src.Summary
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Location != "" {
		dst.Location = src.Location
	}
	if src.ColorId != "" {
		dst.ColorId = src.ColorId
	}
	if src.Attendees != nil {
		dst.Attendees = src.Attendees
	}
	if src.Reminders != nil {
		dst.Reminders = src.Reminders
	}
	if len(src.Recurrence) > 0 {
		dst.Recurrence = src.Recurrence
	}
	if src.Start != nil {
		dst.Start = src.Start
	}
	if src.End != nil {
		dst.End = src.End
	}
}
