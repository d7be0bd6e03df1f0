package recurring

import (
	"context"

	calendar "google.golang.org/api/calendar/v3"
)

// EventType classifies an event as a one-off or a recurring master.
type EventType int

const (
	SingleEvent EventType = iota
	RecurringEvent
)

func (t EventType) String() string {
	if t == RecurringEvent {
		return "recurring"
	}
	return "single"
}

// EventGetter fetches a single event.
type EventGetter interface {
	GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.Event, error)
}

// DetectEventType fetches the event and reports whether it carries recurrence rules.
func DetectEventType(ctx context.Context, api EventGetter, calendarID, eventID string) (EventType, error) {
	event, err := api.GetEvent(ctx, calendarID, eventID)
	if err != nil {
		return SingleEvent, &UpstreamError{Op: "get event", Err: err}
	}
	return ClassifyEvent(event), nil
}

// ClassifyEvent reports the type of an already fetched event.
func ClassifyEvent(event *calendar.Event) EventType {
	if event != nil && len(event.Recurrence) > 0 {
		return RecurringEvent
	}
	return SingleEvent
}
