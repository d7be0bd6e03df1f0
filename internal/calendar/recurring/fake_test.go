package recurring

import (
	"context"
	"fmt"

	calendar "google.golang.org/api/calendar/v3"

	cal "github.com/teemow/calslack/internal/calendar"
)

type apiCall struct {
	Method  string
	EventID string
	Body    *calendar.Event
	Opts    cal.WriteOptions
}

// fakeCalendarAPI is an in-memory CalendarAPI that records every call.
type fakeCalendarAPI struct {
	events    map[string]*calendar.Event
	calls     []apiCall
	patchErr  error
	insertErr error
	nextID    int
}

func newFakeCalendarAPI(events ...*calendar.Event) *fakeCalendarAPI {
	f := &fakeCalendarAPI{events: map[string]*calendar.Event{}}
	for _, ev := range events {
		f.events[ev.Id] = ev
	}
	return f
}

func (f *fakeCalendarAPI) GetEvent(_ context.Context, _, eventID string) (*calendar.Event, error) {
	f.calls = append(f.calls, apiCall{Method: "get", EventID: eventID})
	ev, ok := f.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s not found", eventID)
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeCalendarAPI) PatchEvent(_ context.Context, _, eventID string, patch *calendar.Event, opts cal.WriteOptions) (*calendar.Event, error) {
	f.calls = append(f.calls, apiCall{Method: "patch", EventID: eventID, Body: patch, Opts: opts})
	if f.patchErr != nil {
		return nil, f.patchErr
	}

	ev, ok := f.events[eventID]
	if !ok {
		// Instances are materialized on first write.
		ev = &calendar.Event{Id: eventID}
		f.events[eventID] = ev
	}
	overlay(ev, patch)
	cp := *ev
	return &cp, nil
}

func (f *fakeCalendarAPI) InsertEvent(_ context.Context, _ string, event *calendar.Event, opts cal.WriteOptions) (*calendar.Event, error) {
	f.calls = append(f.calls, apiCall{Method: "insert", Body: event, Opts: opts})
	if f.insertErr != nil {
		return nil, f.insertErr
	}

	f.nextID++
	cp := *event
	cp.Id = fmt.Sprintf("new%d", f.nextID)
	f.events[cp.Id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeCalendarAPI) writes() []apiCall {
	var out []apiCall
	for _, c := range f.calls {
		if c.Method != "get" {
			out = append(out, c)
		}
	}
	return out
}
