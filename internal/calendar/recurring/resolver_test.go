package recurring

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/calslack/internal/logging"
)

func weeklyMaster() *calendar.Event {
	return &calendar.Event{
		Id:         "recurring123",
		Etag:       `"3181161784712000"`,
		ICalUID:    "recurring123@google.com",
		HtmlLink:   "https://www.google.com/calendar/event?eid=abc",
		Status:     "confirmed",
		Summary:    "Weekly sync",
		Location:   "Room 1",
		Start:      &calendar.EventDateTime{DateTime: "2024-06-03T10:00:00-07:00", TimeZone: "America/Los_Angeles"},
		End:        &calendar.EventDateTime{DateTime: "2024-06-03T11:00:00-07:00", TimeZone: "America/Los_Angeles"},
		Recurrence: []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=20"},
	}
}

func singleEvent() *calendar.Event {
	return &calendar.Event{
		Id:      "single1",
		Summary: "Lunch",
		Start:   &calendar.EventDateTime{DateTime: "2024-06-03T12:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2024-06-03T13:00:00Z"},
	}
}

func TestUpdateEvent_NonRecurringRejectsScopes(t *testing.T) {
	scopes := []Scope{
		ThisEventOnly{OriginalStartTime: "2024-06-03T12:00:00Z"},
		ThisAndFollowing{FutureStartDate: "2024-06-10T12:00:00Z"},
	}
	for _, scope := range scopes {
		t.Run(scope.Name(), func(t *testing.T) {
			api := newFakeCalendarAPI(singleEvent())
			r := NewResolver(api, nil)

			_, err := r.UpdateEvent(context.Background(), UpdateRequest{
				CalendarID: "primary",
				EventID:    "single1",
				Scope:      scope,
				Summary:    "Changed",
			})

			var scopeErr *InvalidScopeError
			require.ErrorAs(t, err, &scopeErr)
			assert.Equal(t, ReasonNonRecurringScope, scopeErr.Reason)
			assert.Empty(t, api.writes())
			assert.Equal(t, "Lunch", api.events["single1"].Summary)
		})
	}
}

func TestUpdateEvent_AllOnSingleEvent(t *testing.T) {
	api := newFakeCalendarAPI(singleEvent())
	r := NewResolver(api, nil)

	got, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "single1",
		Summary:    "Team lunch",
	})
	require.NoError(t, err)
	assert.Equal(t, "Team lunch", got.Summary)

	writes := api.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "patch", writes[0].Method)
	assert.Equal(t, "single1", writes[0].EventID)
}

func TestUpdateEvent_AllPatchesMaster(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	r := NewResolver(api, nil)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID:  "primary",
		EventID:     "recurring123",
		Scope:       AllInstances{},
		Location:    "Room 2",
		SendUpdates: "none",
	})
	require.NoError(t, err)

	writes := api.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "patch", writes[0].Method)
	assert.Equal(t, "recurring123", writes[0].EventID)
	assert.Equal(t, "Room 2", writes[0].Body.Location)
	assert.Equal(t, "none", writes[0].Opts.SendUpdates)
	assert.Nil(t, writes[0].Body.Recurrence)
}

func TestUpdateEvent_EmptyAttendeesAreSent(t *testing.T) {
	master := weeklyMaster()
	master.Attendees = []*calendar.EventAttendee{{Email: "guest@example.com"}}
	api := newFakeCalendarAPI(master)
	r := NewResolver(api, nil)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Attendees:  []*calendar.EventAttendee{},
	})
	require.NoError(t, err)

	writes := api.writes()
	require.Len(t, writes, 1)
	assert.Contains(t, writes[0].Body.ForceSendFields, "Attendees")
	data, err := writes[0].Body.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"attendees":[]}`, string(data))
}

func TestUpdateEvent_OmittedAttendeesAreNotSent(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	r := NewResolver(api, nil)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Summary:    "Renamed",
	})
	require.NoError(t, err)

	writes := api.writes()
	require.Len(t, writes, 1)
	assert.Empty(t, writes[0].Body.ForceSendFields)
}

func TestUpdateEvent_ThisEventOnlyTargetsInstance(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	r := NewResolver(api, nil)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Scope:      ThisEventOnly{OriginalStartTime: "2024-06-17T10:00:00-07:00"},
		Summary:    "Moved sync",
		Start:      "2024-06-17T14:00:00",
		End:        "2024-06-17T15:00:00",
		TimeZone:   "America/Los_Angeles",
	})
	require.NoError(t, err)

	writes := api.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "recurring123_20240617T170000Z", writes[0].EventID)
	assert.Equal(t, "Moved sync", writes[0].Body.Summary)
	require.NotNil(t, writes[0].Body.Start)
	assert.Equal(t, "America/Los_Angeles", writes[0].Body.Start.TimeZone)
	assert.Equal(t, "Weekly sync", api.events["recurring123"].Summary, "master must stay untouched")
}

func TestUpdateEvent_ThisEventOnlyNaiveOriginalStartUsesCalendarZone(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	r := NewResolver(api, nil)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID:       "primary",
		EventID:          "recurring123",
		Scope:            ThisEventOnly{OriginalStartTime: "2024-06-17T10:00:00"},
		Summary:          "Moved sync",
		CalendarTimeZone: "America/Los_Angeles",
	})
	require.NoError(t, err)

	writes := api.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "recurring123_20240617T170000Z", writes[0].EventID)
}

func TestUpdateEvent_ThisAndFollowingSplitsSeries(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	r := NewResolver(api, nil)

	created, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID:  "primary",
		EventID:     "recurring123",
		Scope:       ThisAndFollowing{FutureStartDate: "2024-06-20T10:00:00-07:00"},
		Summary:     "New sync",
		SendUpdates: "externalOnly",
	})
	require.NoError(t, err)

	require.Len(t, api.calls, 3, "get, patch, insert")
	assert.Equal(t, "get", api.calls[0].Method)

	writes := api.writes()
	require.Len(t, writes, 2)

	truncate := writes[0]
	assert.Equal(t, "patch", truncate.Method)
	assert.Equal(t, "recurring123", truncate.EventID)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20240619T170000Z"}, truncate.Body.Recurrence)
	assert.Equal(t, "externalOnly", truncate.Opts.SendUpdates)

	insert := writes[1]
	assert.Equal(t, "insert", insert.Method)
	assert.Equal(t, "externalOnly", insert.Opts.SendUpdates)
	body := insert.Body
	assert.Empty(t, body.Id)
	assert.Empty(t, body.Etag)
	assert.Empty(t, body.ICalUID)
	assert.Empty(t, body.HtmlLink)
	assert.Equal(t, "New sync", body.Summary)
	assert.Equal(t, "Room 1", body.Location)
	assert.Equal(t, "2024-06-20T10:00:00-07:00", body.Start.DateTime)
	assert.Equal(t, "2024-06-20T11:00:00-07:00", body.End.DateTime)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=20"}, body.Recurrence)

	assert.Equal(t, "new1", created.Id)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20240619T170000Z"}, api.events["recurring123"].Recurrence)
}

func TestUpdateEvent_ThisAndFollowingLogsEachEventOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.WithEvent(slog.New(slog.NewTextHandler(&buf, nil)), "primary", "recurring123")
	r := NewResolver(newFakeCalendarAPI(weeklyMaster()), logger)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Scope:      ThisAndFollowing{FutureStartDate: "2024-06-20T10:00:00-07:00"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, "calendar_id="), line)
		assert.Equal(t, 1, strings.Count(line, " event_id="), line)
		assert.Contains(t, line, "event_id=recurring123")
	}
	assert.Contains(t, lines[0], `msg="truncated recurring series"`)
	assert.Contains(t, lines[1], `msg="created following series"`)
	assert.Contains(t, lines[1], "new_event_id=new1")
}

func TestUpdateEvent_ThisAndFollowingUsesExplicitTimes(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	r := NewResolver(api, nil)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Scope:      ThisAndFollowing{FutureStartDate: "2024-06-20T10:00:00"},
		Start:      "2024-06-20T15:00:00",
		End:        "2024-06-20T16:30:00",
		TimeZone:   "America/Los_Angeles",
	})
	require.NoError(t, err)

	writes := api.writes()
	require.Len(t, writes, 2)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20240619T170000Z"}, writes[0].Body.Recurrence)
	assert.Equal(t, &calendar.EventDateTime{DateTime: "2024-06-20T15:00:00", TimeZone: "America/Los_Angeles"}, writes[1].Body.Start)
	assert.Equal(t, &calendar.EventDateTime{DateTime: "2024-06-20T16:30:00", TimeZone: "America/Los_Angeles"}, writes[1].Body.End)
}

func TestUpdateEvent_MissingCompanionParameter(t *testing.T) {
	tests := []struct {
		scope Scope
		param string
	}{
		{ThisEventOnly{}, "originalStartTime"},
		{ThisAndFollowing{}, "futureStartDate"},
	}
	for _, tt := range tests {
		t.Run(tt.scope.Name(), func(t *testing.T) {
			api := newFakeCalendarAPI(weeklyMaster())
			r := NewResolver(api, nil)

			_, err := r.UpdateEvent(context.Background(), UpdateRequest{
				CalendarID: "primary",
				EventID:    "recurring123",
				Scope:      tt.scope,
			})

			var missing *MissingParameterError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.param, missing.Parameter)
			assert.Empty(t, api.calls, "no backend call may happen")
		})
	}
}

func TestUpdateEvent_DetectFailure(t *testing.T) {
	api := newFakeCalendarAPI()
	r := NewResolver(api, nil)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{CalendarID: "primary", EventID: "missing"})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "get event", upstream.Op)
	assert.Empty(t, api.writes())
}

func TestUpdateEvent_TruncationFailureLeavesNoInsert(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	api.patchErr = errors.New("backend unavailable")
	r := NewResolver(api, nil)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Scope:      ThisAndFollowing{FutureStartDate: "2024-06-20T10:00:00-07:00"},
	})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "truncate recurring series", upstream.Op)
	for _, c := range api.writes() {
		assert.NotEqual(t, "insert", c.Method)
	}
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=20"}, api.events["recurring123"].Recurrence)
}

func TestUpdateEvent_PartialSplitCanBeRetried(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	api.insertErr = errors.New("quota exceeded")
	r := NewResolver(api, nil)

	_, err := r.UpdateEvent(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Scope:      ThisAndFollowing{FutureStartDate: "2024-06-20T10:00:00-07:00"},
	})

	var partial *PartialSplitError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "recurring123", partial.Split.MasterID)
	assert.Equal(t, "20240619T170000Z", partial.Split.Until)
	assert.Contains(t, err.Error(), "UNTIL=20240619T170000Z")
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20240619T170000Z"}, api.events["recurring123"].Recurrence)

	api.insertErr = nil
	created, err := r.CreateFollowingSeries(context.Background(), partial.Split)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-20T10:00:00-07:00", created.Start.DateTime)
}

func TestTruncateSeries_NotRecurring(t *testing.T) {
	api := newFakeCalendarAPI(singleEvent())
	r := NewResolver(api, nil)

	_, err := r.TruncateSeries(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "single1",
		Scope:      ThisAndFollowing{FutureStartDate: "2024-06-20T10:00:00Z"},
	})

	var notRecurring *NotRecurringError
	require.ErrorAs(t, err, &notRecurring)
	assert.Equal(t, "single1", notRecurring.EventID)
	assert.Empty(t, api.writes())
}

func TestTruncateSeries_InvalidFutureDateMakesNoWrites(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	r := NewResolver(api, nil)

	_, err := r.TruncateSeries(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Scope:      ThisAndFollowing{FutureStartDate: "next tuesday"},
	})
	require.Error(t, err)
	assert.Empty(t, api.writes())
}

func TestTruncateSeries_UnparsableRuleMakesNoWrites(t *testing.T) {
	master := weeklyMaster()
	master.Recurrence = []string{"RRULE:FREQ=SOMETIMES;BYDAY=MO"}
	api := newFakeCalendarAPI(master)
	r := NewResolver(api, nil)

	_, err := r.TruncateSeries(context.Background(), UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Scope:      ThisAndFollowing{FutureStartDate: "2024-06-20T10:00:00-07:00"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rewritten recurrence of recurring123 is invalid")
	assert.Empty(t, api.writes())
}

func TestTruncateSeries_Idempotent(t *testing.T) {
	api := newFakeCalendarAPI(weeklyMaster())
	r := NewResolver(api, nil)
	req := UpdateRequest{
		CalendarID: "primary",
		EventID:    "recurring123",
		Scope:      ThisAndFollowing{FutureStartDate: "2024-06-20T10:00:00-07:00"},
	}

	first, err := r.TruncateSeries(context.Background(), req)
	require.NoError(t, err)
	second, err := r.TruncateSeries(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Truncated.Recurrence, second.Truncated.Recurrence)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20240619T170000Z"}, second.Truncated.Recurrence)
}

func TestCreateFollowingSeries_NilSplit(t *testing.T) {
	r := NewResolver(newFakeCalendarAPI(), nil)
	_, err := r.CreateFollowingSeries(context.Background(), nil)
	assert.Error(t, err)
}
