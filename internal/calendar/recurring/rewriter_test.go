package recurring

import (
	"strings"
	"testing"

	"github.com/teambition/rrule-go"
	calendar "google.golang.org/api/calendar/v3"
)

func TestFormatInstanceID(t *testing.T) {
	tests := []struct {
		name  string
		start string
		tz    string
		want  string
	}{
		{"offset", "2024-06-15T10:00:00-07:00", "", "abc123_20240615T170000Z"},
		{"utc", "2024-06-15T17:00:00Z", "Europe/Berlin", "abc123_20240615T170000Z"},
		{"naive in zone", "2024-06-15T10:00:00", "America/Los_Angeles", "abc123_20240615T170000Z"},
		{"naive utc", "2024-06-15T17:00:00", "", "abc123_20240615T170000Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatInstanceID("abc123", tt.start, tt.tz)
			if err != nil {
				t.Fatalf("FormatInstanceID() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatInstanceID() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := FormatInstanceID("abc123", "not a date", ""); err == nil {
		t.Error("expected error for malformed start")
	}
}

func TestCalculateUntilDate(t *testing.T) {
	got, err := CalculateUntilDate("2024-06-20T10:00:00-07:00", "")
	if err != nil {
		t.Fatalf("CalculateUntilDate() error = %v", err)
	}
	if got != "20240619T170000Z" {
		t.Errorf("CalculateUntilDate() = %q, want %q", got, "20240619T170000Z")
	}

	got, err = CalculateUntilDate("2024-03-01T09:00:00", "Europe/Berlin")
	if err != nil {
		t.Fatalf("CalculateUntilDate() error = %v", err)
	}
	if got != "20240229T080000Z" {
		t.Errorf("CalculateUntilDate() leap day = %q, want %q", got, "20240229T080000Z")
	}
}

func TestUpdateRecurrenceWithUntil(t *testing.T) {
	const until = "20240619T170000Z"
	tests := []struct {
		name  string
		rules []string
		want  []string
	}{
		{
			name:  "count superseded",
			rules: []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=20"},
			want:  []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20240619T170000Z"},
		},
		{
			name:  "append when unbounded",
			rules: []string{"RRULE:FREQ=DAILY"},
			want:  []string{"RRULE:FREQ=DAILY;UNTIL=20240619T170000Z"},
		},
		{
			name:  "replace existing until in place",
			rules: []string{"RRULE:FREQ=WEEKLY;UNTIL=20251231T000000Z;BYDAY=TU"},
			want:  []string{"RRULE:FREQ=WEEKLY;UNTIL=20240619T170000Z;BYDAY=TU"},
		},
		{
			name:  "other lines pass through",
			rules: []string{"EXDATE;TZID=Europe/Berlin:20240610T100000", "RRULE:FREQ=WEEKLY", "RDATE:20240701T100000Z"},
			want:  []string{"EXDATE;TZID=Europe/Berlin:20240610T100000", "RRULE:FREQ=WEEKLY;UNTIL=20240619T170000Z", "RDATE:20240701T100000Z"},
		},
		{
			name:  "empty",
			rules: nil,
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateRecurrenceWithUntil(tt.rules, until)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("UpdateRecurrenceWithUntil() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpdateRecurrenceWithUntil_Deterministic(t *testing.T) {
	rules := []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=20"}
	first := UpdateRecurrenceWithUntil(rules, "20240619T170000Z")
	second := UpdateRecurrenceWithUntil(first, "20240619T170000Z")
	if first[0] != second[0] {
		t.Errorf("rewriting twice changed the rule: %q vs %q", first[0], second[0])
	}
	if rules[0] != "RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=20" {
		t.Error("input rules must not be modified")
	}
}

func TestUpdateRecurrenceWithUntil_ParsesAsBoundedRule(t *testing.T) {
	got := UpdateRecurrenceWithUntil([]string{"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=20"}, "20240619T170000Z")
	opt, err := rrule.StrToROption(strings.TrimPrefix(got[0], "RRULE:"))
	if err != nil {
		t.Fatalf("rewritten rule does not parse: %v", err)
	}
	if opt.Count != 0 {
		t.Errorf("Count = %d, want 0", opt.Count)
	}
	if opt.Until.UTC().Format(BasicUTCLayout) != "20240619T170000Z" {
		t.Errorf("Until = %v", opt.Until)
	}
}

func TestValidateRecurrence(t *testing.T) {
	valid := [][]string{
		nil,
		{"RRULE:FREQ=WEEKLY;COUNT=5"},
		{"RRULE:FREQ=MONTHLY;BYMONTHDAY=1", "EXDATE;VALUE=DATE:20240701"},
		{"RDATE:20240701T100000Z"},
	}
	for _, rules := range valid {
		if err := ValidateRecurrence(rules); err != nil {
			t.Errorf("ValidateRecurrence(%q) error = %v", rules, err)
		}
	}

	invalid := [][]string{
		{"FREQ=WEEKLY"},
		{"RRULE:FREQ=SOMETIMES"},
		{"VEVENT:foo"},
	}
	for _, rules := range invalid {
		if err := ValidateRecurrence(rules); err == nil {
			t.Errorf("ValidateRecurrence(%q) expected error", rules)
		}
	}
}

func TestCalculateEndTime(t *testing.T) {
	original := &calendar.Event{
		Start: &calendar.EventDateTime{DateTime: "2024-06-17T10:00:00-07:00"},
		End:   &calendar.EventDateTime{DateTime: "2024-06-17T11:30:00-07:00"},
	}

	got, err := CalculateEndTime("2024-06-20T10:00:00-07:00", original, "")
	if err != nil {
		t.Fatalf("CalculateEndTime() error = %v", err)
	}
	if got != "2024-06-20T11:30:00-07:00" {
		t.Errorf("CalculateEndTime() = %q", got)
	}

	got, err = CalculateEndTime("2024-06-20T09:00:00", original, "Europe/Berlin")
	if err != nil {
		t.Fatalf("CalculateEndTime() error = %v", err)
	}
	if got != "2024-06-20T10:30:00" {
		t.Errorf("CalculateEndTime() naive = %q", got)
	}

	allDay := &calendar.Event{
		Start: &calendar.EventDateTime{Date: "2024-06-17"},
		End:   &calendar.EventDateTime{Date: "2024-06-18"},
	}
	got, err = CalculateEndTime("2024-06-20T00:00:00Z", allDay, "")
	if err != nil {
		t.Fatalf("CalculateEndTime() error = %v", err)
	}
	if got != "2024-06-21T00:00:00Z" {
		t.Errorf("CalculateEndTime() all-day = %q", got)
	}

	if _, err := CalculateEndTime("2024-06-20T10:00:00Z", &calendar.Event{}, ""); err == nil {
		t.Error("expected error for event without bounds")
	}
}

func TestCleanEventForDuplication(t *testing.T) {
	original := &calendar.Event{
		Id:                "recurring123",
		Etag:              `"etag"`,
		ICalUID:           "uid@google.com",
		Created:           "2024-01-01T00:00:00Z",
		Updated:           "2024-01-02T00:00:00Z",
		HtmlLink:          "https://calendar.google.com/event?eid=x",
		HangoutLink:       "https://meet.google.com/x",
		RecurringEventId:  "parent",
		OriginalStartTime: &calendar.EventDateTime{DateTime: "2024-06-17T10:00:00Z"},
		Status:            "confirmed",
		Sequence:          3,
		Creator:           &calendar.EventCreator{Email: "a@example.com"},
		Organizer:         &calendar.EventOrganizer{Email: "a@example.com"},
		Summary:           "Weekly",
		Description:       "Agenda",
		Location:          "Room",
		Attendees:         []*calendar.EventAttendee{{Email: "b@example.com"}},
		Recurrence:        []string{"RRULE:FREQ=WEEKLY"},
	}

	clean := CleanEventForDuplication(original)

	if clean.Id != "" || clean.Etag != "" || clean.ICalUID != "" || clean.Created != "" || clean.Updated != "" ||
		clean.HtmlLink != "" || clean.HangoutLink != "" || clean.RecurringEventId != "" ||
		clean.OriginalStartTime != nil || clean.Status != "" || clean.Sequence != 0 ||
		clean.Creator != nil || clean.Organizer != nil {
		t.Errorf("backend-assigned fields not stripped: %+v", clean)
	}
	if clean.Summary != "Weekly" || clean.Description != "Agenda" || clean.Location != "Room" ||
		len(clean.Attendees) != 1 || len(clean.Recurrence) != 1 {
		t.Errorf("content fields not retained: %+v", clean)
	}
	if original.Id != "recurring123" {
		t.Error("original event must not be modified")
	}
}
