package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

const (
	displayDateLayout     = "Mon, Jan 2, 2006"
	displayDateTimeLayout = "Mon, Jan 2, 2006, 3:04 PM MST"
)

// EventURL returns the link to view an event: its htmlLink, else a constructed URL.
func EventURL(event *calendar.Event, calendarID string) string {
	if event.HtmlLink != "" {
		return event.HtmlLink
	}
	if calendarID != "" && event.Id != "" {
		return fmt.Sprintf("https://calendar.google.com/calendar/event?eid=%s&cid=%s",
			url.QueryEscape(event.Id), url.QueryEscape(calendarID))
	}
	return ""
}

// FormatEventWithDetails renders an event as multi-line text for tool output.
func FormatEventWithDetails(event *calendar.Event, calendarID string) string {
	var b strings.Builder

	if event.Summary != "" {
		b.WriteString("Event: " + event.Summary)
	} else {
		b.WriteString("Untitled Event")
	}
	if event.Id != "" {
		b.WriteString("\nEvent ID: " + event.Id)
	}
	if event.Description != "" {
		b.WriteString("\nDescription: " + event.Description)
	}

	b.WriteString(formatTimeInfo(event))

	if event.Location != "" {
		b.WriteString("\nLocation: " + event.Location)
	}
	if len(event.Attendees) > 0 {
		b.WriteString("\nGuests: " + formatAttendees(event.Attendees))
	}
	if link := EventURL(event, calendarID); link != "" {
		b.WriteString("\nView: " + link)
	}

	return b.String()
}

// FormatEventList renders events in the list-events/search-events output format.
func FormatEventList(events []*calendar.Event, calendarID string) string {
	if len(events) == 0 {
		return "No events found."
	}
	parts := make([]string, len(events))
	for i, ev := range events {
		parts[i] = FormatEventWithDetails(ev, calendarID)
	}
	return fmt.Sprintf("Found %d event(s):\n\n%s", len(events), strings.Join(parts, "\n\n"))
}

func formatTimeInfo(event *calendar.Event) string {
	start, end := event.Start, event.End
	if start == nil {
		return "\nStart: unspecified"
	}

	if start.Date != "" {
		startDate := formatDate(start.Date)
		if end == nil || end.Date == "" {
			return "\nStart Date: " + startDate
		}
		endDay, err := time.Parse(DateLayout, end.Date)
		if err != nil {
			return "\nStart Date: " + startDate
		}
		// The end date of an all-day event is exclusive.
		lastDay := endDay.AddDate(0, 0, -1).Format(DateLayout)
		if end.Date == start.Date || lastDay == start.Date {
			return "\nDate: " + startDate
		}
		return "\nStart Date: " + startDate + "\nEnd Date: " + formatDate(lastDay)
	}

	return "\nStart: " + formatDateTime(start) + "\nEnd: " + formatDateTime(end)
}

func formatDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(displayDateLayout)
}

func formatDateTime(edt *calendar.EventDateTime) string {
	if edt == nil || (edt.DateTime == "" && edt.Date == "") {
		return "unspecified"
	}
	if edt.DateTime == "" {
		return formatDate(edt.Date)
	}

	t, err := ParseDateTime(edt.DateTime, edt.TimeZone)
	if err != nil {
		return edt.DateTime
	}
	if edt.TimeZone != "" {
		if loc, err := time.LoadLocation(edt.TimeZone); err == nil {
			t = t.In(loc)
		}
	}
	return t.Format(displayDateTimeLayout)
}

func formatAttendees(attendees []*calendar.EventAttendee) string {
	parts := make([]string, 0, len(attendees))
	for _, a := range attendees {
		name := a.DisplayName
		if name == "" {
			name = a.Email
		}
		if name == "" {
			name = "unknown"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", name, responseStatusText(a.ResponseStatus)))
	}
	return strings.Join(parts, ", ")
}

func responseStatusText(status string) string {
	switch status {
	case "accepted", "declined", "tentative":
		return status
	case "needsAction":
		return "pending"
	default:
		return "unknown"
	}
}
