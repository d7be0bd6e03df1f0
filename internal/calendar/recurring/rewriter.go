package recurring

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	cal "github.com/teemow/calslack/internal/calendar"
)

const rrulePrefix = "RRULE:"

// CalculateUntilDate returns the UNTIL value that ends a series before
// futureStartDate: one day earlier, in compact UTC form. A naive
// futureStartDate is resolved in tz.
func CalculateUntilDate(futureStartDate, tz string) (string, error) {
	t, err := cal.ParseDateTime(futureStartDate, tz)
	if err != nil {
		return "", fmt.Errorf("invalid futureStartDate %q: %w", futureStartDate, err)
	}
	return t.AddDate(0, 0, -1).UTC().Format(BasicUTCLayout), nil
}

// UpdateRecurrenceWithUntil bounds every RRULE line with UNTIL=until. An
// existing UNTIL is replaced in place and COUNT is dropped, since RFC 5545
// forbids both in one rule. Other lines (EXDATE, RDATE, ...) pass through.
func UpdateRecurrenceWithUntil(rules []string, until string) []string {
	out := make([]string, 0, len(rules))
	for _, rule := range rules {
		if !hasPrefixFold(rule, rrulePrefix) {
			out = append(out, rule)
			continue
		}

		parts := strings.Split(rule[len(rrulePrefix):], ";")
		kept := make([]string, 0, len(parts)+1)
		replaced := false
		for _, part := range parts {
			key, _, _ := strings.Cut(part, "=")
			switch strings.ToUpper(key) {
			case "UNTIL":
				kept = append(kept, "UNTIL="+until)
				replaced = true
			case "COUNT":
			default:
				kept = append(kept, part)
			}
		}
		if !replaced {
			kept = append(kept, "UNTIL="+until)
		}
		out = append(out, rule[:len(rrulePrefix)]+strings.Join(kept, ";"))
	}
	return out
}

// ValidateRecurrence checks recurrence lines before they are sent to the
// backend. RRULE lines must parse; other lines must be EXRULE, RDATE or EXDATE.
func ValidateRecurrence(rules []string) error {
	for _, rule := range rules {
		name, _, found := strings.Cut(rule, ":")
		if !found {
			return fmt.Errorf("invalid recurrence line %q: missing ':'", rule)
		}
		if i := strings.Index(name, ";"); i >= 0 {
			name = name[:i]
		}

		switch strings.ToUpper(name) {
		case "RRULE", "EXRULE":
			if _, err := rrule.StrToROption(rule[strings.Index(rule, ":")+1:]); err != nil {
				return fmt.Errorf("invalid recurrence rule %q: %w", rule, err)
			}
		case "RDATE", "EXDATE":
		default:
			return fmt.Errorf("unsupported recurrence line %q", rule)
		}
	}
	return nil
}

// CalculateEndTime returns newStart shifted by the original event's duration.
// A zone-qualified newStart yields an RFC 3339 result in the same offset; a
// naive one yields a naive result to be paired with tz.
func CalculateEndTime(newStart string, original *calendar.Event, tz string) (string, error) {
	origStart, origEnd, err := cal.EventTimeBounds(original)
	if err != nil {
		return "", err
	}
	duration := origEnd.Sub(origStart)
	if duration < 0 {
		return "", errors.New("original event ends before it starts")
	}

	start, err := cal.ParseDateTime(newStart, tz)
	if err != nil {
		return "", fmt.Errorf("invalid start %q: %w", newStart, err)
	}

	end := start.Add(duration)
	if cal.HasTimezone(newStart) {
		return end.Format(time.RFC3339), nil
	}
	return end.Format(cal.NaiveLayout), nil
}

// CleanEventForDuplication copies an event without the fields the backend
// assigns, so the copy can seed a new series.
func CleanEventForDuplication(event *calendar.Event) *calendar.Event {
	clean := *event
	clean.ServerResponse = googleapi.ServerResponse{}
	clean.Id = ""
	clean.Etag = ""
	clean.ICalUID = ""
	clean.Created = ""
	clean.Updated = ""
	clean.HtmlLink = ""
	clean.HangoutLink = ""
	clean.RecurringEventId = ""
	clean.OriginalStartTime = nil
	clean.Status = ""
	clean.Sequence = 0
	clean.Creator = nil
	clean.Organizer = nil
	return &clean
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
