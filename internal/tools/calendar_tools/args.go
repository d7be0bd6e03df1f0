package calendar_tools

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/calslack/internal/calendar"
	"github.com/teemow/calslack/internal/calendar/recurring"
	"github.com/teemow/calslack/internal/tools/common"
)

const maxCalendarsPerRequest = 50

var (
	responseStatuses = []string{"needsAction", "declined", "tentative", "accepted"}
	reminderMethods  = []string{"email", "popup"}
)

// requiredString returns the non-empty string argument key.
func requiredString(args map[string]interface{}, key string) (string, error) {
	v := common.StringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// dateTimeArg returns the timestamp argument key after checking its format.
// An absent optional timestamp is returned as "".
func dateTimeArg(args map[string]interface{}, key string, required bool) (string, error) {
	v := common.StringArg(args, key)
	if v == "" {
		if required {
			return "", fmt.Errorf("%s is required", key)
		}
		return "", nil
	}
	if err := calendar.ValidateDateTime(v); err != nil {
		return "", fmt.Errorf("Invalid %s: %s", key, calendar.DateTimeFormatMessage)
	}
	return v, nil
}

// timeZoneArg returns the optional IANA zone argument key.
func timeZoneArg(args map[string]interface{}, key string) (string, error) {
	tz := common.StringArg(args, key)
	if tz == "" {
		return "", nil
	}
	if _, err := calendar.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("Invalid %s: %s. Use IANA time zone names like 'America/Los_Angeles'", key, tz)
	}
	return tz, nil
}

// parseCalendarIDs accepts a single calendar id, a JSON array string of ids
// or an already decoded array.
func parseCalendarIDs(raw interface{}) ([]string, error) {
	var items []interface{}
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("At least one calendar ID is required")
	case []interface{}:
		items = v
	case string:
		trimmed := strings.TrimSpace(v)
		if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
			if trimmed == "" {
				return nil, fmt.Errorf("At least one calendar ID is required")
			}
			return []string{trimmed}, nil
		}
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, fmt.Errorf("Invalid JSON format for calendarId: %v", err)
		}
	default:
		return nil, fmt.Errorf("calendarId must be a string or an array of strings")
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("At least one calendar ID is required")
	}
	if len(items) > maxCalendarsPerRequest {
		return nil, fmt.Errorf("Maximum %d calendars allowed per request", maxCalendarsPerRequest)
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		id, ok := item.(string)
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("All calendar IDs must be non-empty strings")
		}
		if seen[id] {
			return nil, fmt.Errorf("Duplicate calendar IDs are not allowed")
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// parseAttendees decodes the attendees argument.
func parseAttendees(raw interface{}) ([]*gcal.EventAttendee, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("attendees must be an array")
	}

	attendees := make([]*gcal.EventAttendee, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("attendees[%d] must be an object", i)
		}
		email := common.StringArg(m, "email")
		if email == "" {
			return nil, fmt.Errorf("attendees[%d].email is required", i)
		}

		a := &gcal.EventAttendee{
			Email:       email,
			Comment:     common.StringArg(m, "comment"),
			DisplayName: common.StringArg(m, "displayName"),
			Id:          common.StringArg(m, "id"),
		}
		guests, ok, err := common.IntArg(m, "additionalGuests")
		if err != nil {
			return nil, fmt.Errorf("attendees[%d]: %w", i, err)
		}
		if ok {
			if guests < 0 {
				return nil, fmt.Errorf("attendees[%d].additionalGuests must not be negative", i)
			}
			a.AdditionalGuests = int64(guests)
		}
		if optional, ok := common.BoolArg(m, "optional"); ok {
			a.Optional = optional
		}
		if resource, ok := common.BoolArg(m, "resource"); ok {
			a.Resource = resource
		}
		if status := common.StringArg(m, "responseStatus"); status != "" {
			if !slices.Contains(responseStatuses, status) {
				return nil, fmt.Errorf("attendees[%d].responseStatus must be one of %s", i, strings.Join(responseStatuses, ", "))
			}
			a.ResponseStatus = status
		}
		attendees = append(attendees, a)
	}
	return attendees, nil
}

// parseReminders decodes the reminders argument.
func parseReminders(raw interface{}) (*gcal.EventReminders, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("reminders must be an object")
	}

	useDefault, ok := common.BoolArg(m, "useDefault")
	if !ok {
		return nil, fmt.Errorf("reminders.useDefault is required")
	}
	// useDefault=false must reach the API to switch the defaults off.
	reminders := &gcal.EventReminders{UseDefault: useDefault, ForceSendFields: []string{"UseDefault"}}

	if rawOverrides, ok := m["overrides"]; ok && rawOverrides != nil {
		items, ok := rawOverrides.([]interface{})
		if !ok {
			return nil, fmt.Errorf("reminders.overrides must be an array")
		}
		for i, item := range items {
			o, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("reminders.overrides[%d] must be an object", i)
			}
			method := common.StringArgDefault(o, "method", "popup")
			if !slices.Contains(reminderMethods, method) {
				return nil, fmt.Errorf("reminders.overrides[%d].method must be email or popup", i)
			}
			minutes, ok, err := common.IntArg(o, "minutes")
			if err != nil {
				return nil, fmt.Errorf("reminders.overrides[%d]: %w", i, err)
			}
			if !ok {
				return nil, fmt.Errorf("reminders.overrides[%d].minutes is required", i)
			}
			if minutes < 0 {
				return nil, fmt.Errorf("reminders.overrides[%d].minutes must not be negative", i)
			}
			reminders.Overrides = append(reminders.Overrides, &gcal.EventReminder{
				Method:          method,
				Minutes:         int64(minutes),
				ForceSendFields: []string{"Minutes"},
			})
		}
	}
	return reminders, nil
}

// parseRecurrence decodes and validates the recurrence argument.
func parseRecurrence(raw interface{}) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("recurrence must be an array of strings")
	}
	rules := make([]string, 0, len(items))
	for _, item := range items {
		rule, ok := item.(string)
		if !ok || rule == "" {
			return nil, fmt.Errorf("recurrence must be an array of strings")
		}
		rules = append(rules, rule)
	}
	if err := recurring.ValidateRecurrence(rules); err != nil {
		return nil, fmt.Errorf("Invalid recurrence: %v", err)
	}
	return rules, nil
}
