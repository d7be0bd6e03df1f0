package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// NaiveLayout is the accepted layout for timestamps without a zone designator.
const NaiveLayout = "2006-01-02T15:04:05"

// DateLayout is the civil-date layout used by all-day events.
const DateLayout = "2006-01-02"

// DateTimeFormatMessage is reported for timestamps in neither accepted format.
const DateTimeFormatMessage = "Must be ISO 8601 format: '2026-01-01T00:00:00'"

var (
	zonedDateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(Z|[+-]\d{2}:\d{2})$`)
	naiveDateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)
)

// ErrInvalidDateTime is returned for timestamps in neither accepted format.
var ErrInvalidDateTime = errors.New(DateTimeFormatMessage)

// HasTimezone reports whether dt carries its own zone ("Z" or "±HH:MM").
func HasTimezone(dt string) bool {
	return zonedDateTimeRe.MatchString(dt)
}

// ValidateDateTime checks that dt is either zone-qualified or naive ISO 8601.
func ValidateDateTime(dt string) error {
	if HasTimezone(dt) || naiveDateTimeRe.MatchString(dt) {
		return nil
	}
	return ErrInvalidDateTime
}

// LoadLocation resolves an IANA zone name. An empty name means UTC.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", tz, err)
	}
	return loc, nil
}

// ParseDateTime parses dt as an instant. Naive timestamps are interpreted in
// the fallback zone tz.
func ParseDateTime(dt, tz string) (time.Time, error) {
	if HasTimezone(dt) {
		return time.Parse(time.RFC3339, dt)
	}
	if !naiveDateTimeRe.MatchString(dt) {
		return time.Time{}, ErrInvalidDateTime
	}
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(NaiveLayout, dt, loc)
}

// ToRFC3339 converts dt to RFC 3339. Zone-qualified input is returned as-is;
// naive input is resolved in fallbackTZ and falls back to UTC when that fails.
func ToRFC3339(dt, fallbackTZ string) string {
	if HasTimezone(dt) {
		return dt
	}
	t, err := ParseDateTime(dt, fallbackTZ)
	if err != nil {
		return dt + "Z"
	}
	return t.Format(time.RFC3339)
}

// TimeObject builds the start/end object for an event write. Zone-qualified
// input needs no separate time zone.
func TimeObject(dt, fallbackTZ string) *calendar.EventDateTime {
	if HasTimezone(dt) {
		return &calendar.EventDateTime{DateTime: dt}
	}
	return &calendar.EventDateTime{DateTime: dt, TimeZone: fallbackTZ}
}

// EventTimeBounds returns the instants an event starts and ends at. All-day
// events are bounded by midnight UTC of their civil dates.
func EventTimeBounds(ev *calendar.Event) (start, end time.Time, err error) {
	if ev == nil || ev.Start == nil || ev.End == nil {
		return time.Time{}, time.Time{}, errors.New("event has no start or end")
	}
	if start, err = parseEventDateTime(ev.Start); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse event start: %w", err)
	}
	if end, err = parseEventDateTime(ev.End); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse event end: %w", err)
	}
	return start, end, nil
}

func parseEventDateTime(edt *calendar.EventDateTime) (time.Time, error) {
	if edt.DateTime != "" {
		return ParseDateTime(edt.DateTime, edt.TimeZone)
	}
	if edt.Date != "" {
		return time.Parse(DateLayout, edt.Date)
	}
	return time.Time{}, errors.New("neither date nor dateTime set")
}
