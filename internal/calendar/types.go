package calendar

import (
	"fmt"
	"time"
)

// Notification policies accepted by write calls.
const (
	SendUpdatesAll          = "all"
	SendUpdatesExternalOnly = "externalOnly"
	SendUpdatesNone         = "none"
)

// WriteOptions controls notification behaviour of event writes.
type WriteOptions struct {
	SendUpdates string
}

// ValidateSendUpdates returns the effective notification policy, defaulting to "all".
func ValidateSendUpdates(v string) (string, error) {
	switch v {
	case "":
		return SendUpdatesAll, nil
	case SendUpdatesAll, SendUpdatesExternalOnly, SendUpdatesNone:
		return v, nil
	default:
		return "", fmt.Errorf("invalid sendUpdates %q: must be one of all, externalOnly, none", v)
	}
}

// ListOptions narrows an event listing. TimeMin and TimeMax are RFC 3339.
type ListOptions struct {
	TimeMin  string
	TimeMax  string
	Query    string
	TimeZone string
}

// CalendarInfo represents information about a calendar
type CalendarInfo struct {
	ID          string
	Summary     string
	Description string
	TimeZone    string
	Primary     bool
	AccessRole  string // "owner", "writer", "reader", "freeBusyReader"
}

// ColorDefinition is one entry of the event color palette.
type ColorDefinition struct {
	ID         string
	Background string
	Foreground string
}

// FreeBusyQuery describes a free/busy lookup. TimeMin and TimeMax are RFC 3339.
type FreeBusyQuery struct {
	Items                []string
	TimeMin              string
	TimeMax              string
	TimeZone             string
	GroupExpansionMax    int64
	CalendarExpansionMax int64
}

// FreeBusyInfo represents availability information for a calendar
type FreeBusyInfo struct {
	Calendar string
	Busy     []TimeRange
	Errors   []string
}

// TimeRange represents a time range
type TimeRange struct {
	Start time.Time
	End   time.Time
}
