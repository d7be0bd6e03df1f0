package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Attribute keys shared by all log lines.
const (
	KeyService    = "service"
	KeyAccount    = "account"
	KeyUserHash   = "user_hash"
	KeyError      = "error"
	KeyCalendarID = "calendar_id"
	KeyEventID    = "event_id"
	KeyNewEventID = "new_event_id"
	KeyScope      = "scope"
	KeyChannel    = "channel"
	KeyAttempt    = "attempt"
)

func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// WithEvent scopes a logger to one calendar event.
func WithEvent(logger *slog.Logger, calendarID, eventID string) *slog.Logger {
	return logger.With(slog.String(KeyCalendarID, calendarID), slog.String(KeyEventID, eventID))
}

// Account is the Google account name, never the address behind it.
func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

func CalendarID(id string) slog.Attr {
	return slog.String(KeyCalendarID, id)
}

func EventID(id string) slog.Attr {
	return slog.String(KeyEventID, id)
}

// NewEventID is the id of an event created while handling another one.
func NewEventID(id string) slog.Attr {
	return slog.String(KeyNewEventID, id)
}

// Scope is a recurring-event modification scope.
func Scope(scope string) slog.Attr {
	return slog.String(KeyScope, scope)
}

// Channel is a Slack conversation id.
func Channel(channel string) slog.Attr {
	return slog.String(KeyChannel, channel)
}

func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Err returns the error attribute, or an empty group that handlers drop
// when err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail hashes an address so log lines can be correlated without
// carrying it. Case is ignored.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "user:" + hex.EncodeToString(hash[:8])
}

func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken describes a token by its length and Slack token kind.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	kind := "token"
	if prefix, _, ok := strings.Cut(token, "-"); ok && strings.HasPrefix(prefix, "xox") {
		kind = prefix
	}
	return fmt.Sprintf("[%s:%d chars]", kind, len(token))
}
