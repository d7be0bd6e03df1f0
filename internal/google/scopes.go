package google

import (
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultOAuthScopes are the Google OAuth scopes requested during the consent flow.
//
// The calendar scope covers reading calendars and colors, free/busy queries and
// creating, patching and deleting events.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	calendar.CalendarScope,
}
