// Package calendar provides a client for the Google Calendar API and the
// helpers shared by the calendar tools.
//
// The Client exposes the event, calendar list, color and free/busy endpoints
// with context-aware methods. It satisfies the CalendarAPI capability consumed
// by the recurring package, which implements modification scopes for
// recurring events.
//
// Timestamps handed to the tools are ISO 8601 either with a zone designator
// ("2024-01-01T10:00:00-08:00", "2024-01-01T18:00:00Z") or without one
// ("2024-01-01T10:00:00"). Naive timestamps are resolved against a fallback
// IANA zone; see ParseDateTime, ToRFC3339 and TimeObject.
//
// Example usage:
//
//	auth := google.NewAuth(clientID, clientSecret, "")
//	client, err := calendar.NewClient(ctx, "default", google.NewFileTokenProvider(auth))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	events, err := client.ListEvents(ctx, "primary", calendar.ListOptions{
//	    TimeMin: time.Now().Format(time.RFC3339),
//	})
package calendar
