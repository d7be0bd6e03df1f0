// Package recurring applies updates to calendar events with a modification
// scope: the whole series, one occurrence, or one occurrence and everything
// after it.
//
// The Resolver talks to the calendar backend only through the CalendarAPI
// interface, so it can be exercised without network access. It keeps no
// state between calls; every update fetches what it needs.
//
// Splitting a series (ThisAndFollowing) takes two writes: the master event's
// recurrence is truncated with an UNTIL boundary, then a new series is
// inserted from the split point. The two writes are not atomic. TruncateSeries
// and CreateFollowingSeries expose the phases separately, and UpdateEvent
// reports a failed second phase as a *PartialSplitError carrying everything
// needed to retry it.
package recurring
