// Package calendar_tools provides MCP (Model Context Protocol) tools for Google Calendar operations.
//
// The tools list, search, create, update and delete events, list calendars and
// colors, query free/busy information and report the current time. Updates of
// recurring events accept a modification scope (all, thisEventOnly,
// thisAndFollowing) that is resolved by the recurring package; a failed second
// phase of a series split is retried here before it is reported.
//
// Every tool accepts an optional account argument selecting the Google
// account. Write tools are not registered in read-only mode.
package calendar_tools
