// Package slack wraps the Slack Web API for the MCP tools.
//
// Every call is retried with exponential backoff when Slack answers with
// "ratelimited" (HTTP 429 or an ok:false body), with a 5xx status, or when
// the request fails in transport. Other API errors are returned as is.
//
// Message history and thread replies are simplified for LLM consumption:
// user and user-group mentions are resolved to display names.
package slack
