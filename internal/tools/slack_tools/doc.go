// Package slack_tools provides MCP tools for Slack: listing conversations and
// users, looking users up by email, reading history and thread replies with
// mentions resolved to names, and sending messages.
//
// Results are returned as JSON text. The Slack token comes from the request
// (HTTP transport) or from the configuration (stdio).
package slack_tools
