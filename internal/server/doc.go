// Package server provides the MCP server context and the HTTP transport
// for calslack.
//
// # Key Components
//
// ServerContext manages Google Calendar and Slack clients with lazy
// initialization and caching. Calendar clients come from a
// google.TokenProvider:
//   - FileTokenProvider: For STDIO transport, reads tokens from disk
//   - RequestTokenProvider: For HTTP transport, prefers the access token
//     sent in the X-Google-Access-Token header
//
// Slack clients use the bearer token of the HTTP request, or the configured
// token on STDIO.
//
// HTTPServer mounts the MCP streamable HTTP transport on /mcp behind bearer
// token authentication. It also serves /healthz, /readyz and
// /healthz/detailed, allows cross-origin requests from any origin and tags
// every response with an X-Request-Id.
//
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
