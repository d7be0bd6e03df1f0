// Package google provides OAuth2 authentication and token management for Google APIs.
//
// Tokens are stored per account as JSON files (STDIO transport) or supplied per
// request as bearer tokens (HTTP transport). The TokenProvider interface lets the
// calendar client stay unaware of where its credentials come from.
package google
