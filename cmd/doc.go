// Package cmd implements the command-line interface for calslack.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio or streamable HTTP
//   - auth: Authorize a Google account and store its token
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
