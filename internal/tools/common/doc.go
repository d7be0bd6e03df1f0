// Package common provides shared utilities for MCP tool implementations:
// account resolution, argument accessors and the instrumented handler
// wrapper used by every calslack tool.
package common
