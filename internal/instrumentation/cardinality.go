package instrumentation

// Cardinality management helpers for metrics.
// Label values derived from request input must pass through these helpers so
// that unknown values collapse into a fixed bucket.

// Operation types for upstream API metrics.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationSend   = "send"
	OperationSearch = "search"
	OperationQuery  = "query"
)

// PathOther is the label used for HTTP paths that are not served.
const PathOther = "other"

var knownPaths = map[string]bool{
	"/mcp":              true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
	"/metrics":          true,
}

// PathLabel returns path when it is one of the served endpoints and
// PathOther otherwise.
//
// Example:
//
//	PathLabel("/mcp")          // "/mcp"
//	PathLabel("/wp-login.php") // "other"
func PathLabel(path string) string {
	if knownPaths[path] {
		return path
	}
	return PathOther
}

// AccountLabel returns the account label for metrics. Non-default accounts
// are only reported when detailed labels are enabled.
func AccountLabel(account string, detailed bool) string {
	switch {
	case account == "" || account == "default":
		return "default"
	case detailed:
		return account
	default:
		return "named"
	}
}
