package common

// GetAccountFromArgs extracts the Google account name from request arguments.
// It returns fallback when the argument is absent or empty, and "default"
// when fallback is empty too.
func GetAccountFromArgs(args map[string]interface{}, fallback string) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	if fallback != "" {
		return fallback
	}
	return "default"
}
