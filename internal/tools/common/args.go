package common

import (
	"fmt"
	"math"
	"strconv"
)

// StringArg returns the string argument key, or "" when it is absent or not a string.
func StringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// StringArgDefault is StringArg with a default for absent or empty values.
func StringArgDefault(args map[string]interface{}, key, def string) string {
	if v := StringArg(args, key); v != "" {
		return v
	}
	return def
}

// BoolArg returns the boolean argument key and whether it was set.
// The strings "true" and "false" are accepted as well.
func BoolArg(args map[string]interface{}, key string) (bool, bool) {
	switch v := args[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

// IntArg returns the integer argument key and whether it was set. JSON
// numbers arrive as float64; fractional values are rejected.
func IntArg(args map[string]interface{}, key string) (int, bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%s must be an integer", key)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false, fmt.Errorf("%s must be an integer", key)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be an integer", key)
	}
}
