// Package config loads the calslack configuration.
//
// Values are layered in this order, each one overriding the previous:
// built-in defaults, an optional YAML file, and CALSLACK_ prefixed
// environment variables. Command line flags are applied on top by the
// cmd package.
//
// Environment variable names map to keys by dropping the prefix, lower
// casing and turning underscores into dots:
//
//	CALSLACK_SLACK_TOKEN      -> slack.token
//	CALSLACK_SERVER_HTTPADDR  -> server.httpaddr
//	CALSLACK_METRICS_ENABLED  -> metrics.enabled
package config
