// Package config defines the gateway process configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML
// file, then environment variable overrides. The environment names match
// what the deployment's compose files already export (REDIS_HOST,
// MYSQL_PASSWORD, LOKI_URL and friends), so the gateway runs unchanged
// inside the existing stack with no file at all.
package config
