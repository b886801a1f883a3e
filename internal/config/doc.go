// Package config loads and validates the tracker configuration.
//
// Configuration is YAML with ${VAR} environment expansion, so secrets like
// the Telegram bot token and database password can live in the environment.
// Load, applyDefaults and Validate are separate steps so callers can pick
// how strict they need to be.
package config
