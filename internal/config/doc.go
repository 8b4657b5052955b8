// Package config loads, normalizes, and validates the TOML configuration
// used by the scout daemon and CLI.
package config
