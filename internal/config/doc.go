// Package config loads, normalizes, and validates the TOML configuration
// file. Configuration is resolved once at startup and treated as immutable
// for the rest of the run.
package config
