// Package config loads, normalizes, and validates the TOML configuration for
// the dupeguard daemon and CLI.
package config
