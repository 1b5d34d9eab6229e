// Package config loads, validates, and defaults the TOML configuration for the
// ingestion daemon and CLI. Secrets resolve from the environment when the file
// leaves them blank so deployments never have to write keys to disk.
package config
