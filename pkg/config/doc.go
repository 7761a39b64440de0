// Package config provides configuration management for Spire.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables; each attribute remembers which source supplied
// its value so operators can inspect the effective configuration.
//
// # Configuration Sources
//
//   - SPIRE_CONFIG_PATH/spire.yml (optional file)
//   - SPIRE_* environment variables (take precedence)
//
// # Key Configuration Options
//
//   - SPIRE_LISTEN_ADDRESS, SPIRE_LISTEN_PORT: API server bind address
//   - SPIRE_SEARCH_INDEX_ROOT: directory holding the search indices
//   - SPIRE_TOKEN_SIGNING_KEY: access token signing secret
//   - SPIRE_LOG_LEVEL: logging verbosity
//   - DATABASE_URL: database connection (read by pkg/db)
package config
