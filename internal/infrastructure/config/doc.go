// Package config provides 12-factor configuration management for the CueDeck backend.
//
// Configuration is layered: built-in defaults, then an optional YAML or TOML
// file named by CUEDECK_CONFIG, then environment variables. CLI flags in the
// binaries override the result for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP control API settings (port, host, CORS origins)
//   - Storage: User data directory, legacy store, startup profile
//   - Session: Quit-save timeout, catalog lookup concurrency, autosave
//   - Catalog: Item catalog driver (memory, sqlite, remote)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Profiles stored under %s\n", cfg.Storage.UserDataDir)
//
// Environment Variables:
//   - CUEDECK_PORT, CUEDECK_HOST, CUEDECK_ALLOWED_ORIGINS
//   - CUEDECK_USER_DATA_DIR, CUEDECK_LEGACY_STORE, CUEDECK_ACTIVE_PROFILE
//   - CUEDECK_SESSION_QUIT_TIMEOUT, CUEDECK_CATALOG_DRIVER, CUEDECK_CATALOG_DB
//   - CUEDECK_LOG_LEVEL, CUEDECK_LOG_DEV
//   - CUEDECK_RATE_LIMIT_RPS, CUEDECK_RATE_LIMIT_BURST
package config
