// Package main is the entry point for the CueDeck backend server.
//
// The server owns the active profile and the in-process layout. The
// renderer pushes its tabs over HTTP and asks for saves, restores and
// profile switches; on SIGINT or SIGTERM the layout is saved to the
// active profile before exit.
//
// Configuration:
//   - Defaults, then the file named by CUEDECK_CONFIG (YAML or TOML)
//   - Environment variables (CUEDECK_*)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8000 -data ~/.config/CueDeck
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown with the quit save
package main
