// Package http provides the HTTP control API of the CueDeck backend.
//
// Endpoints:
//   - Health: /health
//   - Profiles: /profiles, /profiles/:name, /profiles/:name/duplicate,
//     /profiles/:name/preferences, /profiles/:name/export, /profiles/import
//   - Session: /session/status, /session/save, /session/load,
//     /session/unlock, /session/switch
//   - Layout: /layout, /layout/:kind, /layout/:kind/mount
//
// Errors are JSON objects with "error" and "code". Validation failures map
// to 400, missing profiles to 404, a restore in progress to 409 and
// malformed source documents to 500.
//
// Example Usage:
//
//	handlers := http.NewHandlers(host, "1.0.0", logger)
//	handlers.Register(router)
package http
