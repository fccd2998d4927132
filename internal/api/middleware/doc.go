// Package middleware provides the HTTP middleware of the control API.
//
// Middleware stack:
//   - Recovery: panic recovery with a JSON 500 and a zap log line
//   - RequestID: ULID request IDs in the X-Request-ID header
//   - Logger: one structured log line per request
//   - CORS: origins of the renderer
//   - RateLimit: per-IP token bucket with idle client expiry
//
// Example Usage:
//
//	router.Use(middleware.Recovery(logger), middleware.RequestID())
//	router.Use(middleware.CORS(middleware.CORSConfigFor(cfg.Server.AllowedOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
