// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Child loggers carry the fields every subsystem line needs:
//
//	log := logging.NewDefault().Component("session")
//	log.ForProfile("Live Show").Warn("Backup failed", zap.Error(err))
//
// Warnings that are expected in normal operation (a dropped catalog item,
// a refused save during restoration, an idempotent unlock) are logged at
// Warn or Debug and never returned as errors.
package logging
