// Package profile provides the profile lifecycle: list, validate, create,
// delete, duplicate, export and import of isolated per-profile storage.
//
// A profile is always in one of three observable states: absent,
// registered, or registered with preferences. Operations order their disk
// and registry steps so a crash can leave at worst an orphaned directory
// with no registry entry, never a registry entry without its data:
//   - Create writes the directory and default preferences, then registers
//   - Duplicate copies the whole tree to completion, then registers
//   - Delete removes and verifies the directory, then unregisters
//
// Name rules:
//   - 1 to 50 characters after trimming
//   - must sanitize to a non-empty directory name
//   - unique under case folding, by name and by sanitized directory
//
// Lookups (Get, Exists, LoadPreferences) use the exact name.
//
// Example Usage:
//
//	mgr := profile.NewManager(store, prefs, layout, logger)
//	p, err := mgr.Create(ctx, "Live Show", "Friday set")
//	err = mgr.Delete(ctx, "Live Show")
package profile
