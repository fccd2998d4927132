// Package registry provides the profile registry, the single source of
// truth for which profiles exist.
//
// The registry is one JSON document, profiles.json, mapping profile names
// to their metadata. It is never empty: a missing file is seeded with the
// sentinel Default profile and persisted. A file that exists but does not
// parse is reported as types.ErrFormat and never rewritten, because a
// fresh registry would forget which profile directories already hold
// real data.
//
// Components:
//   - Store: Load and read-modify-write Update under a single writer lock
//   - Watcher: fsnotify watch that invalidates the Store cache on external
//     edits and reports names that differ only by case
//   - Fold / FindFold / CaseClashes: case-insensitive name comparison
//
// Lookups by name are exact. Only creation and duplicate detection compare
// names case-insensitively.
//
// Example Usage:
//
//	store := registry.NewStore(layout, logger)
//	reg, err := store.Load(ctx)
//	err = store.Update(ctx, func(reg *types.Registry) error {
//	    reg.Profiles[p.Name] = p
//	    return nil
//	})
package registry
