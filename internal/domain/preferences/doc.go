// Package preferences provides per-profile settings storage.
//
// Each profile keeps its settings in profiles/<name>/preferences.json as a
// flat JSON object. Loading is forgiving about shape and strict about
// corruption:
//   - Missing profile directory: types.ErrNotFound
//   - Missing file: defaults are synthesized and persisted. For the
//     sentinel Default profile they are first seeded, key by key, from the
//     legacy single-profile store, and the migration marker is stamped
//   - Existing file: deprecated keys are stripped, legacy {success, value}
//     wrappers are unwrapped at any depth, the cleaned map is persisted if
//     anything changed, and missing default keys are filled in
//   - Malformed JSON: types.ErrFormat
//
// Example Usage:
//
//	store := preferences.NewStore(layout, preferences.NewFileLegacySource(path), logger)
//	prefs, err := store.Load(ctx, "Live Show")
//	prefs["fade_out_seconds"] = 3.0
//	err = store.Save(ctx, "Live Show", prefs)
package preferences
