// Package session provides session state extraction, persistence and
// restoration for the active profile.
//
// The live layout is reached only through ViewSource (read) and ViewSink
// (write). The Codec converts between that view and types.SessionState;
// the Engine persists it to profiles/<name>/state.json.
//
// Restoration Lock:
//
//	Idle --Load()--> Restoring --Unlock()--> Idle
//	               \--any Load error--> Idle
//
// Load leaves the lock held on success. The host releases it with Unlock
// only after its whole startup sequence has finished, because later
// initialization can trigger a save before the view is fully populated.
// While Restoring, Save and SaveOnQuit are refused with no filesystem
// access, and SwitchWithSave skips its save but still switches.
//
// Writes:
//   - The profile name is resolved once per operation and passed to the
//     write explicitly, so a concurrent pointer change cannot redirect it
//   - The previous state.json is copied to state.json.backup first (best
//     effort), then the new file replaces it by atomic rename
//
// Reads degrade instead of failing: a missing, unreadable, malformed or
// empty state file yields LoadResult{Loaded: false}.
//
// Example Usage:
//
//	engine := session.NewEngine(layout, active, view, session.NewCodec(logger, 8), logger)
//	res, err := engine.Load(ctx, view, catalog)
//	// ... rest of startup ...
//	engine.Unlock()
package session
