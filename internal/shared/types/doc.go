// Package types provides shared data structures for the CueDeck backend.
//
// This package defines the data model shared by the profile, preferences,
// and session packages so that none of them has to import another just to
// describe a value.
//
// Core Types:
//   - Profile: A named, isolated bundle of preferences and session layout
//   - Registry: The profiles.json document listing every profile
//   - Preferences: Per-profile key/value settings
//   - SessionState: The persisted state.json payload
//   - TabAssignment: One tab of one assignment kind, normalized
//   - Item: A catalog record used to validate restored assignments
//
// Errors:
//   - ErrValidation: user-correctable input problems
//   - ErrNotFound: missing profile or directory
//   - ErrFormat: malformed source-of-truth documents
//
// Example Usage:
//
//	state := types.NewSessionState(time.Now())
//	state.SetTabs(types.KindHotkeys, tabs)
//	if state.IsEmpty() {
//	    // nothing worth restoring
//	}
package types
