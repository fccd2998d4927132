// Package paths provides the on-disk layout for profile data.
//
// Sanitize is the only routine that derives a profile directory name from a
// human profile name. Every component that touches a profile directory goes
// through Layout, which calls Sanitize, so one logical profile can never be
// split across two directories.
//
// # Directory Structure
//
//	<userData>/
//	  ├── profiles.json
//	  ├── config.json                (legacy single-profile store)
//	  └── profiles/
//	      └── <sanitized-name>/
//	          ├── preferences.json
//	          ├── state.json
//	          └── state.json.backup
//
// # Usage
//
//	layout := paths.NewLayout(userData)
//	dir := layout.ProfileDir("Live Show")     // <userData>/profiles/Live Show
//	state := layout.StateFile("Live Show")    // .../Live Show/state.json
package paths
