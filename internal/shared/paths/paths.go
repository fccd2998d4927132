package paths

import (
	"path/filepath"
	"strings"
)

// File and directory names within the user data directory
const (
	RegistryFileName    = "profiles.json"
	ProfilesDirName     = "profiles"
	PreferencesFileName = "preferences.json"
	StateFileName       = "state.json"
	BackupSuffix        = ".backup"
	LegacyStoreFileName = "config.json"
)

// Sanitize maps a profile name to a filesystem-safe directory name.
// Characters other than ASCII letters, digits, space, hyphen and
// underscore are removed and surrounding spaces are trimmed.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if allowed(c) {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

// HasDirName reports whether name sanitizes to a non-empty directory
// name. ProfileDir of any other name is the profiles root itself.
func HasDirName(name string) bool {
	return Sanitize(name) != ""
}

func allowed(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == ' ', c == '-', c == '_':
		return true
	}
	return false
}

// Layout resolves every profile path under one user data directory
type Layout struct {
	UserData string
}

// NewLayout returns a Layout rooted at userData
func NewLayout(userData string) Layout {
	return Layout{UserData: userData}
}

// RegistryFile returns the path of profiles.json
func (l Layout) RegistryFile() string {
	return filepath.Join(l.UserData, RegistryFileName)
}

// ProfilesDir returns the directory holding every profile directory
func (l Layout) ProfilesDir() string {
	return filepath.Join(l.UserData, ProfilesDirName)
}

// ProfileDir returns the directory of the named profile
func (l Layout) ProfileDir(name string) string {
	return filepath.Join(l.ProfilesDir(), Sanitize(name))
}

// PreferencesFile returns the preferences path of the named profile
func (l Layout) PreferencesFile(name string) string {
	return filepath.Join(l.ProfileDir(name), PreferencesFileName)
}

// StateFile returns the session state path of the named profile
func (l Layout) StateFile(name string) string {
	return filepath.Join(l.ProfileDir(name), StateFileName)
}

// BackupFile returns the one-generation backup of the state file
func (l Layout) BackupFile(name string) string {
	return l.StateFile(name) + BackupSuffix
}

// LegacyStore returns the pre-profile settings store path
func (l Layout) LegacyStore() string {
	return filepath.Join(l.UserData, LegacyStoreFileName)
}
