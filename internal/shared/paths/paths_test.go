package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Live Show", "Live Show"},
		{"  padded  ", "padded"},
		{"a/b\\c", "abc"},
		{"../../etc", "etc"},
		{"Friday: set #2!", "Friday set 2"},
		{"under_score-dash", "under_score-dash"},
		{"Café", "Caf"},
		{"***", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"Live Show", " x ", "a / b", "Ünïcödé name", "\ttab\t", "-- --", "a  b", "名前", "x!y@z#",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestLayout(t *testing.T) {
	l := NewLayout("/data")

	assert.Equal(t, filepath.Join("/data", "profiles.json"), l.RegistryFile())
	assert.Equal(t, filepath.Join("/data", "profiles", "Live Show"), l.ProfileDir("Live Show"))
	assert.Equal(t, filepath.Join("/data", "profiles", "Live Show", "preferences.json"), l.PreferencesFile("Live Show"))
	assert.Equal(t, filepath.Join("/data", "profiles", "Live Show", "state.json"), l.StateFile("Live Show"))
	assert.Equal(t, filepath.Join("/data", "profiles", "Live Show", "state.json.backup"), l.BackupFile("Live Show"))
	assert.Equal(t, filepath.Join("/data", "config.json"), l.LegacyStore())
}

func TestLayoutSanitizesProfileDir(t *testing.T) {
	l := NewLayout("/data")
	assert.Equal(t, l.ProfileDir("Show"), l.ProfileDir("Show/"))
	assert.Equal(t, filepath.Join("/data", "profiles", "etc"), l.ProfileDir("../../etc"))
}

func TestHasDirName(t *testing.T) {
	assert.True(t, HasDirName("Live Show"))
	assert.True(t, HasDirName("!x!"))
	assert.False(t, HasDirName("!!!"))
	assert.False(t, HasDirName("   "))
	assert.False(t, HasDirName(""))

	l := NewLayout("/data")
	assert.Equal(t, l.ProfilesDir(), l.ProfileDir("!!!"))
}
