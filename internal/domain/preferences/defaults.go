package preferences

import (
	"fmt"
	"sort"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

// Setting describes one preference key
type Setting struct {
	Key         string      `json:"key"`
	Type        string      `json:"type"` // "string", "number", "boolean"
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Default     interface{} `json:"default"`
}

// Categories
const (
	CategoryAudio     = "audio"
	CategoryLibrary   = "library"
	CategoryInterface = "interface"
	CategoryBehavior  = "behavior"
)

var settings = []Setting{
	{Key: "fade_out_seconds", Type: "number", Category: CategoryAudio, Description: "Fade-out length when stopping playback", Default: 2.0},
	{Key: "audio_output_device", Type: "string", Category: CategoryAudio, Description: "Output device ID", Default: "default"},
	{Key: "master_volume", Type: "number", Category: CategoryAudio, Description: "Playback volume from 0 to 1", Default: 1.0},
	{Key: "database_directory", Type: "string", Category: CategoryLibrary, Description: "Directory containing the catalog database", Default: ""},
	{Key: "music_directory", Type: "string", Category: CategoryLibrary, Description: "Directory containing audio files", Default: ""},
	{Key: "screen_mode", Type: "string", Category: CategoryInterface, Description: "light, dark or system", Default: "system"},
	{Key: "font_size", Type: "number", Category: CategoryInterface, Description: "Base font size in points", Default: 11.0},
	{Key: "holding_tank_mode", Type: "string", Category: CategoryInterface, Description: "storage or playlist", Default: "storage"},
	{Key: "first_run_completed", Type: "boolean", Category: CategoryBehavior, Description: "Onboarding has been shown", Default: false},
	{Key: "loop_playlist", Type: "boolean", Category: CategoryBehavior, Description: "Restart the holding tank playlist at the end", Default: false},
	{Key: "debug_log_enabled", Type: "boolean", Category: CategoryBehavior, Description: "Write verbose diagnostics", Default: false},
}

// DeprecatedKeys are removed from preferences on load
var DeprecatedKeys = []string{
	"hotkey_directory",
	"holding_tank_directory",
	"browser_width",
	"browser_height",
}

// Settings returns every known preference definition
func Settings() []Setting {
	out := make([]Setting, len(settings))
	copy(out, settings)
	return out
}

// Defaults returns a fresh map of every default value
func Defaults() types.Preferences {
	out := make(types.Preferences, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Default
	}
	return out
}

// ByCategory groups definitions by category, each sorted by key
func ByCategory() map[string][]Setting {
	out := make(map[string][]Setting)
	for _, s := range settings {
		out[s.Category] = append(out[s.Category], s)
	}
	for _, group := range out {
		sort.Slice(group, func(i, j int) bool { return group[i].Key < group[j].Key })
	}
	return out
}

// Lookup returns the definition for key
func Lookup(key string) (Setting, bool) {
	for _, s := range settings {
		if s.Key == key {
			return s, true
		}
	}
	return Setting{}, false
}

// Validate checks known keys against their declared types. Unknown keys
// are allowed and kept as-is.
func Validate(prefs types.Preferences) error {
	for key, v := range prefs {
		s, ok := Lookup(key)
		if !ok {
			continue
		}
		if !compatible(s.Type, v) {
			return fmt.Errorf("%w: preference %q must be a %s", types.ErrValidation, key, s.Type)
		}
	}
	return nil
}

// compatible reports whether v can be stored under a setting of kind typ
func compatible(typ string, v interface{}) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "number":
		switch v.(type) {
		case float64, float32, int, int64, uint64:
			return true
		}
	}
	return false
}

// normalizeNumber converts integer kinds produced by YAML or TOML decoders
// to float64 so values compare equal to JSON-decoded ones.
func normalizeNumber(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}
