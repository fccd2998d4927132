package preferences

import (
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

// Unwrap replaces any {success, value} or {success, value, error} object
// with its value, recursing through nested objects and arrays. It reports
// whether anything changed.
func Unwrap(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		if inner, ok := wrapped(t); ok {
			out, _ := Unwrap(inner)
			return out, true
		}
		changed := false
		for k, child := range t {
			if out, c := Unwrap(child); c {
				t[k] = out
				changed = true
			}
		}
		return t, changed
	case []interface{}:
		changed := false
		for i, child := range t {
			if out, c := Unwrap(child); c {
				t[i] = out
				changed = true
			}
		}
		return t, changed
	}
	return v, false
}

// wrapped matches exactly the legacy wrapper shape
func wrapped(m map[string]interface{}) (interface{}, bool) {
	if _, ok := m["success"].(bool); !ok {
		return nil, false
	}
	value, ok := m["value"]
	if !ok {
		return nil, false
	}
	switch len(m) {
	case 2:
		return value, true
	case 3:
		if _, ok := m["error"]; ok {
			return value, true
		}
	}
	return nil, false
}

// Clean strips deprecated keys and unwraps legacy wrappers in place,
// reporting whether prefs changed.
func Clean(prefs types.Preferences) bool {
	changed := false
	for _, key := range DeprecatedKeys {
		if _, ok := prefs[key]; ok {
			delete(prefs, key)
			changed = true
		}
	}
	for key, v := range prefs {
		if out, c := Unwrap(v); c {
			prefs[key] = out
			changed = true
		}
	}
	return changed
}

// FillDefaults adds every missing default key to prefs
func FillDefaults(prefs types.Preferences) {
	for key, v := range Defaults() {
		if _, ok := prefs[key]; !ok {
			prefs[key] = v
		}
	}
}
