package registry

import (
	"sort"
	"strings"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of a trimmed profile name
func Fold(name string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(name))
}

// FindFold returns the registered profile whose name equals name under
// case folding, if any
func FindFold(reg *types.Registry, name string) (types.Profile, bool) {
	if reg == nil {
		return types.Profile{}, false
	}
	if p, ok := reg.Profiles[name]; ok {
		return p, true
	}
	folded := Fold(name)
	for key, p := range reg.Profiles {
		if Fold(key) == folded {
			return p, true
		}
	}
	return types.Profile{}, false
}

// FindDirClash returns a registered profile, other than exclude, whose
// sanitized directory equals name's under case folding
func FindDirClash(reg *types.Registry, name, exclude string) (types.Profile, bool) {
	if reg == nil {
		return types.Profile{}, false
	}
	dir := dirKey(name)
	if dir == "" {
		return types.Profile{}, false
	}
	for key, p := range reg.Profiles {
		if key == exclude {
			continue
		}
		if dirKey(key) == dir {
			return p, true
		}
	}
	return types.Profile{}, false
}

// dirKey is the directory identity of a profile name: its sanitized
// directory name, case folded. It is "" for names with no directory.
func dirKey(name string) string {
	return Fold(paths.Sanitize(name))
}

// CaseClashes groups registered names that collide under case folding,
// either directly or through their sanitized directory. Each group is
// sorted; groups are ordered by their first name. Names without a
// directory are reported by Undirected instead.
func CaseClashes(reg *types.Registry) [][]string {
	if reg == nil {
		return nil
	}
	groups := make(map[string][]string)
	for name := range reg.Profiles {
		key := dirKey(name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], name)
	}

	var clashes [][]string
	for _, names := range groups {
		if len(names) > 1 {
			sort.Strings(names)
			clashes = append(clashes, names)
		}
	}
	sort.Slice(clashes, func(i, j int) bool { return clashes[i][0] < clashes[j][0] })
	return clashes
}

// Undirected returns the sorted registered names that sanitize to an
// empty directory name. Such entries only arrive through external edits.
func Undirected(reg *types.Registry) []string {
	if reg == nil {
		return nil
	}
	var names []string
	for name := range reg.Profiles {
		if !paths.HasDirName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
