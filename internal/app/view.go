package app

import (
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

// View is the in-process layout model. Kinds must be mounted before a
// restore can write into them.
type View struct {
	mu      sync.RWMutex
	tabs    map[types.Kind]map[int]types.TabAssignment
	mounted map[types.Kind]int
	version uint64
}

// NewView creates a view with every kind mounted with all tabs
func NewView() *View {
	v := &View{
		tabs:    make(map[types.Kind]map[int]types.TabAssignment),
		mounted: make(map[types.Kind]int),
	}
	for _, kind := range types.Kinds() {
		v.mounted[kind] = types.TabCount
	}
	return v
}

// Mount makes the first tabs tabs of kind available to restores
func (v *View) Mount(kind types.Kind, tabs int) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", types.ErrValidation, kind)
	}
	if tabs < 0 || tabs > types.TabCount {
		return fmt.Errorf("%w: tab count %d outside 0..%d", types.ErrValidation, tabs, types.TabCount)
	}
	v.mu.Lock()
	v.mounted[kind] = tabs
	v.mu.Unlock()
	return nil
}

// Unmount removes kind from restores; its assignments are kept
func (v *View) Unmount(kind types.Kind) {
	v.mu.Lock()
	delete(v.mounted, kind)
	v.mu.Unlock()
}

// GetAssignments returns kind's tabs ascending by number
func (v *View) GetAssignments(kind types.Kind) []types.TabAssignment {
	v.mu.RLock()
	defer v.mu.RUnlock()

	byNumber := v.tabs[kind]
	out := make([]types.TabAssignment, 0, len(byNumber))
	for _, t := range byNumber {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TabNumber < out[j].TabNumber })
	return out
}

// HasKind reports whether kind is mounted
func (v *View) HasKind(kind types.Kind) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.mounted[kind]
	return ok
}

// HasTab reports whether tab of kind is mounted
func (v *View) HasTab(kind types.Kind, tab int) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, ok := v.mounted[kind]
	return ok && tab >= 1 && tab <= n
}

// ApplyAssignments replaces the given tabs of kind. Tabs not listed keep
// their current content.
func (v *View) ApplyAssignments(kind types.Kind, tabs []types.TabAssignment) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", types.ErrValidation, kind)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setLocked(kind, tabs)
	return nil
}

// Replace sets the tabs of kind as pushed by the renderer. Tabs outside
// 1..TabCount are rejected.
func (v *View) Replace(kind types.Kind, tabs []types.TabAssignment) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", types.ErrValidation, kind)
	}
	for _, t := range tabs {
		if !types.ValidTab(t.TabNumber) {
			return fmt.Errorf("%w: tab %d outside 1..%d", types.ErrValidation, t.TabNumber, types.TabCount)
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tabs[kind] = make(map[int]types.TabAssignment, len(tabs))
	v.setLocked(kind, tabs)
	return nil
}

func (v *View) setLocked(kind types.Kind, tabs []types.TabAssignment) {
	byNumber := v.tabs[kind]
	if byNumber == nil {
		byNumber = make(map[int]types.TabAssignment, len(tabs))
		v.tabs[kind] = byNumber
	}
	for _, t := range tabs {
		t = t.Clone()
		t.Kind = kind
		byNumber[t.TabNumber] = t
	}
	v.version++
}

// Clear empties every kind, as on a profile switch before the restore
func (v *View) Clear() {
	v.mu.Lock()
	v.tabs = make(map[types.Kind]map[int]types.TabAssignment)
	v.version++
	v.mu.Unlock()
}

// Version increases on every change
func (v *View) Version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// Counts returns the number of assigned items per kind
func (v *View) Counts() map[types.Kind]int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[types.Kind]int, len(v.tabs))
	for _, kind := range types.Kinds() {
		n := 0
		for _, t := range v.tabs[kind] {
			n += t.Len()
		}
		out[kind] = n
	}
	return out
}
