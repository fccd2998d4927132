package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

type fakeActive struct {
	mu   sync.Mutex
	name string
}

func (a *fakeActive) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

func (a *fakeActive) Set(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.name = name
}

// fakeView is both source and sink. Every kind and tab is mounted unless
// listed in unmountedKinds or unmountedTabs.
type fakeView struct {
	mu             sync.Mutex
	tabs           map[types.Kind][]types.TabAssignment
	unmountedKinds map[types.Kind]bool
	unmountedTabs  map[int]bool
	applyErr       error
	applyCalls     int
	onRead         func()
}

func newFakeView() *fakeView {
	return &fakeView{tabs: map[types.Kind][]types.TabAssignment{}}
}

func (v *fakeView) GetAssignments(kind types.Kind) []types.TabAssignment {
	if v.onRead != nil {
		v.onRead()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]types.TabAssignment(nil), v.tabs[kind]...)
}

func (v *fakeView) HasKind(kind types.Kind) bool {
	return !v.unmountedKinds[kind]
}

func (v *fakeView) HasTab(_ types.Kind, tab int) bool {
	return !v.unmountedTabs[tab]
}

func (v *fakeView) ApplyAssignments(kind types.Kind, tabs []types.TabAssignment) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.applyCalls++
	if v.applyErr != nil {
		return v.applyErr
	}
	v.tabs[kind] = tabs
	return nil
}

func (v *fakeView) set(kind types.Kind, tabs ...types.TabAssignment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tabs[kind] = tabs
}

func (v *fakeView) tab(kind types.Kind, n int) (types.TabAssignment, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, t := range v.tabs[kind] {
		if t.TabNumber == n {
			return t, true
		}
	}
	return types.TabAssignment{}, false
}

var errCatalogDown = errors.New("catalog unreachable")

// fakeCatalog knows every ID unless it is listed as missing or failing
type fakeCatalog struct {
	missing map[string]bool
	failing map[string]bool
	calls   atomic.Int32
}

func (c *fakeCatalog) Lookup(ctx context.Context, id string) (types.Item, bool, error) {
	c.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return types.Item{}, false, err
	}
	if c.failing[id] {
		return types.Item{}, false, errCatalogDown
	}
	if c.missing[id] {
		return types.Item{}, false, nil
	}
	return types.Item{ID: id, Title: "Song " + id}, true, nil
}

type countingRecorder struct {
	mu             sync.Mutex
	saves          map[string]int
	loads          map[string]int
	backupFailures int
	restoring      bool
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{saves: map[string]int{}, loads: map[string]int{}}
}

func (r *countingRecorder) RecordSave(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves[result]++
}

func (r *countingRecorder) RecordLoad(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads[result]++
}

func (r *countingRecorder) RecordBackupFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backupFailures++
}

func (r *countingRecorder) SetRestoring(restoring bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restoring = restoring
}

func strPtr(s string) *string { return &s }

func hotkeyTab(n int, slots map[string]string) types.TabAssignment {
	return types.TabAssignment{Kind: types.KindHotkeys, TabNumber: n, Slots: slots}
}

func tankTab(n int, items ...string) types.TabAssignment {
	return types.TabAssignment{Kind: types.KindHoldingTank, TabNumber: n, Items: items}
}

func boardTab(n int, buttons map[string]string) types.TabAssignment {
	return types.TabAssignment{Kind: types.KindSoundboard, TabNumber: n, Slots: buttons}
}
