package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/GriffinCanCode/CueDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/catalog"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/filesystem"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testCatalog() *catalog.Memory {
	return catalog.NewMemory(
		types.Item{ID: "1", Title: "Walk-on"},
		types.Item{ID: "2", Title: "Applause"},
		types.Item{ID: "3", Title: "Drum roll"},
	)
}

func startHost(t *testing.T, opts Options) (*Host, *monitoring.Metrics) {
	t.Helper()
	if opts.UserDataDir == "" {
		opts.UserDataDir = t.TempDir()
	}
	metrics := monitoring.NewMetrics()
	h, err := New(opts, testCatalog(), nil, metrics)
	require.NoError(t, err)
	_, err = h.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = h.Shutdown(context.Background()) })
	return h, metrics
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{}, testCatalog(), nil, nil)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = New(Options{UserDataDir: t.TempDir()}, nil, nil, nil)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestStartSeedsDefault(t *testing.T) {
	h, _ := startHost(t, Options{})

	st := h.Status()
	assert.Equal(t, types.DefaultProfileName, st.Profile)
	assert.True(t, st.Started)
	assert.False(t, st.Restoring)
	assert.Equal(t, "idle", st.Lock)
	assert.Equal(t, "system", h.Preferences()["screen_mode"])
}

func TestStartUsesConfiguredProfile(t *testing.T) {
	dir := t.TempDir()

	first, err := New(Options{UserDataDir: dir}, testCatalog(), nil, nil)
	require.NoError(t, err)
	_, err = first.Start(context.Background())
	require.NoError(t, err)
	_, err = first.CreateProfile(context.Background(), "Gig", "")
	require.NoError(t, err)
	_, err = first.Shutdown(context.Background())
	require.NoError(t, err)

	h, _ := startHost(t, Options{UserDataDir: dir, ActiveProfile: "Gig"})
	assert.Equal(t, "Gig", h.ActiveProfile())
}

func TestStartFallsBackFromMissingProfile(t *testing.T) {
	h, _ := startHost(t, Options{ActiveProfile: "Nobody"})
	assert.Equal(t, types.DefaultProfileName, h.ActiveProfile())
}

func TestSwitchRestoresLayout(t *testing.T) {
	h, metrics := startHost(t, Options{})
	ctx := context.Background()

	_, err := h.CreateProfile(ctx, "Gig", "")
	require.NoError(t, err)
	require.NoError(t, h.SavePreferences(ctx, "Gig", types.Preferences{"screen_mode": "dark"}))

	require.NoError(t, h.View().Replace(types.KindHotkeys, []types.TabAssignment{
		{TabNumber: 2, Slots: map[string]string{"f5": "3"}},
	}))
	require.NoError(t, h.View().Replace(types.KindHoldingTank, []types.TabAssignment{
		{TabNumber: 1, Items: []string{"1", "2"}},
	}))

	res, err := h.Switch(ctx, "Gig")
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.True(t, res.Reactivated)
	assert.Equal(t, "Gig", h.ActiveProfile())
	assert.Equal(t, "dark", h.Preferences()["screen_mode"])
	assert.Zero(t, h.View().Counts()[types.KindHotkeys])
	assert.False(t, h.Status().Restoring)

	_, err = h.Switch(ctx, types.DefaultProfileName)
	require.NoError(t, err)
	counts := h.View().Counts()
	assert.Equal(t, 1, counts[types.KindHotkeys])
	assert.Equal(t, 2, counts[types.KindHoldingTank])

	tank := h.View().GetAssignments(types.KindHoldingTank)
	require.NotEmpty(t, tank)
	assert.Equal(t, []string{"1", "2"}, tank[0].Items)

	assert.EqualValues(t, 2, metrics.Snapshot().Switches)
}

func TestSwitchEdgeCases(t *testing.T) {
	h, _ := startHost(t, Options{})
	ctx := context.Background()

	res, err := h.Switch(ctx, types.DefaultProfileName)
	require.NoError(t, err)
	assert.True(t, res.NoOp)

	_, err = h.Switch(ctx, "Nobody")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, types.DefaultProfileName, h.ActiveProfile())
}

func TestDeleteActiveRefused(t *testing.T) {
	h, _ := startHost(t, Options{})
	ctx := context.Background()

	_, err := h.CreateProfile(ctx, "Gig", "")
	require.NoError(t, err)
	_, err = h.Switch(ctx, "Gig")
	require.NoError(t, err)

	assert.ErrorIs(t, h.DeleteProfile(ctx, "Gig"), types.ErrValidation)

	_, err = h.Switch(ctx, types.DefaultProfileName)
	require.NoError(t, err)
	assert.NoError(t, h.DeleteProfile(ctx, "Gig"))
}

func TestSavePreferencesRejectsBadTypes(t *testing.T) {
	h, _ := startHost(t, Options{})

	err := h.SavePreferences(context.Background(), types.DefaultProfileName, types.Preferences{"master_volume": "loud"})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, 1.0, h.Preferences()["master_volume"])
}

func TestShutdownQuitSave(t *testing.T) {
	dir := t.TempDir()
	h, err := New(Options{UserDataDir: dir}, testCatalog(), nil, nil)
	require.NoError(t, err)
	_, err = h.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.View().Replace(types.KindSoundboard, []types.TabAssignment{
		{TabNumber: 1, Slots: map[string]string{"1-1": "2"}},
	}))

	res, err := h.Shutdown(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.FileExists(t, paths.NewLayout(dir).StateFile(types.DefaultProfileName))

	_, err = h.Shutdown(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestShutdownDuringRestoreSkipsSave(t *testing.T) {
	h, _ := startHost(t, Options{})
	ctx := context.Background()

	require.NoError(t, h.View().Replace(types.KindHoldingTank, []types.TabAssignment{
		{TabNumber: 1, Items: []string{"1"}},
	}))
	_, err := h.Save(ctx)
	require.NoError(t, err)
	_, err = h.Load(ctx)
	require.NoError(t, err)
	require.True(t, h.Status().Restoring)

	res, err := h.Shutdown(ctx)
	require.NoError(t, err)
	assert.True(t, res.Refused)
	assert.False(t, res.Saved)
}

func TestAutosave(t *testing.T) {
	dir := t.TempDir()
	h, _ := startHost(t, Options{UserDataDir: dir, AutosaveInterval: 10 * time.Millisecond})

	state := paths.NewLayout(dir).StateFile(types.DefaultProfileName)
	require.NoError(t, h.View().Replace(types.KindHotkeys, []types.TabAssignment{
		{TabNumber: 1, Slots: map[string]string{"f1": "1"}},
	}))

	assert.Eventually(t, func() bool {
		ok, _ := fileExists(state)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSwitchDuringRestoreKeepsTargetLayout(t *testing.T) {
	dir := t.TempDir()
	h, _ := startHost(t, Options{UserDataDir: dir})
	ctx := context.Background()

	_, err := h.CreateProfile(ctx, "Gig", "")
	require.NoError(t, err)
	_, err = h.Switch(ctx, "Gig")
	require.NoError(t, err)
	require.NoError(t, h.View().Replace(types.KindHoldingTank, []types.TabAssignment{
		{TabNumber: 1, Items: []string{"1", "2", "3"}},
	}))
	_, err = h.Switch(ctx, types.DefaultProfileName)
	require.NoError(t, err)

	require.NoError(t, h.View().Replace(types.KindHotkeys, []types.TabAssignment{
		{TabNumber: 1, Slots: map[string]string{"f1": "1"}},
	}))
	_, err = h.Save(ctx)
	require.NoError(t, err)
	_, err = h.Load(ctx)
	require.NoError(t, err)
	require.True(t, h.Status().Restoring)

	res, err := h.Switch(ctx, "Gig")
	require.NoError(t, err)
	assert.True(t, res.SaveSkipped)
	assert.Equal(t, "Gig", h.ActiveProfile())
	assert.False(t, h.Status().Restoring)

	tank := h.View().GetAssignments(types.KindHoldingTank)
	require.NotEmpty(t, tank)
	assert.Equal(t, []string{"1", "2", "3"}, tank[0].Items)

	saved, err := h.Save(ctx)
	require.NoError(t, err)
	require.True(t, saved.Saved)

	var state types.SessionState
	require.NoError(t, filesystem.ReadJSON(paths.NewLayout(dir).StateFile("Gig"), &state))
	assert.Equal(t, 3, state.ItemCount())
}

// cancellingCatalog cancels the switch context on its first lookup once
// armed, failing the restore halfway through.
type cancellingCatalog struct {
	*catalog.Memory
	mu     sync.Mutex
	cancel context.CancelFunc
}

func (c *cancellingCatalog) arm(cancel context.CancelFunc) {
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
}

func (c *cancellingCatalog) Lookup(ctx context.Context, id string) (types.Item, bool, error) {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return c.Memory.Lookup(ctx, id)
}

func TestFailedRestoreHoldsSaves(t *testing.T) {
	dir := t.TempDir()
	cat := &cancellingCatalog{Memory: testCatalog()}
	h, err := New(Options{UserDataDir: dir}, cat, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = h.Start(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = h.Shutdown(context.Background()) })

	_, err = h.CreateProfile(ctx, "Gig", "")
	require.NoError(t, err)
	_, err = h.Switch(ctx, "Gig")
	require.NoError(t, err)
	require.NoError(t, h.View().Replace(types.KindHoldingTank, []types.TabAssignment{
		{TabNumber: 1, Items: []string{"1", "2"}},
	}))
	_, err = h.Switch(ctx, types.DefaultProfileName)
	require.NoError(t, err)

	switchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	cat.arm(cancel)
	_, err = h.Switch(switchCtx, "Gig")
	require.NoError(t, err)
	assert.Equal(t, "Gig", h.ActiveProfile())
	assert.True(t, h.Status().Restoring, "a failed restore keeps saves held")

	res, err := h.Save(ctx)
	require.NoError(t, err)
	assert.True(t, res.Refused)

	var state types.SessionState
	require.NoError(t, filesystem.ReadJSON(paths.NewLayout(dir).StateFile("Gig"), &state))
	assert.Equal(t, 2, state.ItemCount())

	assert.True(t, h.Unlock())
}
