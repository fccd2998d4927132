package profile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/preferences"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/registry"
	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu  sync.Mutex
	ops map[string]int
}

func (r *countingRecorder) RecordProfileOp(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ops == nil {
		r.ops = map[string]int{}
	}
	r.ops[op+"/"+result]++
}

type failingPrefs struct {
	*preferences.Store
}

func (failingPrefs) WriteDefaults(context.Context, string) error {
	return errors.New("disk full")
}

func newManager(t *testing.T) (*Manager, paths.Layout) {
	t.Helper()
	layout := paths.NewLayout(t.TempDir())
	logger := logging.NewNop()
	store := registry.NewStore(layout, logger)
	prefs := preferences.NewStore(layout, nil, logger)
	return NewManager(store, prefs, layout, logger), layout
}

func names(profiles []types.Profile) []string {
	out := make([]string, len(profiles))
	for i, p := range profiles {
		out[i] = p.Name
	}
	return out
}

func TestListSeedsSentinel(t *testing.T) {
	mgr, _ := newManager(t)

	profiles, err := mgr.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{types.DefaultProfileName}, names(profiles))
}

func TestCreateProfile(t *testing.T) {
	mgr, layout := newManager(t)
	ctx := context.Background()

	p, err := mgr.Create(ctx, "Live Show", "Friday set")
	require.NoError(t, err)
	assert.Equal(t, "Live Show", p.Name)
	assert.Equal(t, "Friday set", p.Description)
	assert.NotEmpty(t, p.ID)

	_, err = os.Stat(filepath.Join(layout.UserData, "profiles", "Live Show", "preferences.json"))
	require.NoError(t, err)

	prefs, err := mgr.LoadPreferences(ctx, "Live Show")
	require.NoError(t, err)
	assert.Equal(t, preferences.Defaults(), prefs)

	profiles, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	assert.Equal(t, []string{types.DefaultProfileName, "Live Show"}, names(profiles))
}

func TestCreateCaseInsensitiveClash(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, "A", "")
	require.NoError(t, err)

	_, err = mgr.Create(ctx, "a", "")
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestCreateDeleteCreateYieldsFreshPreferences(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, "A", "")
	require.NoError(t, err)
	require.NoError(t, mgr.SavePreferences(ctx, "A", types.Preferences{"font_size": 20.0, "custom": "x"}))

	require.NoError(t, mgr.Delete(ctx, "A"))

	_, err = mgr.Create(ctx, "A", "")
	require.NoError(t, err)

	prefs, err := mgr.LoadPreferences(ctx, "A")
	require.NoError(t, err)
	assert.False(t, prefs.Migrated())
	assert.Equal(t, preferences.Defaults(), prefs)
}

func TestValidateName(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	_, err := mgr.Create(ctx, "Live Show", "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "Rehearsal", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"fifty chars", strings.Repeat("x", 50), false},
		{"fifty one chars", strings.Repeat("x", 51), true},
		{"fifty multibyte chars", strings.Repeat("é", 49) + "a", false},
		{"sanitizes to empty", "!!!", true},
		{"sentinel variant", "default", true},
		{"case variant", "LIVE SHOW", true},
		{"directory clash", "Live Show?", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mgr.ValidateName(ctx, tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, types.ErrValidation), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateReplacesOrphanedDirectory(t *testing.T) {
	mgr, layout := newManager(t)
	ctx := context.Background()

	orphan := layout.ProfileDir("Orphan")
	require.NoError(t, os.MkdirAll(orphan, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(orphan, "state.json"), []byte("stale"), 0o644))

	_, err := mgr.Create(ctx, "Orphan", "")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(orphan, "state.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "orphaned contents must be cleared")
}

func TestCreatePreferencesFailureLeavesRegistryUntouched(t *testing.T) {
	layout := paths.NewLayout(t.TempDir())
	logger := logging.NewNop()
	store := registry.NewStore(layout, logger)
	prefs := failingPrefs{preferences.NewStore(layout, nil, logger)}
	mgr := NewManager(store, prefs, layout, logger)
	ctx := context.Background()

	_, err := mgr.Create(ctx, "Doomed", "")
	require.Error(t, err)

	exists, err := mgr.Exists(ctx, "Doomed")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = os.Stat(layout.ProfileDir("Doomed"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDelete(t *testing.T) {
	mgr, layout := newManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, "Live Show", "")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(ctx, "Live Show"))

	_, err = os.Stat(layout.ProfileDir("Live Show"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	profiles, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{types.DefaultProfileName}, names(profiles))
}

func TestDeleteRules(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()

	err := mgr.Delete(ctx, types.DefaultProfileName)
	assert.True(t, errors.Is(err, types.ErrValidation))

	err = mgr.Delete(ctx, "Nobody")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	profiles, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, profiles)
}

func TestDeleteRefusesSharedDirectory(t *testing.T) {
	mgr, layout := newManager(t)
	ctx := context.Background()

	content := `{"version":1,"profiles":{
  "Default":{"id":"d","name":"Default"},
  "Show":{"id":"a","name":"Show"},
  "show!":{"id":"b","name":"show!"}}}`
	require.NoError(t, os.WriteFile(layout.RegistryFile(), []byte(content), 0o644))
	require.NoError(t, os.MkdirAll(layout.ProfileDir("Show"), 0o755))

	err := mgr.Delete(ctx, "show!")
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = os.Stat(layout.ProfileDir("Show"))
	assert.NoError(t, err, "shared directory must survive")
}

func TestNameWithoutDirectoryIsRefused(t *testing.T) {
	mgr, layout := newManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, "Live Show", "")
	require.NoError(t, err)
	require.NoError(t, mgr.registry.Update(ctx, func(reg *types.Registry) error {
		reg.Profiles["!!!"] = registry.NewProfile("!!!", "", time.Now())
		return nil
	}))

	err = mgr.Delete(ctx, "!!!")
	assert.True(t, errors.Is(err, types.ErrValidation))
	_, err = os.Stat(layout.ProfileDir("Live Show"))
	assert.NoError(t, err, "other profiles must survive")

	_, err = mgr.Duplicate(ctx, "!!!", "Copy", "")
	assert.True(t, errors.Is(err, types.ErrValidation))
	_, err = os.Stat(layout.ProfileDir("Copy"))
	assert.True(t, os.IsNotExist(err))

	_, err = mgr.Export(ctx, "!!!", &bytes.Buffer{})
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = mgr.LoadPreferences(ctx, "!!!")
	assert.True(t, errors.Is(err, types.ErrValidation))
	err = mgr.SavePreferences(ctx, "!!!", preferences.Defaults())
	assert.True(t, errors.Is(err, types.ErrValidation))
	_, err = os.Stat(filepath.Join(layout.ProfilesDir(), paths.PreferencesFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestExactLookups(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, "Live Show", "")
	require.NoError(t, err)

	exists, err := mgr.Exists(ctx, "live show")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = mgr.Get(ctx, "live show")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = mgr.LoadPreferences(ctx, "live show")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestDuplicate(t *testing.T) {
	mgr, layout := newManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, "Source", "original")
	require.NoError(t, err)
	srcDir := layout.ProfileDir("Source")
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "state.json"), []byte(`{"version":"1.0.0"}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "extras", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "extras", "deep", "notes.txt"), []byte("n"), 0o644))

	p, err := mgr.Duplicate(ctx, "Source", "Copy", "")
	require.NoError(t, err)
	assert.Equal(t, "original", p.Description)

	for _, rel := range []string{"preferences.json", "state.json", filepath.Join("extras", "deep", "notes.txt")} {
		want, err := os.ReadFile(filepath.Join(srcDir, rel))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(layout.ProfileDir("Copy"), rel))
		require.NoError(t, err)
		assert.Equal(t, want, got, rel)
	}

	exists, err := mgr.Exists(ctx, "Copy")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDuplicateRules(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	_, err := mgr.Create(ctx, "Source", "")
	require.NoError(t, err)

	_, err = mgr.Duplicate(ctx, types.DefaultProfileName, "Copy", "")
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = mgr.Duplicate(ctx, "Missing", "Copy", "")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = mgr.Duplicate(ctx, "Source", "source", "")
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestDuplicateFailedCopyRegistersNothing(t *testing.T) {
	mgr, layout := newManager(t)
	ctx := context.Background()
	_, err := mgr.Create(ctx, "Source", "")
	require.NoError(t, err)

	// Symlinks are refused by the tree copy
	require.NoError(t, os.Symlink("/etc/hostname", filepath.Join(layout.ProfileDir("Source"), "link")))

	_, err = mgr.Duplicate(ctx, "Source", "Copy", "")
	require.Error(t, err)

	exists, err := mgr.Exists(ctx, "Copy")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = os.Stat(layout.ProfileDir("Copy"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "partial target must be removed")
}

func TestUpdateLastUsedAndMostRecentlyUsed(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()

	clock := time.Now().Add(time.Hour)
	mgr.now = func() time.Time { return clock }

	_, err := mgr.Create(ctx, "Early", "")
	require.NoError(t, err)
	_, err = mgr.Create(ctx, "Late", "")
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	require.NoError(t, mgr.UpdateLastUsed(ctx, "Early"))

	p, err := mgr.MostRecentlyUsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Early", p.Name)

	err = mgr.UpdateLastUsed(ctx, "Nobody")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestDescriptionIsSanitized(t *testing.T) {
	mgr, _ := newManager(t)

	p, err := mgr.Create(context.Background(), "Show", "<script>x()</script><b>Rock</b> & Roll")
	require.NoError(t, err)
	assert.Equal(t, "Rock & Roll", p.Description)

	p, err = mgr.Create(context.Background(), "Long", strings.Repeat("d", 300))
	require.NoError(t, err)
	assert.Len(t, p.Description, MaxDescriptionLength)
}

func TestExportImport(t *testing.T) {
	mgr, layout := newManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, "Live Show", "Friday set")
	require.NoError(t, err)
	require.NoError(t, mgr.SavePreferences(ctx, "Live Show", types.Preferences{"font_size": 18.0}))
	state := []byte(`{"version":"1.0.0","timestamp":1}`)
	require.NoError(t, os.WriteFile(layout.StateFile("Live Show"), state, 0o644))

	var buf bytes.Buffer
	manifest, err := mgr.Export(ctx, "Live Show", &buf)
	require.NoError(t, err)
	assert.Equal(t, "Live Show", manifest.Profile)
	assert.Contains(t, manifest.Files, "state.json")

	archive := filepath.Join(t.TempDir(), "live.tar.zst")
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0o644))

	// Original name is taken
	_, err = mgr.Import(ctx, archive, "")
	assert.True(t, errors.Is(err, types.ErrValidation))

	p, err := mgr.Import(ctx, archive, "Imported")
	require.NoError(t, err)
	assert.Equal(t, "Friday set", p.Description)

	prefs, err := mgr.LoadPreferences(ctx, "Imported")
	require.NoError(t, err)
	assert.Equal(t, 18.0, prefs["font_size"])

	got, err := os.ReadFile(layout.StateFile("Imported"))
	require.NoError(t, err)
	assert.Equal(t, state, got)

	entries, err := os.ReadDir(layout.ProfilesDir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".import-"), "staging directory left behind")
	}
}

func TestRecorder(t *testing.T) {
	mgr, _ := newManager(t)
	rec := &countingRecorder{}
	mgr.WithRecorder(rec)
	ctx := context.Background()

	_, _ = mgr.Create(ctx, "One", "")
	_, _ = mgr.Create(ctx, "one", "")
	_ = mgr.Delete(ctx, "Ghost")

	assert.Equal(t, 1, rec.ops["create/success"])
	assert.Equal(t, 1, rec.ops["create/invalid"])
	assert.Equal(t, 1, rec.ops["delete/not_found"])
}

func TestActivePointer(t *testing.T) {
	p := NewActivePointer("Alpha")
	assert.Equal(t, "Alpha", p.Current())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Set("Beta")
			_ = p.Current()
		}()
	}
	wg.Wait()
	assert.Equal(t, "Beta", p.Current())
}
