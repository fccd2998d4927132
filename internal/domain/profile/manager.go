package profile

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/preferences"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/registry"
	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/filesystem"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/id"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// MaxDescriptionLength bounds a profile description, in characters.
const MaxDescriptionLength = 200

// Recorder receives lifecycle operation outcomes
type Recorder interface {
	RecordProfileOp(op, result string)
}

// PreferencesStore is the per-profile preferences persistence the manager
// delegates to
type PreferencesStore interface {
	Load(ctx context.Context, profile string) (types.Preferences, error)
	Save(ctx context.Context, profile string, prefs types.Preferences) error
	WriteDefaults(ctx context.Context, profile string) error
}

type nopRecorder struct{}

func (nopRecorder) RecordProfileOp(string, string) {}

// Manager owns profile creation, deletion and duplication
type Manager struct {
	registry *registry.Store
	prefs    PreferencesStore
	layout   paths.Layout
	logger   *logging.Logger
	metrics  Recorder
	policy   *bluemonday.Policy
	now      func() time.Time

	// mu serializes lifecycle operations that touch both disk and registry
	mu sync.Mutex
}

// NewManager creates a lifecycle manager
func NewManager(reg *registry.Store, prefs PreferencesStore, layout paths.Layout, logger *logging.Logger) *Manager {
	return &Manager{
		registry: reg,
		prefs:    prefs,
		layout:   layout,
		logger:   logger.OrNop().Component("profile"),
		metrics:  nopRecorder{},
		policy:   bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

// WithRecorder attaches a metrics recorder
func (m *Manager) WithRecorder(r Recorder) *Manager {
	if r != nil {
		m.metrics = r
	}
	return m
}

// Layout returns the on-disk layout
func (m *Manager) Layout() paths.Layout {
	return m.layout
}

// List returns every profile, sentinel first, then by name
func (m *Manager) List(ctx context.Context) ([]types.Profile, error) {
	reg, err := m.registry.Load(ctx)
	if err != nil {
		return nil, err
	}
	return reg.Sorted(), nil
}

// Get returns the profile registered under exactly name
func (m *Manager) Get(ctx context.Context, name string) (types.Profile, error) {
	reg, err := m.registry.Load(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	p, ok := reg.Get(name)
	if !ok {
		return types.Profile{}, fmt.Errorf("%w: profile %q", types.ErrNotFound, name)
	}
	return p, nil
}

// Exists reports whether name is registered exactly
func (m *Manager) Exists(ctx context.Context, name string) (bool, error) {
	reg, err := m.registry.Load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := reg.Get(name)
	return ok, nil
}

// MostRecentlyUsed returns the profile with the latest last-used time
func (m *Manager) MostRecentlyUsed(ctx context.Context) (types.Profile, error) {
	profiles, err := m.List(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	best := profiles[0]
	for _, p := range profiles[1:] {
		if p.LastUsed.After(best.LastUsed) {
			best = p
		}
	}
	return best, nil
}

// ValidateName checks name against the naming rules and existing profiles
func (m *Manager) ValidateName(ctx context.Context, name string) error {
	reg, err := m.registry.Load(ctx)
	if err != nil {
		return err
	}
	return validateName(reg, name)
}

func validateName(reg *types.Registry, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: profile name is required", types.ErrValidation)
	}
	if n := utf8.RuneCountInString(name); n > types.MaxProfileNameLength {
		return fmt.Errorf("%w: profile name is %d characters, maximum is %d", types.ErrValidation, n, types.MaxProfileNameLength)
	}
	if paths.Sanitize(name) == "" {
		return fmt.Errorf("%w: profile name must contain letters or digits", types.ErrValidation)
	}
	if existing, ok := registry.FindFold(reg, name); ok {
		return fmt.Errorf("%w: profile %q already exists", types.ErrValidation, existing.Name)
	}
	if existing, ok := registry.FindDirClash(reg, name, ""); ok {
		return fmt.Errorf("%w: profile %q already uses the same directory", types.ErrValidation, existing.Name)
	}
	return nil
}

// Create registers a new profile with default preferences
func (m *Manager) Create(ctx context.Context, name, description string) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.create(ctx, name, description)
	m.record("create", err)
	return p, err
}

func (m *Manager) create(ctx context.Context, name, description string) (types.Profile, error) {
	name = strings.TrimSpace(name)
	log := m.opLogger("create", name)

	if err := m.ValidateName(ctx, name); err != nil {
		return types.Profile{}, err
	}

	dir := m.layout.ProfileDir(name)
	if err := m.resetOrphan(dir, log); err != nil {
		return types.Profile{}, err
	}
	if err := os.MkdirAll(dir, filesystem.DirPerm); err != nil {
		return types.Profile{}, fmt.Errorf("failed to create profile directory: %w", err)
	}

	if err := m.prefs.WriteDefaults(ctx, name); err != nil {
		m.discard(dir, log)
		return types.Profile{}, err
	}

	p := registry.NewProfile(name, m.cleanDescription(description), m.now())
	if err := m.register(ctx, p); err != nil {
		m.discard(dir, log)
		return types.Profile{}, err
	}

	log.Info("Profile created", zap.String("dir", dir))
	return p, nil
}

// Delete removes a profile's directory and then its registry entry
func (m *Manager) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.delete(ctx, name)
	m.record("delete", err)
	return err
}

func (m *Manager) delete(ctx context.Context, name string) error {
	log := m.opLogger("delete", name)

	if name == types.DefaultProfileName {
		return fmt.Errorf("%w: the %s profile cannot be deleted", types.ErrValidation, types.DefaultProfileName)
	}

	reg, err := m.registry.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := reg.Get(name); !ok {
		return fmt.Errorf("%w: profile %q", types.ErrNotFound, name)
	}
	if !paths.HasDirName(name) {
		return errNoDirName(name)
	}
	if reg.Len() <= 1 {
		return fmt.Errorf("%w: cannot delete the last profile", types.ErrValidation)
	}
	if other, ok := registry.FindDirClash(reg, name, name); ok {
		return fmt.Errorf("%w: profile %q shares this directory; rename or delete it first", types.ErrValidation, other.Name)
	}

	dir := m.layout.ProfileDir(name)
	if err := filesystem.RemoveAllVerified(dir); err != nil {
		return fmt.Errorf("failed to delete profile directory: %w", err)
	}

	err = m.registry.Update(ctx, func(reg *types.Registry) error {
		if _, ok := reg.Profiles[name]; !ok {
			return fmt.Errorf("%w: profile %q", types.ErrNotFound, name)
		}
		delete(reg.Profiles, name)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("Profile deleted")
	return nil
}

// Duplicate copies source's full directory tree into a new profile
func (m *Manager) Duplicate(ctx context.Context, source, target, description string) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.duplicate(ctx, source, target, description)
	m.record("duplicate", err)
	return p, err
}

func (m *Manager) duplicate(ctx context.Context, source, target, description string) (types.Profile, error) {
	target = strings.TrimSpace(target)
	log := m.opLogger("duplicate", target).With(zap.String("source", source))

	if source == types.DefaultProfileName {
		return types.Profile{}, fmt.Errorf("%w: the %s profile cannot be duplicated", types.ErrValidation, types.DefaultProfileName)
	}

	reg, err := m.registry.Load(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	src, ok := reg.Get(source)
	if !ok {
		return types.Profile{}, fmt.Errorf("%w: profile %q", types.ErrNotFound, source)
	}
	if !paths.HasDirName(source) {
		return types.Profile{}, errNoDirName(source)
	}
	if err := validateName(reg, target); err != nil {
		return types.Profile{}, err
	}

	srcDir := m.layout.ProfileDir(source)
	if ok, err := filesystem.DirExists(srcDir); err != nil {
		return types.Profile{}, err
	} else if !ok {
		return types.Profile{}, fmt.Errorf("%w: directory for profile %q", types.ErrNotFound, source)
	}

	dstDir := m.layout.ProfileDir(target)
	if err := m.resetOrphan(dstDir, log); err != nil {
		return types.Profile{}, err
	}

	stats, err := filesystem.CopyTree(ctx, srcDir, dstDir)
	if err != nil {
		m.discard(dstDir, log)
		return types.Profile{}, fmt.Errorf("failed to copy profile %q: %w", source, err)
	}

	if strings.TrimSpace(description) == "" {
		description = src.Description
	}
	p := registry.NewProfile(target, m.cleanDescription(description), m.now())
	if err := m.register(ctx, p); err != nil {
		m.discard(dstDir, log)
		return types.Profile{}, err
	}

	log.Info("Profile duplicated", zap.Int64("files", stats.Files), zap.Int64("bytes", stats.Bytes))
	return p, nil
}

// LoadPreferences returns the preferences of a registered profile
func (m *Manager) LoadPreferences(ctx context.Context, name string) (types.Preferences, error) {
	if _, err := m.Get(ctx, name); err != nil {
		return nil, err
	}
	return m.prefs.Load(ctx, name)
}

// SavePreferences writes the preferences of a registered profile
func (m *Manager) SavePreferences(ctx context.Context, name string, prefs types.Preferences) error {
	if _, err := m.Get(ctx, name); err != nil {
		return err
	}
	return m.prefs.Save(ctx, name, prefs)
}

// UpdateLastUsed stamps name as used now
func (m *Manager) UpdateLastUsed(ctx context.Context, name string) error {
	return m.registry.Update(ctx, func(reg *types.Registry) error {
		p, ok := reg.Profiles[name]
		if !ok {
			return fmt.Errorf("%w: profile %q", types.ErrNotFound, name)
		}
		p.LastUsed = m.now().UTC()
		reg.Profiles[name] = p
		return nil
	})
}

// Export writes name's directory to w as a profile archive
func (m *Manager) Export(ctx context.Context, name string, w io.Writer) (filesystem.Manifest, error) {
	p, err := m.Get(ctx, name)
	if err != nil {
		return filesystem.Manifest{}, err
	}
	if !paths.HasDirName(name) {
		return filesystem.Manifest{}, errNoDirName(name)
	}
	manifest := filesystem.Manifest{
		ID:          id.NewExportID().String(),
		Profile:     p.Name,
		Description: p.Description,
		CreatedAt:   m.now().UTC(),
	}
	manifest, err = filesystem.ExportArchive(ctx, m.layout.ProfileDir(name), w, manifest, filesystem.DefaultExcludes)
	m.record("export", err)
	return manifest, err
}

// Import unpacks a profile archive into a new profile. An empty name uses
// the name recorded in the archive.
func (m *Manager) Import(ctx context.Context, archivePath, name string) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.importArchive(ctx, archivePath, name)
	m.record("import", err)
	return p, err
}

func (m *Manager) importArchive(ctx context.Context, archivePath, name string) (types.Profile, error) {
	if err := os.MkdirAll(m.layout.ProfilesDir(), filesystem.DirPerm); err != nil {
		return types.Profile{}, err
	}
	staging, err := os.MkdirTemp(m.layout.ProfilesDir(), ".import-*")
	if err != nil {
		return types.Profile{}, fmt.Errorf("failed to create staging directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	manifest, err := filesystem.ExtractArchive(ctx, archivePath, staging)
	if err != nil {
		return types.Profile{}, fmt.Errorf("%w: %v", types.ErrValidation, err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(manifest.Profile)
	}
	log := m.opLogger("import", name).With(zap.String("archive", filepath.Base(archivePath)))

	if err := m.ValidateName(ctx, name); err != nil {
		return types.Profile{}, err
	}

	if ok, err := filesystem.FileExists(filepath.Join(staging, paths.PreferencesFileName)); err != nil {
		return types.Profile{}, err
	} else if !ok {
		if err := filesystem.WriteJSON(filepath.Join(staging, paths.PreferencesFileName), preferences.Defaults(), 0o644); err != nil {
			return types.Profile{}, err
		}
	}

	dir := m.layout.ProfileDir(name)
	if err := m.resetOrphan(dir, log); err != nil {
		return types.Profile{}, err
	}
	if err := os.Rename(staging, dir); err != nil {
		return types.Profile{}, fmt.Errorf("failed to move imported profile into place: %w", err)
	}
	committed = true

	p := registry.NewProfile(name, m.cleanDescription(manifest.Description), m.now())
	if err := m.register(ctx, p); err != nil {
		m.discard(dir, log)
		return types.Profile{}, err
	}

	log.Info("Profile imported", zap.Int("files", len(manifest.Files)))
	return p, nil
}

// register inserts p, rechecking uniqueness against the registry being written
func (m *Manager) register(ctx context.Context, p types.Profile) error {
	return m.registry.Update(ctx, func(reg *types.Registry) error {
		if err := validateName(reg, p.Name); err != nil {
			return err
		}
		reg.Profiles[p.Name] = p
		return nil
	})
}

// resetOrphan destroys an unregistered directory occupying dir
func (m *Manager) resetOrphan(dir string, log *logging.Logger) error {
	ok, err := filesystem.DirExists(dir)
	if err != nil {
		return err
	}
	if !ok {
		// A stray file at the path would block MkdirAll.
		if exists, _ := filesystem.FileExists(dir); exists {
			return filesystem.RemoveAllVerified(dir)
		}
		return nil
	}
	log.Warn("Removing orphaned profile directory", zap.String("dir", dir))
	if err := filesystem.RemoveAllVerified(dir); err != nil {
		return fmt.Errorf("failed to clear orphaned directory: %w", err)
	}
	return nil
}

// discard removes a directory created by a failed operation, best effort
func (m *Manager) discard(dir string, log *logging.Logger) {
	if err := filesystem.RemoveAllVerified(dir); err != nil {
		log.Warn("Failed to clean up profile directory", zap.String("dir", dir), zap.Error(err))
	}
}

func (m *Manager) cleanDescription(desc string) string {
	desc = strings.TrimSpace(html.UnescapeString(m.policy.Sanitize(desc)))
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		desc = string([]rune(desc)[:MaxDescriptionLength])
	}
	return desc
}

func (m *Manager) opLogger(op, name string) *logging.Logger {
	return m.logger.ForProfile(name).With(
		zap.String("op", op),
		zap.String("op_id", id.NewOperationID().String()),
	)
}

func (m *Manager) record(op string, err error) {
	m.metrics.RecordProfileOp(op, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, types.ErrValidation):
		return "invalid"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// errNoDirName rejects registry entries whose name resolves to the
// profiles root instead of a directory of their own
func errNoDirName(name string) error {
	return fmt.Errorf("%w: profile %q has no usable directory name", types.ErrValidation, name)
}
