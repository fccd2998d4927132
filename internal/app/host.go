package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/preferences"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/profile"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/registry"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/switcher"
	"github.com/GriffinCanCode/CueDeck/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/filesystem"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"go.uber.org/zap"
)

// ErrNotStarted is returned by operations that need a completed startup
var ErrNotStarted = errors.New("host not started")

// Recorder receives every metric the host and its components produce
type Recorder interface {
	profile.Recorder
	session.Recorder
	RecordSwitch(result string)
}

// Options configures a Host
type Options struct {
	UserDataDir       string
	LegacyStore       string
	ActiveProfile     string
	WatchRegistry     bool
	QuitTimeout       time.Duration
	AutosaveInterval  time.Duration
	LookupConcurrency int
}

// OptionsFromConfig maps application configuration to host options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		UserDataDir:       cfg.Storage.UserDataDir,
		LegacyStore:       cfg.LegacyStorePath(),
		ActiveProfile:     cfg.Storage.ActiveProfile,
		WatchRegistry:     cfg.Storage.WatchRegistry,
		QuitTimeout:       cfg.Session.QuitTimeout,
		AutosaveInterval:  cfg.Session.AutosaveInterval,
		LookupConcurrency: cfg.Session.LookupConcurrency,
	}
}

// StartResult describes the startup sequence
type StartResult struct {
	Profile     string             `json:"profile"`
	Preferences types.Preferences  `json:"preferences"`
	Restore     session.LoadResult `json:"restore"`
	Duration    time.Duration      `json:"duration"`
}

// Status is a point-in-time view of the host
type Status struct {
	Profile   string             `json:"profile"`
	Lock      string             `json:"lock"`
	Restoring bool               `json:"restoring"`
	Started   bool               `json:"started"`
	Items     map[types.Kind]int `json:"items"`
}

// Host owns the running session
type Host struct {
	opts     Options
	layout   paths.Layout
	logger   *logging.Logger
	metrics  Recorder
	registry *registry.Store
	profiles *profile.Manager
	active   *profile.ActivePointer
	view     *View
	catalog  session.Catalog
	engine   *session.Engine
	switcher *switcher.Orchestrator
	watcher  *registry.Watcher

	// switchMu orders saves, loads and deletes against switches, so no
	// save runs between the pointer move and the incoming restore.
	switchMu sync.Mutex

	prefsMu sync.RWMutex
	current types.Preferences

	stateMu  sync.Mutex
	started  bool
	stopAuto chan struct{}
	autoDone chan struct{}
}

// New wires a host over the given catalog. recorder may be nil.
func New(opts Options, catalog session.Catalog, logger *logging.Logger, recorder Recorder) (*Host, error) {
	if opts.UserDataDir == "" {
		return nil, fmt.Errorf("%w: user data directory is required", types.ErrValidation)
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", types.ErrValidation)
	}
	if opts.QuitTimeout <= 0 {
		opts.QuitTimeout = session.QuitTimeout
	}
	logger = logger.OrNop()

	layout := paths.NewLayout(opts.UserDataDir)
	var legacy preferences.LegacySource
	if opts.LegacyStore != "" {
		legacy = preferences.NewFileLegacySource(opts.LegacyStore)
	}

	h := &Host{
		opts:     opts,
		layout:   layout,
		logger:   logger.Component("host"),
		metrics:  recorder,
		registry: registry.NewStore(layout, logger),
		active:   profile.NewActivePointer(""),
		view:     NewView(),
		catalog:  catalog,
	}

	prefs := preferences.NewStore(layout, legacy, logger)
	h.profiles = profile.NewManager(h.registry, prefs, layout, logger)
	h.engine = session.NewEngine(layout, h.active, h.view, session.NewCodec(logger, opts.LookupConcurrency), logger)
	if recorder != nil {
		h.profiles.WithRecorder(recorder)
		h.engine.WithRecorder(recorder)
	}
	h.switcher = switcher.New(h.profiles, h.engine, h.active, switcher.ReactivatorFunc(h.reactivate), logger)
	return h, nil
}

// Start runs the startup sequence: choose the active profile, record its
// use, load its preferences, restore its layout, unlock.
func (h *Host) Start(ctx context.Context) (StartResult, error) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	if h.started {
		return StartResult{Profile: h.active.Current()}, nil
	}

	start := time.Now()
	name, err := h.chooseProfile(ctx)
	if err != nil {
		return StartResult{}, err
	}

	h.switchMu.Lock()
	h.active.Set(name)
	if err := h.profiles.UpdateLastUsed(ctx, name); err != nil {
		h.logger.Warn("Failed to record last use", zap.String("profile", name), zap.Error(err))
	}
	prefs, restore := h.activate(ctx, name)
	h.switchMu.Unlock()

	if h.opts.WatchRegistry {
		h.startWatcher(ctx)
	}
	if h.opts.AutosaveInterval > 0 {
		h.startAutosave()
	}
	h.started = true

	res := StartResult{Profile: name, Preferences: prefs, Restore: restore, Duration: time.Since(start)}
	h.logger.Info("Host started",
		zap.String("profile", name),
		zap.Bool("restored", restore.Loaded),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// chooseProfile picks the configured profile if it exists, otherwise the
// most recently used one
func (h *Host) chooseProfile(ctx context.Context) (string, error) {
	if want := h.opts.ActiveProfile; want != "" {
		ok, err := h.profiles.Exists(ctx, want)
		if err != nil {
			return "", err
		}
		if ok {
			return want, nil
		}
		h.logger.Warn("Configured active profile does not exist, falling back", zap.String("profile", want))
	}
	mru, err := h.profiles.MostRecentlyUsed(ctx)
	if err != nil {
		return "", err
	}
	if mru.Name == "" {
		return types.DefaultProfileName, nil
	}
	return mru.Name, nil
}

// activate loads preferences and layout for name and unlocks. The caller
// holds switchMu. A restoration still holding the lock is superseded.
// Failed preferences degrade to defaults; a failed restore leaves saves
// held so the partial view never overwrites the profile's state.
func (h *Host) activate(ctx context.Context, name string) (types.Preferences, session.LoadResult) {
	log := h.logger.ForProfile(name)

	prefs, err := h.profiles.LoadPreferences(ctx, name)
	if err != nil {
		log.Warn("Preferences unavailable, using defaults", zap.Error(err))
		prefs = preferences.Defaults()
	}
	h.prefsMu.Lock()
	h.current = prefs
	h.prefsMu.Unlock()

	h.view.Clear()
	restore, err := h.engine.Reload(ctx, h.view, h.catalog)
	if err != nil {
		log.Error("Session restore failed, saves held until unlock", zap.Error(err))
		h.engine.Hold()
		return prefs.Clone(), restore
	}
	h.engine.Unlock()
	return prefs.Clone(), restore
}

// reactivate is the switcher's callback; Switch holds switchMu
func (h *Host) reactivate(ctx context.Context, name string) error {
	h.activate(ctx, name)
	return nil
}

// Switch makes target the active profile
func (h *Host) Switch(ctx context.Context, target string) (switcher.Result, error) {
	h.switchMu.Lock()
	defer h.switchMu.Unlock()

	res, err := h.switcher.Switch(ctx, target)
	if h.metrics != nil {
		switch {
		case err != nil:
			h.metrics.RecordSwitch("error")
		case res.NoOp:
			h.metrics.RecordSwitch("noop")
		default:
			h.metrics.RecordSwitch("success")
		}
	}
	return res, err
}

// Save writes the current layout to the active profile
func (h *Host) Save(ctx context.Context) (session.SaveResult, error) {
	h.switchMu.Lock()
	defer h.switchMu.Unlock()
	return h.engine.Save(ctx)
}

// Load restores the active profile's layout. The restoration lock stays
// held on success until Unlock.
func (h *Host) Load(ctx context.Context) (session.LoadResult, error) {
	h.switchMu.Lock()
	defer h.switchMu.Unlock()
	return h.engine.Load(ctx, h.view, h.catalog)
}

// Unlock ends a restoration
func (h *Host) Unlock() bool {
	return h.engine.Unlock()
}

// Status reports the active profile and lock state
func (h *Host) Status() Status {
	h.stateMu.Lock()
	started := h.started
	h.stateMu.Unlock()
	return Status{
		Profile:   h.active.Current(),
		Lock:      h.engine.LockState().String(),
		Restoring: h.engine.IsRestoring(),
		Started:   started,
		Items:     h.view.Counts(),
	}
}

// ActiveProfile returns the active profile name
func (h *Host) ActiveProfile() string {
	return h.active.Current()
}

// View returns the in-process layout model
func (h *Host) View() *View {
	return h.view
}

// Profiles returns the lifecycle manager
func (h *Host) Profiles() *profile.Manager {
	return h.profiles
}

// Preferences returns the active profile's preferences
func (h *Host) Preferences() types.Preferences {
	h.prefsMu.RLock()
	defer h.prefsMu.RUnlock()
	return h.current.Clone()
}

// ListProfiles returns every profile
func (h *Host) ListProfiles(ctx context.Context) ([]types.Profile, error) {
	return h.profiles.List(ctx)
}

// CreateProfile creates an empty profile
func (h *Host) CreateProfile(ctx context.Context, name, description string) (types.Profile, error) {
	return h.profiles.Create(ctx, name, description)
}

// DuplicateProfile copies source into a new profile
func (h *Host) DuplicateProfile(ctx context.Context, source, target, description string) (types.Profile, error) {
	h.switchMu.Lock()
	defer h.switchMu.Unlock()
	return h.profiles.Duplicate(ctx, source, target, description)
}

// DeleteProfile removes a profile. The active profile cannot be deleted.
func (h *Host) DeleteProfile(ctx context.Context, name string) error {
	h.switchMu.Lock()
	defer h.switchMu.Unlock()
	if name == h.active.Current() {
		return fmt.Errorf("%w: cannot delete the active profile %q", types.ErrValidation, name)
	}
	return h.profiles.Delete(ctx, name)
}

// LoadPreferences returns name's stored preferences
func (h *Host) LoadPreferences(ctx context.Context, name string) (types.Preferences, error) {
	return h.profiles.LoadPreferences(ctx, name)
}

// SavePreferences validates and stores prefs for name
func (h *Host) SavePreferences(ctx context.Context, name string, prefs types.Preferences) error {
	if err := preferences.Validate(prefs); err != nil {
		return err
	}
	if err := h.profiles.SavePreferences(ctx, name, prefs); err != nil {
		return err
	}
	if name == h.active.Current() {
		h.prefsMu.Lock()
		h.current = prefs.Clone()
		h.prefsMu.Unlock()
	}
	return nil
}

// ExportProfile writes name as an archive to w
func (h *Host) ExportProfile(ctx context.Context, name string, w io.Writer) (filesystem.Manifest, error) {
	return h.profiles.Export(ctx, name, w)
}

// ImportProfile registers the archive at path as a new profile
func (h *Host) ImportProfile(ctx context.Context, path, name string) (types.Profile, error) {
	return h.profiles.Import(ctx, path, name)
}

// Shutdown stops background work and performs the quit save, bounded by
// the configured quit timeout.
func (h *Host) Shutdown(ctx context.Context) (session.SaveResult, error) {
	h.stateMu.Lock()
	started := h.started
	h.started = false
	h.stateMu.Unlock()

	h.stopAutosave()
	if h.watcher != nil {
		h.watcher.Stop()
		h.watcher = nil
	}
	if !started {
		return session.SaveResult{}, ErrNotStarted
	}

	qctx, cancel := context.WithTimeout(ctx, h.opts.QuitTimeout)
	defer cancel()

	h.switchMu.Lock()
	defer h.switchMu.Unlock()
	res, err := h.engine.SaveOnQuit(qctx)
	if err != nil {
		h.logger.Error("Quit save failed", zap.Error(err))
		return res, err
	}
	h.logger.Info("Host stopped", zap.String("profile", res.Profile), zap.Bool("saved", res.Saved))
	return res, nil
}

func (h *Host) startWatcher(ctx context.Context) {
	w, err := registry.NewWatcher(h.registry, h.logger)
	if err != nil {
		h.logger.Warn("Registry watcher unavailable", zap.Error(err))
		return
	}
	w.OnChange(func(reg *types.Registry, _ [][]string) {
		if _, ok := reg.Get(h.active.Current()); !ok {
			h.logger.Warn("Active profile was removed from the registry externally",
				zap.String("profile", h.active.Current()))
		}
	})
	if err := w.Start(context.WithoutCancel(ctx)); err != nil {
		h.logger.Warn("Registry watcher failed to start", zap.Error(err))
		w.Stop()
		return
	}
	h.watcher = w
}
