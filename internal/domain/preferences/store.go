package preferences

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/filesystem"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"go.uber.org/zap"
)

// Store reads and writes per-profile preferences
type Store struct {
	layout paths.Layout
	legacy LegacySource
	logger *logging.Logger
	now    func() time.Time
}

// NewStore creates a preferences store. A nil legacy source disables migration.
func NewStore(layout paths.Layout, legacy LegacySource, logger *logging.Logger) *Store {
	if legacy == nil {
		legacy = NoLegacySource{}
	}
	return &Store{
		layout: layout,
		legacy: legacy,
		logger: logger.OrNop().Component("preferences"),
		now:    time.Now,
	}
}

// Load returns the preferences of profile
func (s *Store) Load(ctx context.Context, profile string) (types.Preferences, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !paths.HasDirName(profile) {
		return nil, fmt.Errorf("%w: profile %q has no usable directory name", types.ErrValidation, profile)
	}

	dir := s.layout.ProfileDir(profile)
	ok, err := filesystem.DirExists(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat profile directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: profile directory for %q", types.ErrNotFound, profile)
	}

	path := s.layout.PreferencesFile(profile)
	var prefs types.Preferences
	err = filesystem.ReadJSON(path, &prefs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s.synthesize(ctx, profile)
	case err != nil:
		var decodeErr *filesystem.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrFormat, path, decodeErr.Err)
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if prefs == nil {
		// A literal null decodes to a nil map.
		return nil, fmt.Errorf("%w: %s is not an object", types.ErrFormat, path)
	}

	log := s.logger.ForProfile(profile)
	if Clean(prefs) {
		if err := filesystem.WriteJSON(path, prefs, 0o644); err != nil {
			log.Warn("Failed to persist cleaned preferences", zap.Error(err))
		} else {
			log.Info("Cleaned legacy preference entries")
		}
	}

	FillDefaults(prefs)
	return prefs, nil
}

// Save writes prefs for profile, creating the directory if needed
func (s *Store) Save(ctx context.Context, profile string, prefs types.Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !paths.HasDirName(profile) {
		return fmt.Errorf("%w: profile %q has no usable directory name", types.ErrValidation, profile)
	}
	if prefs == nil {
		prefs = types.Preferences{}
	}
	if err := os.MkdirAll(s.layout.ProfileDir(profile), filesystem.DirPerm); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	if err := filesystem.WriteJSON(s.layout.PreferencesFile(profile), prefs, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// WriteDefaults writes fresh, non-migrated defaults for a new profile
func (s *Store) WriteDefaults(ctx context.Context, profile string) error {
	return s.Save(ctx, profile, Defaults())
}

// synthesize builds and persists preferences for a profile without a file
func (s *Store) synthesize(ctx context.Context, profile string) (types.Preferences, error) {
	prefs := Defaults()
	log := s.logger.ForProfile(profile)

	if profile == types.DefaultProfileName && s.legacy.Available(ctx) {
		result := s.migrate(ctx, prefs)
		prefs[types.PrefMigratedFromLegacy] = true
		prefs[types.PrefMigrationTimestamp] = s.now().UTC().Format(time.RFC3339)
		prefs[types.PrefMigratedKeyCount] = float64(result.Migrated)
		log.Info("Migrated legacy preferences",
			zap.Int("migrated", result.Migrated),
			zap.Int("failed", len(result.Failed)))
	}

	if err := s.Save(ctx, profile, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}
