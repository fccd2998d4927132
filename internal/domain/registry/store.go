package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/filesystem"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/id"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"go.uber.org/zap"
)

// Store persists the profile registry
type Store struct {
	layout paths.Layout
	logger *logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache *types.Registry
}

// NewStore creates a registry store rooted at the layout's user data dir
func NewStore(layout paths.Layout, logger *logging.Logger) *Store {
	return &Store{
		layout: layout,
		logger: logger.OrNop().Component("registry"),
		now:    time.Now,
	}
}

// Path returns the registry file path
func (s *Store) Path() string {
	return s.layout.RegistryFile()
}

// Load returns a copy of the registry, seeding it if the file is missing
func (s *Store) Load(ctx context.Context) (*types.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	return reg.Clone(), nil
}

// Update applies fn to the current registry and persists the result.
// If fn returns an error nothing is written and the cache is unchanged.
func (s *Store) Update(ctx context.Context, fn func(reg *types.Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	ensureSentinel(next, s.now())
	if next.Len() == 0 {
		return fmt.Errorf("%w: registry cannot be empty", types.ErrValidation)
	}

	next.UpdatedAt = s.now().UTC()
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.cache = next
	return nil
}

// Invalidate drops the cached registry so the next Load rereads the file
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *Store) loadLocked(ctx context.Context) (*types.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cache != nil {
		return s.cache, nil
	}

	var reg types.Registry
	err := filesystem.ReadJSON(s.Path(), &reg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		seeded, err := s.seedLocked()
		if err != nil {
			return nil, err
		}
		s.cache = seeded
		return seeded, nil
	case err != nil:
		var decodeErr *filesystem.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrFormat, s.Path(), decodeErr.Err)
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	if reg.Version > types.RegistryVersion {
		s.logger.Warn("Registry written by a newer version",
			zap.Int("version", reg.Version),
			zap.Int("supported", types.RegistryVersion))
	}
	if reg.Profiles == nil {
		reg.Profiles = map[string]types.Profile{}
	}

	// Keys are authoritative; repair entries whose embedded name drifted.
	// Missing or invalid IDs are reassigned and persisted.
	rewrite := false
	for name, p := range reg.Profiles {
		if p.Name != name {
			p.Name = name
			reg.Profiles[name] = p
		}
		if !id.IsValidProfileID(p.ID) {
			s.logger.Warn("Profile has no valid ID, assigning a new one",
				zap.String("profile", name), zap.String("id", p.ID))
			p.ID = id.NewProfileID().String()
			reg.Profiles[name] = p
			rewrite = true
		}
	}
	for _, name := range Undirected(&reg) {
		s.logger.Warn("Profile name maps to no directory; its data cannot be saved, duplicated or deleted",
			zap.String("profile", name))
	}

	if ensureSentinel(&reg, s.now()) {
		s.logger.Info("Registry missing sentinel profile, restoring it")
		if err := s.ensureSentinelDir(); err != nil {
			return nil, err
		}
		rewrite = true
	}
	if rewrite {
		reg.UpdatedAt = s.now().UTC()
		if err := s.writeLocked(&reg); err != nil {
			return nil, err
		}
	}

	s.cache = &reg
	return &reg, nil
}

func (s *Store) writeLocked(reg *types.Registry) error {
	if reg.Version == 0 {
		reg.Version = types.RegistryVersion
	}
	if err := filesystem.WriteJSON(s.Path(), reg, 0o644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}
