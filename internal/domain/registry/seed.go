package registry

import (
	"fmt"
	"os"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/id"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"go.uber.org/zap"
)

// SentinelDescription is the description given to a seeded Default profile.
const SentinelDescription = "Default profile"

// NewRegistry returns a registry holding only the sentinel profile
func NewRegistry(now time.Time) *types.Registry {
	reg := &types.Registry{
		Version:   types.RegistryVersion,
		UpdatedAt: now.UTC(),
		Profiles:  map[string]types.Profile{},
	}
	ensureSentinel(reg, now)
	return reg
}

// NewProfile builds a registry entry with a fresh ID
func NewProfile(name, description string, now time.Time) types.Profile {
	ts := now.UTC()
	return types.Profile{
		ID:          id.NewProfileID().String(),
		Name:        name,
		Description: description,
		CreatedAt:   ts,
		LastUsed:    ts,
	}
}

// ensureSentinel adds the Default profile if absent and reports whether it did
func ensureSentinel(reg *types.Registry, now time.Time) bool {
	if reg.Profiles == nil {
		reg.Profiles = map[string]types.Profile{}
	}
	if _, ok := reg.Profiles[types.DefaultProfileName]; ok {
		return false
	}
	reg.Profiles[types.DefaultProfileName] = NewProfile(types.DefaultProfileName, SentinelDescription, now)
	return true
}

// seedLocked writes a fresh registry when none exists on disk
func (s *Store) seedLocked() (*types.Registry, error) {
	reg := NewRegistry(s.now())
	if err := s.ensureSentinelDir(); err != nil {
		return nil, err
	}
	if err := s.writeLocked(reg); err != nil {
		return nil, err
	}
	s.logger.Info("Seeded profile registry", zap.String("path", s.Path()))
	return reg, nil
}

func (s *Store) ensureSentinelDir() error {
	dir := s.layout.ProfileDir(types.DefaultProfileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sentinel profile directory: %w", err)
	}
	return nil
}
