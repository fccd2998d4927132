package preferences

import (
	"context"
	"errors"
	"io/fs"
	"sync"

	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/filesystem"
)

// LegacySource reads values from the pre-profile settings store.
type LegacySource interface {
	// Available reports whether a legacy store exists at all.
	Available(ctx context.Context) bool
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (interface{}, bool, error)
}

// FileLegacySource reads a flat JSON, YAML or TOML settings file once.
type FileLegacySource struct {
	path string

	once   sync.Once
	values map[string]interface{}
	err    error
}

// NewFileLegacySource creates a source backed by the file at path
func NewFileLegacySource(path string) *FileLegacySource {
	return &FileLegacySource{path: path}
}

func (s *FileLegacySource) load() {
	s.once.Do(func() {
		s.values, s.err = filesystem.ReadStructured(s.path)
	})
}

// Available reports whether the legacy file exists
func (s *FileLegacySource) Available(ctx context.Context) bool {
	s.load()
	return !errors.Is(s.err, fs.ErrNotExist)
}

// Get returns the value stored under key. A file that exists but cannot
// be read fails every key.
func (s *FileLegacySource) Get(ctx context.Context, key string) (interface{}, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.load()
	if s.err != nil {
		if errors.Is(s.err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, s.err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// NoLegacySource never has any values
type NoLegacySource struct{}

func (NoLegacySource) Available(context.Context) bool { return false }

func (NoLegacySource) Get(context.Context, string) (interface{}, bool, error) {
	return nil, false, nil
}
