// Package testutil provides testing utilities and helpers for backend tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/CueDeck/backend/internal/app"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/filesystem"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

// MockCatalog is a mock implementation of session.Catalog for testing.
type MockCatalog struct {
	mock.Mock
}

var _ session.Catalog = (*MockCatalog)(nil)

// Lookup mocks the Lookup method.
func (m *MockCatalog) Lookup(ctx context.Context, id string) (types.Item, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Item), args.Bool(1), args.Error(2)
}

// NewMockCatalog creates a mock catalog that knows the given IDs and
// reports every other ID as absent.
func NewMockCatalog(t *testing.T, known ...string) *MockCatalog {
	t.Helper()
	m := new(MockCatalog)
	for _, id := range known {
		m.On("Lookup", mock.Anything, id).
			Return(types.Item{ID: id, Title: "Item " + id}, true, nil).
			Maybe()
	}
	m.On("Lookup", mock.Anything, mock.Anything).
		Return(types.Item{}, false, nil).
		Maybe()
	return m
}

// NewLayout returns a layout rooted in a fresh temporary directory.
func NewLayout(t *testing.T) paths.Layout {
	t.Helper()
	return paths.NewLayout(t.TempDir())
}

// WriteLegacyStore writes a flat legacy settings file into layout.
func WriteLegacyStore(t *testing.T, layout paths.Layout, values map[string]interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(layout.UserData, 0o755))
	require.NoError(t, filesystem.WriteJSON(layout.LegacyStore(), values, 0o644))
}

// WriteState writes raw as profile's state file, creating its directory.
func WriteState(t *testing.T, layout paths.Layout, profile, raw string) {
	t.Helper()
	path := layout.StateFile(profile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
}

// StartHost creates and starts a host over catalog, shutting it down when
// the test ends.
func StartHost(t *testing.T, opts app.Options, catalog session.Catalog) (*app.Host, app.StartResult) {
	t.Helper()
	if opts.QuitTimeout == 0 {
		opts.QuitTimeout = 2 * time.Second
	}
	h, err := app.New(opts, catalog, nil, nil)
	require.NoError(t, err)
	res, err := h.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = h.Shutdown(context.Background()) })
	return h, res
}

// WaitForCondition polls condition until it returns true or timeout elapses.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	require.Eventually(t, condition, timeout, 10*time.Millisecond)
}
